package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bookdesk/bookdesk/library/shell/backup"
	"github.com/bookdesk/bookdesk/library/shell/config"
)

func newBackupCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export the event log to, or restore it from, a backup target",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "export",
			Short: "Write every event to a new export",
			Args:  cobra.NoArgs,
			RunE: opts.withSession(func(ctx context.Context, s *session, _ []string) error {
				target, err := openBackupTarget(ctx, opts.cfg.Backup)
				if err != nil {
					return err
				}

				result, err := backup.Export(ctx, s.store, target, opts.cfg.Backup.Prefix, time.Now())
				if err != nil {
					return err
				}

				fmt.Fprintf(opts.out, "exported %d events to %s\n", result.Events, result.Key)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "restore [KEY]",
			Short: "Restore an export into an empty store, the latest one by default",
			Args:  cobra.MaximumNArgs(1),
			RunE: opts.withSession(func(ctx context.Context, s *session, args []string) error {
				target, err := openBackupTarget(ctx, opts.cfg.Backup)
				if err != nil {
					return err
				}

				var key string
				if len(args) == 1 {
					key = args[0]
				} else if key, err = backup.LatestKey(ctx, target, opts.cfg.Backup.Prefix); err != nil {
					return err
				}

				result, err := backup.Restore(ctx, s.store, target, key)
				if err != nil {
					return err
				}

				fmt.Fprintf(opts.out, "restored %d events from %s\n", result.Events, result.Key)
				return nil
			}),
		},
	)

	return cmd
}

func openBackupTarget(ctx context.Context, cfg config.Backup) (backup.Target, error) {
	if cfg.Target == config.BackupTargetS3 {
		return backup.NewS3Target(ctx, backup.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
	}

	return backup.NewFSTarget(cfg.Dir)
}
