package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bookdesk/bookdesk/eventstore"
)

const logActionSchema = "ensure schema"

// EnsureSchema creates the events and snapshots tables with their indexes if they don't exist.
func (es *EventStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
			sequence_number BIGSERIAL PRIMARY KEY,
			occurred_at TIMESTAMP WITH TIME ZONE NOT NULL,
			event_type TEXT NOT NULL,
			payload JSONB NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb
		)`, es.eventTableName),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q (event_type)`, es.eventTableName+"_event_type_idx", es.eventTableName),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q (occurred_at)`, es.eventTableName+"_occurred_at_idx", es.eventTableName),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q USING gin (payload jsonb_path_ops)`,
			es.eventTableName+"_payload_idx", es.eventTableName),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
			projection_type TEXT NOT NULL,
			filter_hash TEXT NOT NULL,
			sequence_number BIGINT NOT NULL,
			snapshot_data JSONB NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			PRIMARY KEY (projection_type, filter_hash)
		)`, es.snapshotTableName),
	}

	for _, statement := range statements {
		start := time.Now()
		_, err := es.db.Exec(ctx, statement)
		es.observer.LogStatement(ctx, logActionSchema, statement, time.Since(start))

		if err != nil {
			es.observer.LogError(ctx, logMsgDBExecFailed, err)
			return errors.Join(eventstore.ErrAppendingEventFailed, err)
		}
	}

	return nil
}
