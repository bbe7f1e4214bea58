package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookdesk/bookdesk/library/shell"
)

func TestMain(m *testing.M) {
	shell.PasswordHashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type cli struct {
	t       *testing.T
	dataDir string
}

func givenCLI(t *testing.T) *cli {
	t.Helper()

	t.Setenv("BOOKDESK_BACKUP_DIR", t.TempDir())
	t.Setenv("BOOKDESK_OTLP_ENDPOINT", "")

	return &cli{t: t, dataDir: t.TempDir()}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(append([]string{"--store", "file", "--data-dir", c.dataDir, "--log-level", "error"}, args...))

	err := cmd.Execute()

	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()

	out, err := c.run(args...)
	require.NoError(c.t, err)

	return out
}
