package httpapi_test

import (
	"os"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/bookdesk/bookdesk/library/shell"
)

func TestMain(m *testing.M) {
	shell.PasswordHashCost = bcrypt.MinCost
	os.Exit(m.Run())
}
