// Package authentication implements the Authenticate query: it verifies a username and password
// against the bcrypt hash of the active member account. Unknown, deleted and wrong credentials
// all fail the same way, with core.ErrInvalidCredentials.
package authentication
