// Package members implements the Members query: all active member accounts, without password hashes.
package members
