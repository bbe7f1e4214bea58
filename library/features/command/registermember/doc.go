// Package registermember implements the Register Member use case.
//
// Usernames are unique case-insensitively: the member id is the lowercased username.
// Registering the same username again with an identical profile is a no-op, with a different
// profile it fails with "username is already taken". A deleted member's username may be registered again.
// The password is stored as bcrypt hash only.
package registermember
