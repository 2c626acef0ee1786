// Package user provides read access to the user accounts counted by the
// metrics endpoint.
package user

import "time"

// User is an account row.
type User struct {
	// ID is the unique user identifier.
	ID int64

	// Username is the login name.
	Username string

	// Email is the contact address, may be empty.
	Email string

	// IsActive is false for deactivated accounts.
	IsActive bool

	// DateJoined is when the account was created.
	DateJoined time.Time
}

// Counts summarises the user table.
type Counts struct {
	Total  int64
	Active int64
}
