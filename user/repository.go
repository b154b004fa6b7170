package user

import "context"

// Repository is the remote source of user records.
type Repository interface {
	// Command

	Create(ctx context.Context, d Draft) (*User, error)

	// Query

	ListAll(ctx context.Context) ([]User, error)
}
