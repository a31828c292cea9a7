package auth

import "context"

// Store describes the persistence operations the auth subsystem needs. The
// core only reads through LookupAccount during token verification; the
// remaining operations serve signup and admin flows.
type Store interface {
	// LookupAccount returns the account by username or ErrNotFound.
	LookupAccount(ctx context.Context, username string) (Account, error)
	// CreateAccount persists a new account. A username collision returns
	// ErrAccountExists and leaves no partial state.
	CreateAccount(ctx context.Context, account Account) (Account, error)
	// SetDisabled flips the administrative disabled flag. Unknown username
	// returns ErrNotFound.
	SetDisabled(ctx context.Context, username string, disabled bool) error
	// ListAccounts returns all accounts ordered by creation time.
	ListAccounts(ctx context.Context) ([]Account, error)
}
