package ports

import "context"

// TokenSource returns the bearer token of the current session.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenStore is a TokenSource that can also persist a new token.
type TokenStore interface {
	TokenSource
	SetToken(ctx context.Context, token string) error
}
