package tokenstore

import "errors"

// DefaultKey is the storage key the bearer credential is persisted under.
// #nosec G101 -- storage key name, not a credential.
const DefaultKey = "agent_platform_token"

var (
	ErrStorage    = errors.New("token storage unavailable")
	ErrEmptyToken = errors.New("empty token")
)

// Reader is the read side the request gateway depends on.
type Reader interface {
	// Get returns the current credential; ok is false when unauthenticated.
	Get() (token string, ok bool, err error)
}

type Store interface {
	Reader
	Set(token string) error
	Clear() error
}
