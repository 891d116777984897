package metasync

import "errors"

// ErrUnauthorized is returned when the executor rejects the API token.
var ErrUnauthorized = errors.New("executor rejected the API token")
