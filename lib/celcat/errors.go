package celcat

import "errors"

// ErrRemote indicates the portal was unreachable or returned a shape
// the adapter cannot parse. A fresh logical call may succeed.
var ErrRemote = errors.New("celcat: unexpected remote response")

// ErrUnauthorized indicates rejected credentials or a session the
// portal silently expired. Not retryable without new credentials.
var ErrUnauthorized = errors.New("celcat: unauthorized")
