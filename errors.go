package phishcheck

import "errors"

var (
	ErrNoDomain         = errors.New("phishcheck: no domain found in email")
	ErrInvalidThreshold = errors.New("phishcheck: classifier threshold must be within [0,1]")
	ErrInvalidTimeout   = errors.New("phishcheck: timeouts must not be negative")
	ErrInvalidReport    = errors.New("phishcheck: invalid report encoding")
)
