package shared

import (
	"fmt"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
)

var (
	// ErrNotFound is the generic lookup miss for packages without their own.
	ErrNotFound = httpx.ErrNotFound
	// ErrInvalidCredentials covers every failed login so callers cannot tell
	// an unknown email from a wrong password.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
)
