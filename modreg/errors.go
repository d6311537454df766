package modreg

import "errors"

var (
	// ErrInvalidHostRef indicates register_host_module received a proxy id
	// that does not resolve to a live host object (§4.4: "invalid id ->
	// error value").
	ErrInvalidHostRef = errors.New("invalid host object reference")

	// ErrAlreadyMounted indicates a second Attach call; only one VFS mount
	// is supported at root (§4.6).
	ErrAlreadyMounted = errors.New("vfs already mounted")

	// ErrNotMounted indicates a VFS operation was attempted before Attach.
	ErrNotMounted = errors.New("no filesystem mounted")

	// ErrUserCodeAlreadyRan indicates Attach was called after the registry
	// reports user code has begun running (§4.6: "attach happens ... before
	// any user code runs").
	ErrUserCodeAlreadyRan = errors.New("vfs attach after user code started")
)
