package invitation

import "errors"

var (
	ErrNotFound       = errors.New("invitation not found")
	ErrAlreadyInvited = errors.New("an invitation for this email and role already exists")
	ErrExpired        = errors.New("invitation has expired")
	ErrInvalidRole    = errors.New("role must be doctor or staff")
)
