// Package repository implements the MySQL-backed stores and the identity
// resolver. Sentinel errors let handlers map failure scenarios onto HTTP
// responses without inspecting driver errors.
package repository

import "errors"

// ErrEmailExists is returned when an insert collides with the unique email
// index. Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when neither the email nor the username
// lookup matches a stored user.
var ErrUserNotFound = errors.New("user not found")
