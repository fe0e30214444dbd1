// Keystone double - error taxonomy.
//
// Sub-models return typed domain errors; the authenticator translates
// them into the authentication taxonomy and the HTTP surface maps every
// member onto a fixed status code via statusFor.

package identityservice

import (
	"fmt"
	"net/http"
)

// TenantError reports a missing, disabled or otherwise unusable tenant.
type TenantError struct {
	msg string
}

func (e *TenantError) Error() string { return e.msg }

func NewTenantError(format string, args ...interface{}) error {
	return &TenantError{fmt.Sprintf(format, args...)}
}

func IsTenantError(err error) bool {
	_, ok := err.(*TenantError)
	return ok
}

// RoleError reports a failed role operation, including name collisions.
type RoleError struct {
	msg string
}

func (e *RoleError) Error() string { return e.msg }

func NewRoleError(format string, args ...interface{}) error {
	return &RoleError{fmt.Sprintf(format, args...)}
}

func IsRoleError(err error) bool {
	_, ok := err.(*RoleError)
	return ok
}

// TokenError reports a failed token store operation (not a validation
// failure; those have their own types below).
type TokenError struct {
	msg string
}

func (e *TokenError) Error() string { return e.msg }

func NewTokenError(format string, args ...interface{}) error {
	return &TokenError{fmt.Sprintf(format, args...)}
}

func IsTokenError(err error) bool {
	_, ok := err.(*TokenError)
	return ok
}

// UserError reports a malformed authentication request: a required
// field is missing or fails its syntax rule.
type UserError struct {
	msg string
}

func (e *UserError) Error() string { return e.msg }

func NewUserError(format string, args ...interface{}) error {
	return &UserError{fmt.Sprintf(format, args...)}
}

func IsUserError(err error) bool {
	_, ok := err.(*UserError)
	return ok
}

// UnknownUserError reports that no user matched a lookup.
type UnknownUserError struct {
	msg string
}

func (e *UnknownUserError) Error() string { return e.msg }

func NewUnknownUserError(format string, args ...interface{}) error {
	return &UnknownUserError{fmt.Sprintf(format, args...)}
}

func IsUnknownUserError(err error) bool {
	_, ok := err.(*UnknownUserError)
	return ok
}

// DisabledUserError reports an authentication attempt against a user
// whose enabled flag is false.
type DisabledUserError struct {
	msg string
}

func (e *DisabledUserError) Error() string { return e.msg }

func NewDisabledUserError(format string, args ...interface{}) error {
	return &DisabledUserError{fmt.Sprintf(format, args...)}
}

func IsDisabledUserError(err error) bool {
	_, ok := err.(*DisabledUserError)
	return ok
}

// InvalidPasswordError reports a password mismatch.
type InvalidPasswordError struct {
	msg string
}

func (e *InvalidPasswordError) Error() string { return e.msg }

func NewInvalidPasswordError(format string, args ...interface{}) error {
	return &InvalidPasswordError{fmt.Sprintf(format, args...)}
}

func IsInvalidPasswordError(err error) bool {
	_, ok := err.(*InvalidPasswordError)
	return ok
}

// InvalidApiKeyError reports an API key mismatch.
type InvalidApiKeyError struct {
	msg string
}

func (e *InvalidApiKeyError) Error() string { return e.msg }

func NewInvalidApiKeyError(format string, args ...interface{}) error {
	return &InvalidApiKeyError{fmt.Sprintf(format, args...)}
}

func IsInvalidApiKeyError(err error) bool {
	_, ok := err.(*InvalidApiKeyError)
	return ok
}

// InvalidTokenError reports a token value no row matches, or a token
// that failed an authorization check.
type InvalidTokenError struct {
	msg string
}

func (e *InvalidTokenError) Error() string { return e.msg }

func NewInvalidTokenError(format string, args ...interface{}) error {
	return &InvalidTokenError{fmt.Sprintf(format, args...)}
}

func IsInvalidTokenError(err error) bool {
	_, ok := err.(*InvalidTokenError)
	return ok
}

// RevokedTokenError reports a token whose revoked flag is set.
type RevokedTokenError struct {
	msg string
}

func (e *RevokedTokenError) Error() string { return e.msg }

func NewRevokedTokenError(format string, args ...interface{}) error {
	return &RevokedTokenError{fmt.Sprintf(format, args...)}
}

func IsRevokedTokenError(err error) bool {
	_, ok := err.(*RevokedTokenError)
	return ok
}

// ExpiredTokenError reports a token whose expiry lies in the past.
type ExpiredTokenError struct {
	msg string
}

func (e *ExpiredTokenError) Error() string { return e.msg }

func NewExpiredTokenError(format string, args ...interface{}) error {
	return &ExpiredTokenError{fmt.Sprintf(format, args...)}
}

func IsExpiredTokenError(err error) bool {
	_, ok := err.(*ExpiredTokenError)
	return ok
}

// ConflictError reports an attempt to create an entity that collides
// with an existing one, such as a user creating themselves.
type ConflictError struct {
	msg string
}

func (e *ConflictError) Error() string { return e.msg }

func NewConflictError(format string, args ...interface{}) error {
	return &ConflictError{fmt.Sprintf(format, args...)}
}

func IsConflictError(err error) bool {
	_, ok := err.(*ConflictError)
	return ok
}

// statusFor maps a domain error onto the HTTP status the Keystone v2
// surface responds with. The mapping is a pure function of the error
// type.
func statusFor(err error) int {
	switch {
	case IsUserError(err):
		return http.StatusBadRequest
	case IsInvalidPasswordError(err), IsInvalidApiKeyError(err),
		IsInvalidTokenError(err), IsRevokedTokenError(err),
		IsExpiredTokenError(err):
		return http.StatusUnauthorized
	case IsTenantError(err), IsDisabledUserError(err):
		return http.StatusForbidden
	case IsUnknownUserError(err):
		return http.StatusNotFound
	case IsConflictError(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// faultNames holds the fault element name Openstack wraps error bodies
// in for each status code.
var faultNames = map[int]string{
	400: "badRequest",
	401: "unauthorized",
	403: "forbidden",
	404: "itemNotFound",
	405: "badMethod",
	409: "conflictingRequest",
	413: "overLimit",
	415: "badMediaType",
	429: "overLimit",
	500: "identityFault",
	501: "notImplemented",
	503: "serviceUnavailable",
}

func faultName(code int) string {
	name, ok := faultNames[code]
	if !ok {
		return "identityFault"
	}
	return name
}
