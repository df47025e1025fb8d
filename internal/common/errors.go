// Package common defines shared constants and sentinel errors used across
// client and server layers of filepicker. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Upload lifecycle errors.
	ErrMissingAdapter = errors.New("no adapter was provided")
	ErrUploadFailed   = errors.New("upload failed")
	ErrStreamClosed   = errors.New("upload stream closed without a result")
	ErrItemRemoved    = errors.New("item removed")

	// Sink errors.
	ErrorNotFound          = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrFingerprintMismatch = errors.New("fingerprint mismatch")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
)
