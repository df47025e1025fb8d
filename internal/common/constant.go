// Package common contains shared constants and sentinel errors used across
// filepicker components.
package common

const (
	// AuthorizationHeaderName carries the bearer upload token on form uploads.
	AuthorizationHeaderName = "Authorization"

	// FingerprintHeaderName carries the hex BLAKE2b-256 digest of the payload.
	FingerprintHeaderName = "X-Content-Blake2b"

	// AccessTokenMetadataKey is the gRPC metadata key used for the upload token.
	AccessTokenMetadataKey = "access_token"
)
