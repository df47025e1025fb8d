// Package config loads runtime configuration for the filepicker CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config, then FILEPICKER_*
//     environment variables (see parseJson).
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// The result is checked with (*Config).Validate.
//
// # JSON schema
//
// Durations are strings accepted by time.ParseDuration. The s3_endpoint below
// suits the presign adapter against a local sink; the minio adapter needs an
// endpoint without a path:
//
//	{
//	  "adapter": "form",
//	  "auto_upload": true,
//	  "endpoint": "http://127.0.0.1:8080/upload",
//	  "grpc_target": "127.0.0.1:50051",
//	  "token_secret": "secretKey",
//	  "token_ttl": "1m",
//	  "s3_endpoint": "http://127.0.0.1:8080/objects",
//	  "s3_bucket": "uploads",
//	  "presign_ttl": "15m"
//	}
package config
