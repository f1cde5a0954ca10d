// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3consts

// DefaultRegion is used when a client has no region configured.
const DefaultRegion = "us-east-1"

// SigningService is the SigV4 service name for S3 requests.
const SigningService = "s3"

// EmptySHA256 is the hex SHA-256 of an empty payload.
const EmptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

const (
	// --- Core request / tracing ---
	XAmzDate      = "x-amz-date"
	XAmzRequestID = "x-amz-request-id"

	// --- Content / payload ---
	XAmzContentSHA256 = "x-amz-content-sha256"

	// --- Copy source ---
	XAmzCopySourceIfMatch           = "x-amz-copy-source-if-match"
	XAmzCopySourceIfNoneMatch       = "x-amz-copy-source-if-none-match"
	XAmzCopySourceIfModifiedSince   = "x-amz-copy-source-if-modified-since"
	XAmzCopySourceIfUnmodifiedSince = "x-amz-copy-source-if-unmodified-since"
)

// Listen query parameters.
const (
	QueryPrefix = "prefix"
	QuerySuffix = "suffix"
	QueryEvents = "events"
)
