// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"io"
)

// Request describes a bucket-level call. Query is already escaped.
type Request struct {
	Method string
	Bucket string
	Query  string
}

// Transport issues signed requests against the storage server.
//
// MakeRequest returns the response body when the status is one of
// expectedStatus. Any other outcome is returned as an error and the body,
// if any, is released by the transport.
type Transport interface {
	Region() string
	MakeRequest(ctx context.Context, req Request, payload []byte, expectedStatus []int, region string) (io.ReadCloser, error)
}
