// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3client

import (
	"errors"
	"net/http"
	"time"

	"github.com/LeeDigitalWorks/zapnotify/pkg/s3api/s3consts"
)

// ErrInvalidDate is returned when a copy condition is given a zero time.
var ErrInvalidDate = errors.New("s3client: invalid date")

// CopyConditions is the set of x-amz-copy-source-if-* preconditions sent
// with a server-side copy.
type CopyConditions struct {
	modified   time.Time
	unmodified time.Time
	matchETag  string
	exceptETag string
}

// SetModified copies only if the source changed after t.
func (c *CopyConditions) SetModified(t time.Time) error {
	if t.IsZero() {
		return ErrInvalidDate
	}
	c.modified = t
	return nil
}

// SetUnmodified copies only if the source is unchanged since t.
func (c *CopyConditions) SetUnmodified(t time.Time) error {
	if t.IsZero() {
		return ErrInvalidDate
	}
	c.unmodified = t
	return nil
}

// SetMatchETag copies only if the source ETag equals etag.
func (c *CopyConditions) SetMatchETag(etag string) {
	c.matchETag = etag
}

// SetMatchETagExcept copies only if the source ETag differs from etag.
func (c *CopyConditions) SetMatchETagExcept(etag string) {
	c.exceptETag = etag
}

// Headers renders the set conditions as request headers.
func (c *CopyConditions) Headers() http.Header {
	h := http.Header{}
	if !c.modified.IsZero() {
		h.Set(s3consts.XAmzCopySourceIfModifiedSince, c.modified.UTC().Format(http.TimeFormat))
	}
	if !c.unmodified.IsZero() {
		h.Set(s3consts.XAmzCopySourceIfUnmodifiedSince, c.unmodified.UTC().Format(http.TimeFormat))
	}
	if c.matchETag != "" {
		h.Set(s3consts.XAmzCopySourceIfMatch, c.matchETag)
	}
	if c.exceptETag != "" {
		h.Set(s3consts.XAmzCopySourceIfNoneMatch, c.exceptETag)
	}
	return h
}
