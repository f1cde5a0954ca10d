// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"sort"
	"strings"

	"github.com/LeeDigitalWorks/zapnotify/pkg/notification"
	"github.com/LeeDigitalWorks/zapnotify/pkg/s3api/s3consts"

	"github.com/aws/smithy-go/encoding/httpbinding"
)

// Escape percent-encodes a single query value.
type Escape func(string) string

// EscapeURI escapes everything outside the RFC 3986 unreserved set,
// including '/'.
func EscapeURI(s string) string {
	return httpbinding.EscapePath(s, true)
}

// BuildQuery assembles the listen query. Empty prefix and suffix are omitted
// and every event becomes its own events= component. Components are sorted so
// the result does not depend on the order options were applied.
func BuildQuery(prefix, suffix string, events []notification.EventType, escape Escape) string {
	if escape == nil {
		escape = EscapeURI
	}

	parts := make([]string, 0, len(events)+2)
	if prefix != "" {
		parts = append(parts, s3consts.QueryPrefix+"="+escape(prefix))
	}
	if suffix != "" {
		parts = append(parts, s3consts.QuerySuffix+"="+escape(suffix))
	}
	for _, e := range events {
		parts = append(parts, s3consts.QueryEvents+"="+escape(string(e)))
	}

	sort.Strings(parts)
	return strings.Join(parts, "&")
}
