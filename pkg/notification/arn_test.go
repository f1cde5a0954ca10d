// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildARN(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"arn:aws:sns:us-east-1:123456789012:mytopic",
		BuildARN("aws", "sns", "us-east-1", "123456789012", "mytopic"),
	)
	// Empty components are kept as empty fields.
	assert.Equal(t, "arn:minio:sqs::1:webhook", BuildARN("minio", "sqs", "", "1", "webhook"))
}

func TestParseARN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    ARN
		wantErr bool
	}{
		{
			name: "topic",
			in:   "arn:aws:sns:us-east-1:123456789012:mytopic",
			want: ARN{"aws", "sns", "us-east-1", "123456789012", "mytopic"},
		},
		{
			name: "resource with colon",
			in:   "arn:aws:lambda:us-west-2:1:function:thumbnail",
			want: ARN{"aws", "lambda", "us-west-2", "1", "function:thumbnail"},
		},
		{
			name: "empty region",
			in:   "arn:minio:sqs::1:webhook",
			want: ARN{"minio", "sqs", "", "1", "webhook"},
		},
		{name: "too few parts", in: "arn:aws:sns", wantErr: true},
		{name: "wrong scheme", in: "urn:aws:sns:r:a:x", wantErr: true},
		{name: "missing service", in: "arn:aws::r:a:x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseARN(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}
