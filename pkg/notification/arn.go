// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package notification

import (
	"fmt"
	"strings"
)

// BuildARN returns "arn:<partition>:<service>:<region>:<accountID>:<resource>".
// Components are not validated.
func BuildARN(partition, service, region, accountID, resource string) string {
	return "arn:" + partition + ":" + service + ":" + region + ":" + accountID + ":" + resource
}

// ARN is a parsed resource name.
type ARN struct {
	Partition string
	Service   string
	Region    string
	AccountID string
	Resource  string
}

func (a ARN) String() string {
	return BuildARN(a.Partition, a.Service, a.Region, a.AccountID, a.Resource)
}

// ParseARN splits s into its components. The resource may itself contain ':'.
func ParseARN(s string) (ARN, error) {
	parts := strings.SplitN(s, ":", 6)
	if len(parts) != 6 || parts[0] != "arn" {
		return ARN{}, fmt.Errorf("invalid arn %q: expected arn:partition:service:region:account:resource", s)
	}
	if parts[1] == "" || parts[2] == "" {
		return ARN{}, fmt.Errorf("invalid arn %q: partition and service are required", s)
	}
	return ARN{
		Partition: parts[1],
		Service:   parts[2],
		Region:    parts[3],
		AccountID: parts[4],
		Resource:  parts[5],
	}, nil
}
