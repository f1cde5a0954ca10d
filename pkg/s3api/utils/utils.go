package utils

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrInvalidBucketName is wrapped by every ValidateBucketName failure.
var ErrInvalidBucketName = errors.New("invalid bucket name")

// Reserved prefixes and suffixes that S3 refuses for bucket names.
var (
	reservedPrefixes = []string{"xn--", "sthree-", "amzn-s3-demo-"}
	reservedSuffixes = []string{"-s3alias", "--ol-s3", ".mrap", "--x-s3", "--table-s3"}
)

func invalid(bucketName, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidBucketName, bucketName, reason)
}

// ValidateBucketName checks bucketName against the S3 general purpose bucket
// naming rules.
func ValidateBucketName(bucketName string) error {
	if strings.TrimSpace(bucketName) == "" {
		return invalid(bucketName, "name cannot be empty")
	}
	if len(bucketName) < 3 || len(bucketName) > 63 {
		return invalid(bucketName, "length must be between 3 and 63 characters")
	}
	if net.ParseIP(bucketName) != nil {
		return invalid(bucketName, "cannot be formatted as an IP address")
	}
	if strings.Contains(bucketName, "..") {
		return invalid(bucketName, "contains consecutive periods")
	}
	if first, last := bucketName[0], bucketName[len(bucketName)-1]; first == '.' || last == '.' || first == '-' || last == '-' {
		return invalid(bucketName, "cannot start or end with a period or hyphen")
	}
	for _, p := range reservedPrefixes {
		if strings.HasPrefix(bucketName, p) {
			return invalid(bucketName, "reserved prefix "+p)
		}
	}
	for _, s := range reservedSuffixes {
		if strings.HasSuffix(bucketName, s) {
			return invalid(bucketName, "reserved suffix "+s)
		}
	}
	for _, char := range bucketName {
		if (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9') || char == '-' || char == '.' {
			continue
		}
		return invalid(bucketName, fmt.Sprintf("invalid character %q", char))
	}
	return nil
}
