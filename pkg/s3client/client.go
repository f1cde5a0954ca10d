// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package s3client talks to an S3-compatible server on behalf of the
// notification tooling. It signs raw requests for the listen endpoint and
// wraps the AWS SDK for the bucket notification configuration calls.
package s3client

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/LeeDigitalWorks/zapnotify/pkg/events"
	"github.com/LeeDigitalWorks/zapnotify/pkg/logger"
	"github.com/LeeDigitalWorks/zapnotify/pkg/s3api/s3consts"
	"github.com/LeeDigitalWorks/zapnotify/pkg/s3api/s3err"
	"github.com/LeeDigitalWorks/zapnotify/pkg/s3api/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/sha256-simd"
	"github.com/rs/zerolog"
)

// ErrNoEndpoint is returned by New when Config.Endpoint is empty or invalid.
var ErrNoEndpoint = errors.New("s3client: endpoint is required")

// Config holds configuration for connecting to an S3-compatible service.
type Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`

	// Timeout bounds configuration calls. Listen requests are long-lived
	// and never time out.
	Timeout time.Duration `mapstructure:"timeout"`
}

// Client is an events.Transport plus the bucket notification API.
type Client struct {
	endpoint  *url.URL
	region    string
	anonymous bool

	creds  aws.CredentialsProvider
	signer *v4.Signer
	api    *s3.Client

	// stream has no timeout so listen responses can stay open.
	stream aws.HTTPClient
	log    zerolog.Logger
}

var _ events.Transport = (*Client)(nil)

// New builds a Client. Without an access key requests are sent unsigned.
func New(ctx context.Context, cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoEndpoint, cfg.Endpoint)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	var creds aws.CredentialsProvider = aws.AnonymousCredentials{}
	anonymous := cfg.AccessKeyID == ""
	if !anonymous {
		creds = aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			cfg.SessionToken,
		))
	}

	region := cfg.Region
	if region == "" {
		region = s3consts.DefaultRegion
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(creds),
		config.WithHTTPClient(awshttp.NewBuildableClient().WithTimeout(cfg.Timeout)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	// Reuse the SDK client so CA bundle settings apply to listen requests.
	var stream aws.HTTPClient = &http.Client{}
	if bc, ok := awsCfg.HTTPClient.(*awshttp.BuildableClient); ok {
		stream = bc.WithTimeout(0)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(strings.TrimSuffix(u.String(), "/"))
		o.UsePathStyle = true
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	c := &Client{
		endpoint:  u,
		region:    cfg.Region,
		anonymous: anonymous,
		creds:     creds,
		signer:    v4.NewSigner(),
		api:       api,
		stream:    stream,
		log:       logger.Component("s3client"),
	}

	c.log.Debug().
		Str("endpoint", u.Redacted()).
		Str("region", region).
		Bool("anonymous", anonymous).
		Msg("created s3 client")

	return c, nil
}

// Region returns the configured region, which may be empty.
func (c *Client) Region() string {
	return c.region
}

// MakeRequest sends a signed bucket-level request and returns the body when
// the response status is one of expectedStatus. Other statuses are decoded
// into an s3err.Error.
func (c *Client) MakeRequest(ctx context.Context, req events.Request, payload []byte, expectedStatus []int, region string) (io.ReadCloser, error) {
	if region == "" {
		region = s3consts.DefaultRegion
	}

	u := *c.endpoint
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + req.Bucket
	u.RawPath = ""
	u.RawQuery = req.Query

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if err := c.sign(ctx, httpReq, payload, region); err != nil {
		return nil, err
	}

	resp, err := c.stream.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Bucket, err)
	}
	if !slices.Contains(expectedStatus, resp.StatusCode) {
		defer resp.Body.Close()
		return nil, s3err.FromResponse(resp)
	}
	return resp.Body, nil
}

func (c *Client) sign(ctx context.Context, req *http.Request, payload []byte, region string) error {
	sum := sha256.Sum256(payload)
	hash := hex.EncodeToString(sum[:])
	req.Header.Set(s3consts.XAmzContentSHA256, hash)

	if c.anonymous {
		return nil
	}
	creds, err := c.creds.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("retrieve credentials: %w", err)
	}
	if err := c.signer.SignHTTP(ctx, creds, req, hash, s3consts.SigningService, region, time.Now().UTC()); err != nil {
		return fmt.Errorf("sign request: %w", err)
	}
	return nil
}

// ListenBucketNotification validates bucket and returns a started poller.
// Register callbacks through opts so none of the first records are missed.
func (c *Client) ListenBucketNotification(bucket string, opts ...events.Option) (*events.Poller, error) {
	if err := utils.ValidateBucketName(bucket); err != nil {
		return nil, err
	}
	p := events.NewPoller(c, bucket, opts...)
	p.Start()
	return p, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	if ic, ok := c.stream.(interface{ CloseIdleConnections() }); ok {
		ic.CloseIdleConnections()
	}
	return nil
}
