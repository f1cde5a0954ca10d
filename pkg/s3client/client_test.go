// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3client

import (
	"context"
	"encoding/pem"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/LeeDigitalWorks/zapnotify/pkg/events"
	"github.com/LeeDigitalWorks/zapnotify/pkg/notification"
	"github.com/LeeDigitalWorks/zapnotify/pkg/s3api/s3consts"
	"github.com/LeeDigitalWorks/zapnotify/pkg/s3api/s3err"
	"github.com/LeeDigitalWorks/zapnotify/pkg/s3api/s3types"
	"github.com/LeeDigitalWorks/zapnotify/pkg/s3api/utils"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, withCreds bool) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{Endpoint: srv.URL, Region: "us-east-1"}
	if withCreds {
		cfg.AccessKeyID = "AKIDEXAMPLE"
		cfg.SecretAccessKey = "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY"
	}
	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewRequiresEndpoint(t *testing.T) {
	t.Parallel()

	for _, ep := range []string{"", "localhost:9000", "://bad"} {
		_, err := New(context.Background(), Config{Endpoint: ep})
		assert.ErrorIs(t, err, ErrNoEndpoint, ep)
	}
}

// A CA bundle in the environment requires an SDK client that accepts
// transport options.
func TestNewWithCABundle(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "{}\n")
	}))
	t.Cleanup(srv.Close)

	bundle := filepath.Join(t.TempDir(), "ca.pem")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	require.NoError(t, os.WriteFile(bundle, pemBytes, 0o600))
	t.Setenv("AWS_CA_BUNDLE", bundle)

	c, err := New(context.Background(), Config{
		Endpoint:        srv.URL,
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	// The listen stream trusts the bundle too.
	body, err := c.MakeRequest(context.Background(), events.Request{Method: http.MethodGet, Bucket: "photos"}, nil, []int{http.StatusOK}, "")
	require.NoError(t, err)
	require.NoError(t, body.Close())
}

func TestMakeRequestSigns(t *testing.T) {
	t.Parallel()

	seen := make(chan *http.Request, 1)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Clone(context.Background())
		_, _ = io.WriteString(w, "ok")
	}), true)

	req := events.Request{Method: http.MethodGet, Bucket: "photos", Query: "events=s3%3AObjectCreated%3A%2A&prefix=a%20b"}
	body, err := c.MakeRequest(context.Background(), req, nil, []int{http.StatusOK}, "")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "ok", string(data))

	got := <-seen
	assert.Equal(t, "/photos", got.URL.Path)
	assert.Equal(t, req.Query, got.URL.RawQuery)
	assert.Equal(t, s3consts.EmptySHA256, got.Header.Get(s3consts.XAmzContentSHA256))
	assert.NotEmpty(t, got.Header.Get(s3consts.XAmzDate))

	auth := got.Header.Get("Authorization")
	assert.True(t, strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/"), auth)
	assert.Contains(t, auth, "/us-east-1/s3/aws4_request")
	assert.Contains(t, auth, "x-amz-content-sha256")
}

func TestMakeRequestAnonymous(t *testing.T) {
	t.Parallel()

	var auth atomic.Value
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
	}), false)

	body, err := c.MakeRequest(context.Background(), events.Request{Method: http.MethodGet, Bucket: "photos"}, nil, []int{http.StatusOK}, "eu-west-1")
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "", auth.Load())
	assert.Equal(t, "us-east-1", c.Region())
}

func TestMakeRequestDecodesErrors(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `<Error><Code>NoSuchBucket</Code><Message>The specified bucket does not exist</Message>`+
			`<Resource>/photos</Resource><RequestId>REQ1</RequestId></Error>`)
	}), true)

	_, err := c.MakeRequest(context.Background(), events.Request{Method: http.MethodGet, Bucket: "photos"}, nil, []int{http.StatusOK}, "")
	require.Error(t, err)

	var s3e s3err.Error
	require.True(t, errors.As(err, &s3e))
	assert.Equal(t, s3err.CodeNoSuchBucket, s3e.Code)
	assert.Equal(t, "REQ1", s3e.RequestID)
	assert.Equal(t, http.StatusNotFound, s3e.HTTPCode)
}

func TestListenBucketNotificationStreams(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	var query atomic.Value
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.RawQuery)
		if calls.Add(1) > 1 {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `<Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`)
			return
		}
		flusher := w.(http.Flusher)
		_, _ = io.WriteString(w, `{"Records":[{"eventName":"s3:ObjectCreated:Put","s3":{"object":{"key":"a.jpg"}}}]}`+"\n")
		flusher.Flush()
		_, _ = io.WriteString(w, " \n")
		flusher.Flush()
		_, _ = io.WriteString(w, `{"Records":[{"eventName":"s3:ObjectCreated:Copy","s3":{"object":{"key":"b.jpg"}}}]}`+"\n")
		flusher.Flush()
	}), true)

	var mu sync.Mutex
	var keys []string
	var errs []error
	p, err := c.ListenBucketNotification("photos",
		events.WithSuffix(".jpg"),
		events.WithEvents([]notification.EventType{notification.ObjectCreatedAll}),
		events.OnNotification(func(r events.Record) {
			mu.Lock()
			defer mu.Unlock()
			keys = append(keys, r.ObjectKey())
		}),
		events.OnError(func(err error) {
			mu.Lock()
			defer mu.Unlock()
			errs = append(errs, err)
		}),
	)
	require.NoError(t, err)
	p.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, keys)
	require.Len(t, errs, 1)
	assert.True(t, s3err.IsCode(errs[0], s3err.CodeAccessDenied), errs[0])
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "events=s3%3AObjectCreated%3A%2A&suffix=.jpg", query.Load())
}

func TestListenBucketNotificationInvalidBucket(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.NotFoundHandler(), false)
	p, err := c.ListenBucketNotification("Bad_Bucket")
	assert.ErrorIs(t, err, utils.ErrInvalidBucketName)
	assert.Nil(t, p)
}

type notificationServer struct {
	mu   sync.Mutex
	last *s3types.NotificationConfiguration
	body string
}

func (s *notificationServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, ok := r.URL.Query()["notification"]; !ok || r.URL.Path != "/photos" {
		http.Error(w, fmt.Sprintf("unexpected %s %s", r.Method, r.URL), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		var doc s3types.NotificationConfiguration
		if err := xml.NewDecoder(r.Body).Decode(&doc); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.last = &doc
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, s.body)
	}
}

func TestSetBucketNotification(t *testing.T) {
	t.Parallel()

	srv := &notificationServer{}
	c := newTestClient(t, srv, true)

	cfg := &notification.Config{}
	q := notification.NewQueueConfig("arn:minio:sqs::1:webhook")
	q.SetID("q1")
	q.AddEvent(notification.ObjectCreatedAll)
	q.AddEvent(notification.ObjectRemovedDelete)
	q.AddFilterPrefix("photos/")
	q.AddFilterSuffix(".jpg")
	require.NoError(t, cfg.Add(q))
	require.NoError(t, cfg.Add(notification.NewCloudFunctionConfig("arn:minio:lambda::1:thumb")))

	require.NoError(t, c.SetBucketNotification(context.Background(), "photos", cfg))

	srv.mu.Lock()
	got := srv.last
	srv.mu.Unlock()
	require.NotNil(t, got)
	require.Len(t, got.QueueConfigurations, 1)
	qc := got.QueueConfigurations[0]
	assert.Equal(t, "q1", qc.ID)
	assert.Equal(t, "arn:minio:sqs::1:webhook", qc.QueueArn)
	assert.Equal(t, []string{"s3:ObjectCreated:*", "s3:ObjectRemoved:Delete"}, qc.Events)
	require.NotNil(t, qc.Filter)
	assert.Equal(t, []s3types.NotificationFilterRule{
		{Name: "prefix", Value: "photos/"},
		{Name: "suffix", Value: ".jpg"},
	}, qc.Filter.Key.FilterRules)
	require.Len(t, got.CloudFunctionConfigurations, 1)
	assert.Equal(t, "arn:minio:lambda::1:thumb", got.CloudFunctionConfigurations[0].CloudFunctionArn)

	require.NoError(t, c.RemoveAllBucketNotification(context.Background(), "photos"))
	srv.mu.Lock()
	assert.True(t, srv.last.Empty())
	srv.mu.Unlock()
}

func TestGetBucketNotification(t *testing.T) {
	t.Parallel()

	want := &notification.Config{}
	topic := notification.NewTopicConfig("arn:aws:sns:us-east-1:123456789012:mytopic")
	topic.SetID("t1")
	topic.AddEvent(notification.ObjectCreatedPut)
	topic.AddFilterSuffix(".png")
	require.NoError(t, want.Add(topic))
	require.NoError(t, want.Add(notification.NewQueueConfig("arn:minio:sqs::1:webhook")))

	data, err := xml.Marshal(want)
	require.NoError(t, err)

	srv := &notificationServer{body: xml.Header + string(data)}
	c := newTestClient(t, srv, true)

	got, err := c.GetBucketNotification(context.Background(), "photos")
	require.NoError(t, err)
	assert.Equal(t, want.Tags(), got.Tags())
	if diff := cmp.Diff(want.Wire(), got.Wire()); diff != "" {
		t.Errorf("notification mismatch (-want +got):\n%s", diff)
	}
}

func TestNotificationCallsValidateBucket(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.NotFoundHandler(), false)
	assert.ErrorIs(t, c.SetBucketNotification(context.Background(), "x", nil), utils.ErrInvalidBucketName)
	_, err := c.GetBucketNotification(context.Background(), "x")
	assert.ErrorIs(t, err, utils.ErrInvalidBucketName)
}
