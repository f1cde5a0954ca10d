package s3err

import (
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/LeeDigitalWorks/zapnotify/pkg/s3api/s3consts"
)

// Common S3 error codes returned by the listen and notification endpoints.
// See full list at: https://docs.aws.amazon.com/AmazonS3/latest/API/ErrorResponses.html#ErrorCodeList
const (
	CodeAccessDenied          = "AccessDenied"
	CodeNoSuchBucket          = "NoSuchBucket"
	CodeInvalidBucketName     = "InvalidBucketName"
	CodeInvalidArgument       = "InvalidArgument"
	CodeInvalidAccessKeyID    = "InvalidAccessKeyId"
	CodeSignatureDoesNotMatch = "SignatureDoesNotMatch"
	CodeRequestTimeTooSkewed  = "RequestTimeTooSkewed"
	CodeMalformedXML          = "MalformedXML"
	CodeNotImplemented        = "NotImplemented"
	CodeSlowDown              = "SlowDown"
	CodeInternalError         = "InternalError"
	CodeServiceUnavailable    = "ServiceUnavailable"
	CodeUnexpectedStatus      = "UnexpectedStatus"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 1 << 20

// Error represents the XML error response returned by an S3 server.
type Error struct {
	XMLName   xml.Name `xml:"Error"`
	Code      string   `xml:"Code"`
	Message   string   `xml:"Message"`
	Resource  string   `xml:"Resource"`
	RequestID string   `xml:"RequestId"`
	HTTPCode  int      `xml:"-"`
}

func (e Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Code)
	b.WriteString(": ")
	if e.Resource != "" {
		b.WriteString(e.Resource)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// FromResponse builds an Error from a response whose status was not accepted.
// The body is consumed but not closed. When the body is not an XML error
// document, Code is CodeUnexpectedStatus and Message is the status text.
func FromResponse(resp *http.Response) Error {
	e := Error{HTTPCode: resp.StatusCode}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(body) > 0 {
		if err := xml.Unmarshal(body, &e); err != nil {
			e = Error{HTTPCode: resp.StatusCode}
		}
	}
	if e.Code == "" {
		e.Code = CodeUnexpectedStatus
		e.Message = resp.Status
		if e.Message == "" {
			e.Message = http.StatusText(resp.StatusCode)
		}
	}
	if e.RequestID == "" {
		e.RequestID = resp.Header.Get(s3consts.XAmzRequestID)
	}
	if e.Resource == "" && resp.Request != nil && resp.Request.URL != nil {
		e.Resource = resp.Request.URL.Path
	}
	return e
}

// Code returns the S3 error code carried by err, or "" if err is not an Error.
func Code(err error) string {
	var e Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given S3 error code.
func IsCode(err error, code string) bool {
	return err != nil && Code(err) == code
}
