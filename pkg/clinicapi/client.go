package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clinicdesk/admin-console/pkg/common/logger"
	"github.com/clinicdesk/admin-console/pkg/gateway/httpclient"
	"github.com/clinicdesk/admin-console/pkg/observability/metrics"
)

// Resource names on the clinic backend.
const (
	Doctors            = "doctors"
	Patients           = "patients"
	MedicalSpecialties = "medicalSpecialties"
	Examinations       = "examinations"
)

// EnvelopeKey is the wrapper field some collection responses use instead of a bare array.
const EnvelopeKey = "$values"

const maxMessageBytes = 2048

// Client talks to the clinic REST API rooted at a fixed base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = httpclient.New(10 * time.Second)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type call struct {
	op       string
	method   string
	resource string
	key      string
	body     interface{}
}

func (c *Client) endpoint(resource, key string) string {
	u := c.baseURL + "/" + resource
	if key != "" {
		u += "/" + url.PathEscape(key)
	}
	return u
}

// do performs one request and returns the raw body and status of a 2xx reply.
func (c *Client) do(ctx context.Context, in call) (data []byte, status int, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveBackendCall(in.resource, in.method, Class(err))
		entry := logger.Log.WithFields(map[string]interface{}{
			"method":     in.method,
			"resource":   in.resource,
			"key":        in.key,
			"status":     status,
			"request_id": httpclient.RequestID(ctx),
			"duration":   time.Since(start).Milliseconds(),
		})
		if err != nil {
			entry.WithError(err).Warn("clinic api call failed")
			return
		}
		entry.Debug("clinic api call")
	}()

	fail := func(kind error, cause error, msg string) error {
		return &Error{
			Op:       in.op,
			Resource: in.resource,
			Key:      in.key,
			Status:   status,
			Message:  msg,
			Kind:     kind,
			Cause:    cause,
		}
	}

	var reqBody io.Reader
	if in.body != nil {
		b, err := json.Marshal(in.body)
		if err != nil {
			return nil, status, fail(ErrRequestFailed, err, "")
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, in.method, c.endpoint(in.resource, in.key), reqBody)
	if err != nil {
		return nil, status, fail(ErrRequestFailed, err, "")
	}
	req.Header.Set("Accept", "application/json")
	if in.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, status, fail(ErrUnavailable, err, "")
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, status, fail(ErrUnavailable, err, "")
	}

	if status < 200 || status > 299 {
		return nil, status, fail(kindForStatus(status), nil, excerpt(data))
	}
	return data, status, nil
}

func excerpt(body []byte) string {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxMessageBytes {
		msg = msg[:maxMessageBytes] + "..."
	}
	return msg
}

// decodeCollection accepts a bare JSON array or an object holding the array
// under EnvelopeKey. Anything else is a malformed response.
func decodeCollection[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errEmptyBody
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		raw, ok := envelope[EnvelopeKey]
		if !ok {
			return nil, errMissingEnvelope
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '[' {
			return nil, errMissingEnvelope
		}
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		return items, nil
	default:
		return nil, errUnexpectedShape
	}
}
