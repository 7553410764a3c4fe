package httpclient

import (
	"context"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

type contextKey string

const requestIDKey contextKey = "request_id"

const RequestIDHeader = "X-Request-ID"

// WithRequestID stores the correlation id that outbound calls will carry.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the correlation id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

type Option func(*options)

type options struct {
	credentials *clientcredentials.Config
}

// WithClientCredentials makes every outbound request carry a bearer token
// obtained through the OAuth2 client credentials grant.
func WithClientCredentials(cfg *clientcredentials.Config) Option {
	return func(o *options) {
		o.credentials = cfg
	}
}

// New creates an HTTP client tuned for outbound calls to the clinic backend.
func New(timeout time.Duration, opts ...Option) *http.Client {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var transport http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if o.credentials != nil {
		transport = &oauth2.Transport{
			Source: o.credentials.TokenSource(context.Background()),
			Base:   transport,
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: &correlationTransport{base: transport},
	}
}

// correlationTransport copies the request id from the context onto the wire.
type correlationTransport struct {
	base http.RoundTripper
}

func (t *correlationTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := RequestID(req.Context())
	if id == "" || req.Header.Get(RequestIDHeader) != "" {
		return t.base.RoundTrip(req)
	}
	out := req.Clone(req.Context())
	out.Header.Set(RequestIDHeader, id)
	return t.base.RoundTrip(out)
}
