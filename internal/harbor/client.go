package harbor

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is used when neither --url nor HARBOR_URL is set.
const DefaultBaseURL = "http://localhost/api"

type Client struct {
	BaseURL *url.URL
	HTTP    *http.Client
}

type options struct {
	verbose bool
	// logger receives the per-request verbose lines so report output on stdout
	// stays clean and tests can capture logs.
	logger   logrus.FieldLogger
	token    string
	username string
	password string
	insecure bool
	timeout  time.Duration
}

type Option func(*options)

func WithVerbose(enabled bool, logger logrus.FieldLogger) Option {
	return func(o *options) {
		o.verbose = enabled
		o.logger = logger
	}
}

// WithToken authenticates every request with a bearer token.
func WithToken(token string) Option {
	return func(o *options) {
		o.token = strings.TrimSpace(token)
	}
}

// WithBasicAuth authenticates every request with a Harbor user or robot account.
// Ignored when a token is also configured.
func WithBasicAuth(username, password string) Option {
	return func(o *options) {
		o.username = username
		o.password = password
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(enabled bool) Option {
	return func(o *options) {
		o.insecure = enabled
	}
}

// WithTimeout bounds each individual request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// loggingRoundTripper wraps an underlying transport and emits one line per
// request and response (including latency) when verbose logging is enabled.
type loggingRoundTripper struct {
	base http.RoundTripper
	log  logrus.FieldLogger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.log.WithFields(logrus.Fields{
		"method": req.Method,
		"url":    req.URL.String(),
	}).Debug("harbor api request")
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		t.log.WithField("elapsed", dur).WithError(err).Debug("harbor api request failed")
	} else {
		t.log.WithFields(logrus.Fields{
			"status":  resp.StatusCode,
			"elapsed": dur,
		}).Debugf("harbor api response: %s", http.StatusText(resp.StatusCode))
	}
	return resp, err
}

type basicAuthRoundTripper struct {
	base     http.RoundTripper
	username string
	password string
}

func (t *basicAuthRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request.
	clone := req.Clone(req.Context())
	clone.SetBasicAuth(t.username, t.password)
	return t.base.RoundTrip(clone)
}

func NewClient(ctx context.Context, baseURL string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("harbor client: ctx is nil")
	}

	u, err := ParseBaseURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("harbor client: %w", err)
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.verbose && o.logger == nil {
		o.logger = logrus.StandardLogger()
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	if o.insecure {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via --insecure
	}

	var transport http.RoundTripper = base
	if o.verbose {
		transport = &loggingRoundTripper{base: transport, log: o.logger}
	}
	switch {
	case o.token != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	case o.username != "":
		transport = &basicAuthRoundTripper{base: transport, username: o.username, password: o.password}
	}

	return &Client{
		BaseURL: u,
		HTTP:    &http.Client{Transport: transport, Timeout: o.timeout},
	}, nil
}

// ParseBaseURL validates a Harbor API base URL such as https://harbor.example.com/api.
// A missing scheme defaults to https.
func ParseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("base URL is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", raw)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
