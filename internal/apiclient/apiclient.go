// Package apiclient implements the synchronous, never-raising HTTP
// client the node uses to talk to the coordinator: bearer-token auth
// over TLS, with every transport/TLS/decode failure flattened into a
// uniform Response the caller can branch on by StatusCode alone.
package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Cloud-Harvest/CloudHarvestAgent/internal/metrics"
)

// Response is the homogeneous shape every request call returns,
// regardless of whether the request actually reached the coordinator.
type Response struct {
	ID         string
	StatusCode int
	Reason     string
	URL        string
	Response   any
}

// TLSConfig configures the transport's certificate posture.
type TLSConfig struct {
	// ClientCertFile/ClientKeyFile, if both set, present a client
	// certificate to the coordinator.
	ClientCertFile string
	ClientKeyFile  string
	// InsecureSkipVerify disables peer verification. Only meant for
	// local development against a self-signed coordinator.
	InsecureSkipVerify bool
}

// Client talks to the coordinator over HTTPS with bearer-token auth.
type Client struct {
	host   string
	port   int
	token  string
	http   *http.Client
	logger zerolog.Logger
}

// New builds a Client. A startup TLS misconfiguration (an unreadable
// client cert/key pair) is returned as an error, since it can only be
// fixed by changing the configuration, not by retrying requests.
func New(host string, port int, token string, tlsCfg TLSConfig, logger zerolog.Logger) (*Client, error) {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: tlsCfg.InsecureSkipVerify},
	}

	if tlsCfg.ClientCertFile != "" && tlsCfg.ClientKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(tlsCfg.ClientCertFile, tlsCfg.ClientKeyFile)
		if err != nil {
			return nil, fmt.Errorf("apiclient: failed to load client certificate: %w", err)
		}
		transport.TLSClientConfig.Certificates = []tls.Certificate{cert}
	}

	return &Client{
		host:   host,
		port:   port,
		token:  token,
		http:   &http.Client{Transport: transport, Timeout: 30 * time.Second},
		logger: logger,
	}, nil
}

// RequestOption customizes one call to Request. It returns a
// context.CancelFunc when it derives a new context, so Request can
// release it once the call completes; nil is a valid no-op return.
type RequestOption func(*http.Request) context.CancelFunc

// WithTimeout bounds a single request independently of the client's
// default timeout.
func WithTimeout(timeout time.Duration) RequestOption {
	return func(req *http.Request) context.CancelFunc {
		ctx, cancel := context.WithTimeout(req.Context(), timeout)
		*req = *req.WithContext(ctx)
		return cancel
	}
}

// Request never returns a transport-level error: every failure (DNS,
// TLS, timeout, decode) is flattened into Response{StatusCode: 500}.
func (c *Client) Request(ctx context.Context, method, endpoint string, body any, opts ...RequestOption) Response {
	requestID := uuid.New().String()
	url := fmt.Sprintf("https://%s:%d/%s", c.host, c.port, endpoint)

	c.logger.Debug().Str("request_id", requestID).Str("url", url).Msg("apiclient: request")

	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return c.fail(requestID, url, fmt.Sprintf("failed to encode request body: %v", err))
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return c.fail(requestID, url, fmt.Sprintf("failed to build request: %v", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	for _, opt := range opts {
		if cancel := opt(req); cancel != nil {
			defer cancel()
		}
	}

	timer := metrics.NewTimer()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().Str("request_id", requestID).Err(err).Msg("apiclient: request failed")
		timer.ObserveDurationVec(metrics.APIRequestDuration, method, "500")
		return c.fail(requestID, url, err.Error())
	}
	defer resp.Body.Close()
	timer.ObserveDurationVec(metrics.APIRequestDuration, method, strconv.Itoa(resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(requestID, url, fmt.Sprintf("failed to read response body: %v", err))
	}

	var decoded any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return c.fail(requestID, url, fmt.Sprintf("failed to decode response body: %v", err))
		}
	}

	return Response{
		ID:         requestID,
		StatusCode: resp.StatusCode,
		Reason:     http.StatusText(resp.StatusCode),
		URL:        url,
		Response:   decoded,
	}
}

func (c *Client) fail(requestID, url, reason string) Response {
	return Response{
		ID:         requestID,
		StatusCode: http.StatusInternalServerError,
		Reason:     "Internal Server Error",
		URL:        url,
		Response:   reason,
	}
}
