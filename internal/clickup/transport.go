// file: internal/clickup/transport.go
package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/taskdash/internal/cache"
	"github.com/dkoosis/taskdash/internal/logging"
	"github.com/dkoosis/taskdash/internal/ratelimit"
	"github.com/dkoosis/taskdash/internal/schema"
	"github.com/google/uuid"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 16 << 20

// RequestIDHeader carries a per-attempt id for log correlation.
const RequestIDHeader = "X-Request-ID"

// request describes one logical API call.
type request struct {
	// op names the public operation for logs and metrics.
	op       string
	method   string
	segments []string
	query    url.Values
	body     any
	// schema, when set, is the payload definition a 2xx body must satisfy.
	schema string
	// cacheKey enables caching for GET requests; ttl must be set with it.
	cacheKey string
	ttl      time.Duration
	// refresh skips the cache lookup but still stores the fresh result.
	refresh bool
}

func (r request) path() string {
	return "/" + strings.Join(r.segments, "/")
}

func (r request) cacheable() bool {
	return r.cacheKey != "" && r.method == http.MethodGet
}

// noContent is the result type for calls whose response body is ignored.
type noContent struct{}

// do runs req through the limiter, cache and HTTP pipeline and decodes the
// response into T. Every failure leaving do is a *ConfigurationError or *RemoteError.
func do[T any](ctx context.Context, c *Client, req request) (T, error) {
	var zero T
	if err := c.checkConfig(); err != nil {
		return zero, err
	}
	if err := c.waitForBudget(ctx, req); err != nil {
		return zero, err
	}

	if req.cacheable() && !req.refresh {
		if v, ok := cache.Lookup[T](c.cache, req.cacheKey); ok {
			c.metrics.RecordCacheLookup(true)
			c.logger.Debug("Cache hit.", "op", req.op, "key", req.cacheKey)
			return v, nil
		}
		c.metrics.RecordCacheLookup(false)
	}

	raw, status, err := c.roundTrip(ctx, req)
	if err != nil {
		return zero, err
	}

	out, err := decode[T](ctx, c, req, raw, status)
	if err != nil {
		return zero, err
	}

	if req.cacheable() {
		c.cache.Set(req.cacheKey, out, req.ttl)
	}
	return out, nil
}

func (c *Client) waitForBudget(ctx context.Context, req request) error {
	if err := c.limiter.Wait(ctx, ratelimit.DefaultIdentifier); err != nil {
		return NewRemoteError(ErrRemoteRequest,
			fmt.Sprintf("%s: canceled while waiting for rate limit budget", req.op), 0, err)
	}
	return nil
}

// roundTrip sends req until the remote stops answering 429. Each 429 costs one
// cooldown and a fresh limiter slot; there is no retry cap.
func (c *Client) roundTrip(ctx context.Context, req request) ([]byte, int, error) {
	var payload []byte
	if req.body != nil {
		var err error
		payload, err = json.Marshal(req.body)
		if err != nil {
			return nil, 0, NewRemoteError(ErrRemoteRequest,
				fmt.Sprintf("%s: failed to encode request body", req.op), 0, err)
		}
	}

	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			if err := c.waitForBudget(ctx, req); err != nil {
				return nil, 0, err
			}
		}
		raw, status, err := c.attempt(ctx, req, payload)
		if !errors.Is(err, errRateLimited) {
			return raw, status, err
		}

		c.metrics.RecordCooldown()
		c.logger.Warn("Rate limited by ClickUp, cooling down before retry.",
			"op", req.op, "attempt", attempt, "cooldown", c.cooldown)
		if err := c.sleep(ctx, c.cooldown); err != nil {
			return nil, http.StatusTooManyRequests, NewRemoteError(ErrRemoteRequest,
				fmt.Sprintf("%s: canceled during rate limit cooldown", req.op), http.StatusTooManyRequests, err)
		}
	}
}

// attempt performs a single HTTP exchange. A 429 is reported as errRateLimited.
func (c *Client) attempt(ctx context.Context, req request, payload []byte) ([]byte, int, error) {
	requestID := uuid.NewString()
	logger := c.logger.WithContext(logging.ContextWithRequestID(ctx, requestID))

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	endpoint := c.endpoint(req)
	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return nil, 0, NewRemoteError(ErrRemoteRequest,
			fmt.Sprintf("%s: failed to create request", req.op), 0, err)
	}
	httpReq.Header.Set("Authorization", c.cfg.APIToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)

	logger.Debug("Sending ClickUp request.", "op", req.op, "method", req.method, "path", req.path())
	start := c.now()
	resp, err := c.httpClient.Do(httpReq)
	latency := c.now().Sub(start)
	if err != nil {
		rerr := NewRemoteError(ErrRemoteRequest, transportMessage(err), 0, err)
		c.recordFailure(ctx, req, latency, rerr)
		if !isContextError(err) {
			logger.Error("ClickUp request failed.", "op", req.op, "error", err)
		}
		return nil, 0, rerr
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.logRateLimitHeaders(logger, resp.Header)

	status := resp.StatusCode
	switch {
	case status == http.StatusTooManyRequests:
		c.metrics.RecordAPICall(req.op, latency, errRateLimited)
		c.health.observe(ctx, status, errRateLimited)
		return nil, status, errRateLimited
	case status < 200 || status > 299:
		rerr := c.statusError(ctx, status, raw)
		c.recordFailure(ctx, req, latency, rerr)
		logger.Debug("ClickUp returned an error status.",
			"op", req.op, "status", status, "message", rerr.Message, "ecode", rerr.ECode)
		return nil, status, rerr
	case readErr != nil:
		rerr := NewRemoteError(ErrRemoteDecode, fmt.Sprintf("%s: failed to read response body", req.op), status, readErr)
		c.recordFailure(ctx, req, latency, rerr)
		return nil, status, rerr
	}

	c.metrics.RecordAPICall(req.op, latency, nil)
	c.health.observe(ctx, status, nil)
	logger.Debug("ClickUp request succeeded.", "op", req.op, "status", status, "latency", latency, "bytes", len(raw))
	return raw, status, nil
}

func (c *Client) endpoint(req request) string {
	escaped := make([]string, len(req.segments))
	for i, s := range req.segments {
		escaped[i] = url.PathEscape(s)
	}
	u := c.baseURL.JoinPath(escaped...)
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}
	return u.String()
}

func (c *Client) recordFailure(ctx context.Context, req request, latency time.Duration, rerr *RemoteError) {
	c.metrics.RecordAPICall(req.op, latency, rerr)
	c.metrics.RecordError(req.op, rerr.Message, rerr.StatusCode)
	c.health.observe(ctx, rerr.StatusCode, rerr)
}

// statusError builds the error for a non-2xx response. The message prefers the
// remote's "err" field, then "error", then the HTTP status.
func (c *Client) statusError(ctx context.Context, status int, raw []byte) *RemoteError {
	message := fmt.Sprintf("Request failed with status code %d", status)
	var body errorResponse
	if len(raw) > 0 && c.validator.Validate(ctx, schema.ErrorBody, raw) == nil {
		if err := json.Unmarshal(raw, &body); err == nil {
			switch {
			case body.Err != "":
				message = body.Err
			case body.Error != "":
				message = body.Error
			}
		}
	}
	rerr := NewRemoteError(ErrRemoteStatus, message, status, nil)
	rerr.Response = raw
	rerr.ECode = body.ECode
	rerr.WithContext("status", http.StatusText(status))
	return rerr
}

// transportMessage returns the underlying cause of a client.Do failure without
// the method and URL prefix.
func transportMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}

func (c *Client) logRateLimitHeaders(logger logging.Logger, h http.Header) {
	if h.Get("X-RateLimit-Remaining") != "0" {
		return
	}
	fields := []any{"limit", h.Get("X-RateLimit-Limit")}
	if reset, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		fields = append(fields, "resetAt", time.Unix(reset, 0).UTC())
	}
	logger.Warn("ClickUp reports the request budget is exhausted.", fields...)
}

// decode validates raw against req.schema and unmarshals it into T.
func decode[T any](ctx context.Context, c *Client, req request, raw []byte, status int) (T, error) {
	var out T
	if _, ignore := any(out).(noContent); ignore {
		return out, nil
	}
	if req.schema != "" {
		if err := c.validator.Validate(ctx, req.schema, raw); err != nil {
			rerr := NewRemoteError(ErrRemoteInvalidResponse,
				fmt.Sprintf("%s: unexpected response from ClickUp", req.op), status, err)
			rerr.Response = raw
			c.metrics.RecordError(req.op, rerr.Message, status)
			return out, rerr
		}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		rerr := NewRemoteError(ErrRemoteDecode,
			fmt.Sprintf("%s: failed to decode response", req.op), status, err)
		rerr.Response = raw
		c.metrics.RecordError(req.op, rerr.Message, status)
		return out, rerr
	}
	return out, nil
}
