// file: internal/clickup/client.go
package clickup

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/taskdash/internal/cache"
	"github.com/dkoosis/taskdash/internal/logging"
	"github.com/dkoosis/taskdash/internal/metrics"
	"github.com/dkoosis/taskdash/internal/ratelimit"
	"github.com/dkoosis/taskdash/internal/schema"
)

// Defaults for the remote API.
const (
	DefaultBaseURL  = "https://api.clickup.com/api/v2"
	DefaultTimeout  = 30 * time.Second
	DefaultCooldown = 60 * time.Second
)

// Cache lifetimes per resource.
const (
	projectsTTL = 2 * time.Minute
	projectTTL  = 5 * time.Minute
	notesTTL    = 5 * time.Minute
	timeTTL     = 5 * time.Minute
	usersTTL    = time.Hour
	userTTL     = time.Hour
	listTTL     = time.Hour
)

// Config holds the connection settings.
type Config struct {
	APIToken string
	ListID   string
	TeamID   string
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// Timeout bounds each HTTP attempt. Defaults to DefaultTimeout.
	Timeout time.Duration
	// MaxRequests and Window configure the local rate limiter (90 per 60s by default).
	MaxRequests int
	Window      time.Duration
}

// missing returns the names of unset required settings.
func (c Config) missing() []string {
	var out []string
	if strings.TrimSpace(c.APIToken) == "" {
		out = append(out, "api token")
	}
	if strings.TrimSpace(c.ListID) == "" {
		out = append(out, "list id")
	}
	if strings.TrimSpace(c.TeamID) == "" {
		out = append(out, "team id")
	}
	return out
}

// Sleeper pauses for d or until ctx is done.
type Sleeper = ratelimit.Sleeper

// Client talks to the ClickUp API. It is safe for concurrent use.
type Client struct {
	cfg        Config
	baseURL    *url.URL
	httpClient *http.Client
	logger     logging.Logger
	limiter    *ratelimit.Limiter
	cache      *cache.Manager
	validator  schema.ValidatorInterface
	metrics    *metrics.Collector
	health     *healthTracker
	sleep      Sleeper
	cooldown   time.Duration
	now        func() time.Time
	cfgErr     *ConfigurationError
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSleeper replaces the 429 cooldown wait, mainly for tests.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) {
		if s != nil {
			c.sleep = s
		}
	}
}

// WithCooldown overrides the pause after a 429 response.
func WithCooldown(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.cooldown = d
		}
	}
}

// WithRateLimiter injects a limiter, e.g. to share a budget across clients using one token.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) {
		if l != nil {
			c.limiter = l
		}
	}
}

// WithCache injects the response cache.
func WithCache(m *cache.Manager) Option {
	return func(c *Client) {
		if m != nil {
			c.cache = m
		}
	}
}

// WithValidator replaces the payload validator.
func WithValidator(v schema.ValidatorInterface) Option {
	return func(c *Client) {
		if v != nil {
			c.validator = v
		}
	}
}

// WithMetrics injects the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithClock replaces time.Now for health timestamps and latency, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates a client. Missing credentials do not fail construction;
// every call then returns a *ConfigurationError without touching the network.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		if err == nil {
			err = errors.Newf("base URL %q must be absolute", cfg.BaseURL)
		}
		return nil, &ConfigurationError{BaseError: BaseError{
			Code:    ErrConfigInvalid,
			Message: "invalid ClickUp base URL",
			Cause:   errors.WithStack(err),
		}}
	}

	c := &Client{
		cfg:        cfg,
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.GetLogger("clickup_client"),
		sleep:      ratelimit.Sleep,
		cooldown:   DefaultCooldown,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.metrics == nil {
		c.metrics = metrics.NewCollector(metrics.DefaultErrorBufferSize)
	}
	if c.limiter == nil {
		c.limiter = ratelimit.New(cfg.MaxRequests, cfg.Window,
			ratelimit.WithLogger(c.logger),
			ratelimit.WithObserver(func(_ string, d time.Duration) { c.metrics.RecordLimiterWait(d) }))
	}
	if c.cache == nil {
		c.cache = cache.New()
	}
	if c.validator == nil {
		c.validator = schema.MustNewValidator(c.logger)
	}
	c.health = newHealthTracker(c.logger, c.now)

	if missing := cfg.missing(); len(missing) > 0 {
		c.cfgErr = NewConfigurationError(missing...)
		c.logger.Warn("ClickUp client created without full configuration.", "missing", missing)
	}
	return c, nil
}

// checkConfig fails fast when required settings are missing.
func (c *Client) checkConfig() error {
	if c.cfgErr != nil {
		return c.cfgErr
	}
	return nil
}

// Configured reports whether the token, list id and team id are all set.
func (c *Client) Configured() bool { return c.cfgErr == nil }

// ListID returns the configured list id.
func (c *Client) ListID() string { return c.cfg.ListID }

// TeamID returns the configured team id.
func (c *Client) TeamID() string { return c.cfg.TeamID }

// Health returns the connection state derived from recent requests.
func (c *Client) Health() Health { return c.health.snapshot() }

// Metrics returns a snapshot of request statistics.
func (c *Client) Metrics() metrics.ClientMetrics { return c.metrics.Snapshot() }

// CacheStats returns the response cache counters.
func (c *Client) CacheStats() cache.Stats { return c.cache.Stats() }

// InvalidateCache removes entries matching pattern, or every entry when pattern is empty.
func (c *Client) InvalidateCache(pattern string) {
	if pattern == "" {
		c.cache.Clear()
		c.logger.Debug("Cache cleared.")
		return
	}
	n := c.cache.InvalidatePattern(pattern)
	c.logger.Debug("Cache entries invalidated.", "pattern", pattern, "removed", n)
}

// invalidateTask drops everything cached about a task and every project listing.
func (c *Client) invalidateTask(taskID string) {
	c.cache.InvalidatePattern("project:" + taskID + "*")
	c.cache.InvalidatePattern("projects:*")
}

// Close drops cached data and idle connections. The client stays usable and
// starts cold.
func (c *Client) Close() error {
	c.cache.Clear()
	c.health.reset()
	c.httpClient.CloseIdleConnections()
	return nil
}
