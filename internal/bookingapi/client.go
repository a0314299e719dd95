package bookingapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/kjellrichard/bygolf-portal/internal/dateutil"
	"github.com/kjellrichard/bygolf-portal/internal/metrics"
	"github.com/kjellrichard/bygolf-portal/internal/models"
)

// Client fetches bookings and bay options from the venue booking API.
type Client struct {
	baseURL    string
	venue      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client for the given API base URL and venue ref.
func NewClient(baseURL, venue string, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		venue:      venue,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		logger:     logger,
	}
}

// UseRedisCache configures optional Redis caching for bay-option metadata.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// SetRateLimit paces the per-day requests against the upstream API.
func (c *Client) SetRateLimit(perSecond float64, burst int) {
	if perSecond <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// SetTimeout overrides the per-request HTTP timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.httpClient.Timeout = d
}

// FetchBookings returns every booking whose interval intersects the
// window. The upstream expects single-day query windows, so the window
// is decomposed into one request per local calendar day, issued
// sequentially. Any failing day fails the whole call; a silently
// incomplete set would corrupt the day statistics.
func (c *Client) FetchBookings(ctx context.Context, bearer string, start, end time.Time) ([]models.Booking, error) {
	days := dateutil.DaysInRange(start, end)
	var bookings []models.Booking
	for _, day := range days {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{Err: err}
		}
		dayBookings, err := c.fetchDay(ctx, bearer, day)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", dateutil.DayKey(day), err)
		}
		bookings = append(bookings, dayBookings...)
	}
	c.logger.Debug().
		Int("days", len(days)).
		Int("bookings", len(bookings)).
		Msg("window fetched")
	return bookings, nil
}

// fetchDay issues one bookings request for a single local calendar day.
// The date strings are local wall-clock bounds; the upstream interprets
// them as-is, so they must never be UTC-normalized.
func (c *Client) fetchDay(ctx context.Context, bearer string, day time.Time) ([]models.Booking, error) {
	date := dateutil.DayKey(day)
	query := url.Values{}
	query.Set("start_gte", date+"T00:00:00")
	query.Set("start_lte", date+"T23:59:59")
	endpoint := fmt.Sprintf("%s/venue/%s/bookings/public-admin?%s",
		c.baseURL, url.PathEscape(c.venue), query.Encode())

	var bookings []models.Booking
	if err := c.doGet(ctx, bearer, endpoint, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// FetchBayOptions returns the resource-option metadata used to label
// bookings. The set is relatively static, so it is served from Redis
// when caching is configured.
func (c *Client) FetchBayOptions(ctx context.Context, bearer string) ([]models.BayOption, error) {
	cacheKey := fmt.Sprintf("bayoptions:%s", c.venue)
	var options []models.BayOption

	if c.readCache(ctx, cacheKey, &options) {
		return options, nil
	}

	endpoint := fmt.Sprintf("%s/venue/%s/bay-options", c.baseURL, url.PathEscape(c.venue))
	if err := c.doGet(ctx, bearer, endpoint, &options); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, options)
	return options, nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) doGet(ctx context.Context, bearer, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return &NetworkError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncFetch("network_error")
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		metrics.IncFetch("auth_error")
		return &AuthError{Status: resp.StatusCode}
	case resp.StatusCode >= 300:
		metrics.IncFetch("http_error")
		return &NetworkError{Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.IncFetch("malformed")
		return &MalformedResponseError{Err: err}
	}
	metrics.IncFetch("ok")
	return nil
}
