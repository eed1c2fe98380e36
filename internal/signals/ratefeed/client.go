// Package ratefeed polls an external competitor-rate feed and lands the
// observations in the competitor_rates table for the signal provider.
package ratefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Rate is one competitor price observation from the feed
type Rate struct {
	SupplierRef string  `json:"supplier_ref"`
	StayDate    string  `json:"stay_date"`
	Competitor  string  `json:"competitor"`
	Price       float64 `json:"price"`
	Available   bool    `json:"available"`
}

type ratesResponse struct {
	Rates []Rate `json:"rates"`
}

// Client is an HTTP client for the competitor rate feed. Calls go through
// a circuit breaker so a flapping feed cannot slow down pricing, and a
// rate limiter keeps us inside the feed's request quota.
type Client struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient creates a rate feed client
func NewClient(baseURL string, log zerolog.Logger) *Client {
	settings := gobreaker.Settings{
		Name:     "ratefeed",
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}

	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
		log:     log.With().Str("client", "ratefeed").Logger(),
	}
}

// FetchRates returns competitor rates for a supplier reference and stay window
func (c *Client) FetchRates(ctx context.Context, supplierRef string, checkIn, checkOut time.Time) ([]Rate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, supplierRef, checkIn, checkOut)
	})
	if err != nil {
		return nil, err
	}

	return result.([]Rate), nil
}

func (c *Client) fetch(ctx context.Context, supplierRef string, checkIn, checkOut time.Time) ([]Rate, error) {
	q := url.Values{}
	q.Set("ref", supplierRef)
	q.Set("from", checkIn.Format("2006-01-02"))
	q.Set("to", checkOut.Format("2006-01-02"))

	reqURL := fmt.Sprintf("%s/v1/rates?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rates request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rates request: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode rates response: %w", err)
	}

	c.log.Debug().
		Str("ref", supplierRef).
		Int("rates", len(parsed.Rates)).
		Msg("Fetched competitor rates")

	return parsed.Rates, nil
}
