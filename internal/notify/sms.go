package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
)

type smsRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

// HTTPSMSSender posts messages to an SMS provider's REST API. A circuit
// breaker stops calling the provider after consecutive failures.
type HTTPSMSSender struct {
	client  *resty.Client
	from    string
	breaker *gobreaker.CircuitBreaker[*resty.Response]
}

func NewHTTPSMSSender(baseURL, apiKey, from string, timeout time.Duration) *HTTPSMSSender {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")

	breaker := gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
		Name:        "sms-provider",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &HTTPSMSSender{client: client, from: from, breaker: breaker}
}

func (s *HTTPSMSSender) SendSMS(ctx context.Context, to, body string) error {
	_, err := s.breaker.Execute(func() (*resty.Response, error) {
		resp, err := s.client.R().
			SetContext(ctx).
			SetBody(smsRequest{From: s.from, To: to, Body: body}).
			Post("/messages")
		if err != nil {
			return nil, fmt.Errorf("sms request failed: %w", err)
		}
		if resp.IsError() {
			return resp, fmt.Errorf("sms provider returned %d: %s", resp.StatusCode(), resp.String())
		}
		return resp, nil
	})
	return err
}
