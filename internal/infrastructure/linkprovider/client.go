package linkprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/iho/gobank/internal/domain"
)

// Config configures the HTTP provider.
type Config struct {
	BaseURL  string
	ClientID string
	Secret   string
	Timeout  time.Duration
	Logger   zerolog.Logger

	// MaxElapsedTime bounds retries of a single call.
	MaxElapsedTime time.Duration
}

// HTTPProvider talks to an aggregator exposing link-token and
// public-token exchange endpoints. Calls go through a circuit breaker and
// transient failures are retried with exponential backoff.
type HTTPProvider struct {
	baseURL        string
	clientID       string
	secret         string
	client         *http.Client
	cb             *gobreaker.CircuitBreaker
	logger         zerolog.Logger
	maxElapsedTime time.Duration
}

// NewHTTPProvider creates an HTTPProvider.
func NewHTTPProvider(cfg Config) *HTTPProvider {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxElapsedTime == 0 {
		cfg.MaxElapsedTime = 5 * time.Second
	}

	p := &HTTPProvider{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		clientID:       cfg.ClientID,
		secret:         cfg.Secret,
		client:         &http.Client{Timeout: cfg.Timeout},
		logger:         cfg.Logger,
		maxElapsedTime: cfg.MaxElapsedTime,
	}

	p.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "link-provider",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Rejections of the caller's input say nothing about provider health.
			return err == nil || errors.Is(err, domain.ErrInvalidPublicToken)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.Logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return p
}

type linkTokenRequest struct {
	ClientID string `json:"client_id"`
	Secret   string `json:"secret"`
	User     struct {
		ClientUserID string `json:"client_user_id"`
	} `json:"user"`
}

type linkTokenResponse struct {
	LinkToken  string    `json:"link_token"`
	Expiration time.Time `json:"expiration"`
}

type exchangeRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	PublicToken string `json:"public_token"`
}

type exchangeResponse struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}

type errorResponse struct {
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// CreateLinkToken implements usecase.LinkProvider.
func (p *HTTPProvider) CreateLinkToken(ctx context.Context, userID string) (string, time.Time, error) {
	req := linkTokenRequest{ClientID: p.clientID, Secret: p.secret}
	req.User.ClientUserID = userID

	var resp linkTokenResponse
	if err := p.call(ctx, "/link/token/create", req, &resp); err != nil {
		return "", time.Time{}, err
	}
	if resp.LinkToken == "" {
		return "", time.Time{}, errors.New("empty link token in response")
	}
	return resp.LinkToken, resp.Expiration, nil
}

// ExchangePublicToken implements usecase.LinkProvider.
func (p *HTTPProvider) ExchangePublicToken(ctx context.Context, publicToken string) (string, string, error) {
	req := exchangeRequest{ClientID: p.clientID, Secret: p.secret, PublicToken: publicToken}

	var resp exchangeResponse
	if err := p.call(ctx, "/item/public_token/exchange", req, &resp); err != nil {
		return "", "", err
	}
	if resp.AccessToken == "" || resp.ItemID == "" {
		return "", "", errors.New("incomplete exchange response")
	}
	return resp.AccessToken, resp.ItemID, nil
}

func (p *HTTPProvider) call(ctx context.Context, path string, in, out any) error {
	_, err := p.cb.Execute(func() (any, error) {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 100 * time.Millisecond
		b.MaxElapsedTime = p.maxElapsedTime

		attempt := 0
		return nil, backoff.Retry(func() error {
			attempt++
			err := p.post(ctx, path, in, out)
			if err == nil {
				return nil
			}

			var te *transientError
			if !errors.As(err, &te) {
				return backoff.Permanent(err)
			}

			p.logger.Warn().
				Err(err).
				Str("path", path).
				Int("attempt", attempt).
				Msg("link provider call failed, retrying")
			return err
		}, backoff.WithContext(b, ctx))
	})
	return err
}

// transientError marks failures worth retrying: transport errors, 429 and 5xx.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func (p *HTTPProvider) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return &transientError{err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &transientError{err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &transientError{err: fmt.Errorf("link provider returned %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		var e errorResponse
		_ = json.Unmarshal(data, &e)
		if e.ErrorCode == "INVALID_PUBLIC_TOKEN" {
			return domain.ErrInvalidPublicToken
		}
		return fmt.Errorf("link provider returned %d: %s %s", resp.StatusCode, e.ErrorCode, e.ErrorMessage)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode link provider response: %w", err)
	}
	return nil
}
