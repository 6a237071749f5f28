package auth

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

	"github.com/pusit-hanp/capstone-image-store/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const maxResponseBody = 1 << 20 // 1MB

var ErrUnavailable = errors.New("authentication service unavailable")

// Error is a sign-in rejection. Message is the backend's text, shown to the user verbatim.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Client forwards credentials to the external authentication endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[*domain.UserSnapshot]
	logger   *zap.Logger
}

func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[*domain.UserSnapshot](gobreaker.Settings{
		Name:        "auth",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// a rejected password is an answer, not an outage
		IsSuccessful: func(err error) bool {
			var authErr *Error
			return err == nil || (errors.As(err, &authErr) && authErr.Status < http.StatusInternalServerError)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	domain.UserSnapshot
	User *domain.UserSnapshot `json:"user"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// SignIn posts the credentials once and returns the signed-in profile. No retry is attempted.
func (c *Client) SignIn(ctx context.Context, creds Credentials) (*domain.UserSnapshot, error) {
	profile, err := c.breaker.Execute(func() (*domain.UserSnapshot, error) {
		return c.post(ctx, creds)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return profile, err
}

func (c *Client) post(ctx context.Context, creds Credentials) (*domain.UserSnapshot, error) {
	body, err := json.Marshal(signInRequest{Email: creds.Email, Password: creds.Password})
	if err != nil {
		return nil, fmt.Errorf("marshal sign-in request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("sign-in request failed", zap.String("endpoint", c.endpoint), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Status: resp.StatusCode, Message: rejectionMessage(resp.StatusCode, data)}
	}

	return decodeProfile(data, creds.Email)
}

func decodeProfile(data []byte, email string) (*domain.UserSnapshot, error) {
	var profile domain.UserSnapshot
	if len(bytes.TrimSpace(data)) > 0 {
		var parsed signInResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("decode sign-in response: %w", err)
		}
		profile = parsed.UserSnapshot
		if parsed.User != nil {
			profile = *parsed.User
		}
	}

	if profile.Email == "" {
		profile.Email = email
	}
	if profile.ID == "" {
		profile.ID = strings.ToLower(profile.Email)
	}
	return &profile, nil
}

func rejectionMessage(status int, data []byte) string {
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("sign-in failed with status %d", status)
}
