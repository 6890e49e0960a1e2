// Package gateway provides a client for the IRIS API gateway
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/iris/internal/common"
	"github.com/bobmcallan/iris/internal/models"
)

const (
	DefaultBaseURL   = "http://localhost:8080"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements the GatewayClient interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new gateway client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-2xx gateway response
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// IsConflict reports whether err is a gateway 409 (e.g. duplicate email).
func IsConflict(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusConflict
}

// do performs a rate-limited request and decodes a JSON response into result.
// result may be nil when the response body is not needed.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("method", method).Str("url", path).Msg("Gateway request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    serverMessage(raw),
			Endpoint:   path,
		}
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// serverMessage extracts the server-supplied error message from a response
// body, falling back to the raw body.
func serverMessage(raw []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &e); err == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return string(raw)
}

type authResponse struct {
	UserID    string `json:"user_id"`
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	KYCStatus string `json:"kyc_status"`
	Message   string `json:"message"`
}

func (r *authResponse) toUser() *models.User {
	status := r.KYCStatus
	if status == "" {
		status = models.KYCPending
	}
	return &models.User{
		UserID:    r.UserID,
		AccountID: r.AccountID,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		KYCStatus: status,
		CreatedAt: time.Now(),
	}
}

// Login authenticates with email/password
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var resp authResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return resp.toUser(), nil
}

// Signup registers a new user. A 409 surfaces as *APIError.
func (c *Client) Signup(ctx context.Context, firstName, lastName, email, password string) (*models.User, error) {
	body := map[string]string{
		"first_name": firstName,
		"last_name":  lastName,
		"email":      email,
		"password":   password,
	}
	// Signup wraps the identity in a "user" envelope
	var resp struct {
		User authResponse `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/signup", body, &resp); err != nil {
		return nil, err
	}
	user := resp.User.toUser()
	if user.Email == "" {
		user.Email = email
	}
	if user.FirstName == "" {
		user.FirstName = firstName
	}
	if user.LastName == "" {
		user.LastName = lastName
	}
	return user, nil
}

// SaveOnboardingStep persists the wizard position. The acknowledgement body
// is ignored; callers treat failures as non-fatal.
func (c *Client) SaveOnboardingStep(ctx context.Context, userID string, step int, data map[string]string) error {
	body := map[string]interface{}{
		"user_id": userID,
		"step":    step,
		"data":    data,
	}
	return c.do(ctx, http.MethodPost, "/auth/onboarding/step", body, nil)
}

// SubmitOnboarding posts the full accumulated KYC application.
func (c *Client) SubmitOnboarding(ctx context.Context, app *models.OnboardingApplication) error {
	return c.do(ctx, http.MethodPost, "/auth/onboarding", app, nil)
}

// GetPortfolio retrieves the aggregated portfolio snapshot for a user
func (c *Client) GetPortfolio(ctx context.Context, userID string) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	path := "/portfolio/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &portfolio); err != nil {
		return nil, err
	}
	return &portfolio, nil
}

// Chat sends a prompt to the advisory backend
func (c *Client) Chat(ctx context.Context, userID, prompt string) (string, error) {
	var resp struct {
		Response string `json:"response"`
	}
	body := map[string]string{"user_id": userID, "prompt": prompt}
	if err := c.do(ctx, http.MethodPost, "/chat", body, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// Respond implements interfaces.ChatResponder over the gateway chat endpoint.
func (c *Client) Respond(ctx context.Context, userID, prompt string) (string, error) {
	return c.Chat(ctx, userID, prompt)
}

// Health reports whether the gateway responds healthy
func (c *Client) Health(ctx context.Context) (bool, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return false, err
	}
	return resp.Status == "healthy", nil
}
