package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bobmcallan/iris/internal/app"
	"github.com/bobmcallan/iris/internal/common"
	"github.com/bobmcallan/iris/internal/models"
)

// --- Shared test doubles for the handler tests ---

type mockGatewayClient struct {
	login      func(ctx context.Context, email, password string) (*models.User, error)
	signup     func(ctx context.Context, firstName, lastName, email, password string) (*models.User, error)
	health     func(ctx context.Context) (bool, error)
	chatReply  string
	chatErr    error
	stepErr    error
	submitErr  error
	portfolio  *models.Portfolio
	portfolioE error
}

func (m *mockGatewayClient) Login(ctx context.Context, email, password string) (*models.User, error) {
	if m.login != nil {
		return m.login(ctx, email, password)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockGatewayClient) Signup(ctx context.Context, firstName, lastName, email, password string) (*models.User, error) {
	if m.signup != nil {
		return m.signup(ctx, firstName, lastName, email, password)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockGatewayClient) SaveOnboardingStep(ctx context.Context, userID string, step int, data map[string]string) error {
	return m.stepErr
}

func (m *mockGatewayClient) SubmitOnboarding(ctx context.Context, app *models.OnboardingApplication) error {
	return m.submitErr
}

func (m *mockGatewayClient) GetPortfolio(ctx context.Context, userID string) (*models.Portfolio, error) {
	return m.portfolio, m.portfolioE
}

func (m *mockGatewayClient) Chat(ctx context.Context, userID, prompt string) (string, error) {
	return m.chatReply, m.chatErr
}

func (m *mockGatewayClient) Respond(ctx context.Context, userID, prompt string) (string, error) {
	return m.Chat(ctx, userID, prompt)
}

func (m *mockGatewayClient) Health(ctx context.Context) (bool, error) {
	if m.health != nil {
		return m.health(ctx)
	}
	return true, nil
}

type mockSessionStore struct {
	users map[string]*models.User
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{users: make(map[string]*models.User)}
}

func (m *mockSessionStore) Get(ctx context.Context, userID string) (*models.User, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, fmt.Errorf("session '%s' not found", userID)
	}
	out := *u
	return &out, nil
}

func (m *mockSessionStore) Save(ctx context.Context, user *models.User) error {
	stored := *user
	m.users[user.UserID] = &stored
	return nil
}

func (m *mockSessionStore) Delete(ctx context.Context, userID string) error {
	delete(m.users, userID)
	return nil
}

func (m *mockSessionStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	for id := range m.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockSessionStore) Close() error { return nil }

type mockPortfolioService struct {
	getView  func(ctx context.Context, userID string) (*models.PortfolioView, error)
	refresh  func(ctx context.Context, userID string) (*models.PortfolioView, error)
	cards    []models.SummaryCard
	rows     []models.HoldingRow
	allocPNG []byte
	allocErr error
	perfPNG  []byte
	perfErr  error
}

func (m *mockPortfolioService) GetView(ctx context.Context, userID string) (*models.PortfolioView, error) {
	if m.getView != nil {
		return m.getView(ctx, userID)
	}
	return &models.PortfolioView{}, nil
}

func (m *mockPortfolioService) Refresh(ctx context.Context, userID string) (*models.PortfolioView, error) {
	if m.refresh != nil {
		return m.refresh(ctx, userID)
	}
	return &models.PortfolioView{}, nil
}

func (m *mockPortfolioService) SummaryCards(view *models.PortfolioView) []models.SummaryCard {
	return m.cards
}

func (m *mockPortfolioService) HoldingRows(view *models.PortfolioView) []models.HoldingRow {
	return m.rows
}

func (m *mockPortfolioService) RenderAllocationChart(view *models.PortfolioView) ([]byte, error) {
	return m.allocPNG, m.allocErr
}

func (m *mockPortfolioService) RenderPerformanceChart(view *models.PortfolioView) ([]byte, error) {
	return m.perfPNG, m.perfErr
}

type mockChatService struct {
	send    func(ctx context.Context, userID, prompt string) (*models.ChatMessage, error)
	history []models.ChatMessage
	state   string
}

func (m *mockChatService) Send(ctx context.Context, userID, prompt string) (*models.ChatMessage, error) {
	if m.send != nil {
		return m.send(ctx, userID, prompt)
	}
	return &models.ChatMessage{ID: "m-1", Role: models.RoleUser, Content: prompt}, nil
}

func (m *mockChatService) History(ctx context.Context, userID string) []models.ChatMessage {
	return m.history
}

func (m *mockChatService) State(ctx context.Context, userID string) string {
	if m.state == "" {
		return "idle"
	}
	return m.state
}

func (m *mockChatService) Close() {}

type mockOnboardingService struct {
	state  func(ctx context.Context, userID string) (*models.WizardState, error)
	next   func(ctx context.Context, userID string, fields map[string]string) (*models.WizardState, error)
	back   func(ctx context.Context, userID string) (*models.WizardState, error)
	submit func(ctx context.Context, userID string) (*models.WizardState, error)
}

func (m *mockOnboardingService) State(ctx context.Context, userID string) (*models.WizardState, error) {
	if m.state != nil {
		return m.state(ctx, userID)
	}
	return &models.WizardState{UserID: userID, Step: models.StepIdentity, Fields: map[string]string{}}, nil
}

func (m *mockOnboardingService) Next(ctx context.Context, userID string, fields map[string]string) (*models.WizardState, error) {
	if m.next != nil {
		return m.next(ctx, userID, fields)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockOnboardingService) Back(ctx context.Context, userID string) (*models.WizardState, error) {
	if m.back != nil {
		return m.back(ctx, userID)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockOnboardingService) Submit(ctx context.Context, userID string) (*models.WizardState, error) {
	if m.submit != nil {
		return m.submit(ctx, userID)
	}
	return nil, fmt.Errorf("not configured")
}

// newTestServer builds a Server over mocked dependencies.
func newTestServer(a *app.App) *Server {
	if a.Logger == nil {
		a.Logger = common.NewLoggerFromConfig(common.LoggingConfig{Level: "disabled"})
	}
	if a.Config == nil {
		a.Config = common.NewDefaultConfig()
	}
	return &Server{app: a, logger: a.Logger}
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return bytes.NewBuffer(data)
}

// authedRequest builds a request carrying an authenticated user context, the
// way the bearer middleware would populate it.
func authedRequest(method, target string, body *bytes.Buffer, userID string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	uc := &common.UserContext{UserID: userID}
	return req.WithContext(common.WithUserContext(req.Context(), uc))
}
