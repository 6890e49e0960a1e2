package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bobmcallan/iris/internal/models"
)

func TestLogin_ReturnsUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "alice@example.com" {
			t.Errorf("unexpected login body: %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"user_id":    "u-1",
			"account_id": "acct-1",
			"email":      "alice@example.com",
			"first_name": "Alice",
			"kyc_status": "VERIFIED",
		})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	user, err := client.Login(context.Background(), "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.UserID != "u-1" || user.AccountID != "acct-1" {
		t.Errorf("unexpected user: %+v", user)
	}
	if user.KYCStatus != models.KYCVerified {
		t.Errorf("expected VERIFIED, got %s", user.KYCStatus)
	}
}

func TestLogin_MissingKYCStatusDefaultsToPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"user_id": "u-1"})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	user, err := client.Login(context.Background(), "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.KYCStatus != models.KYCPending {
		t.Errorf("expected PENDING default, got %s", user.KYCStatus)
	}
}

func TestLogin_UnauthorizedSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Login(context.Background(), "alice@example.com", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "invalid credentials" {
		t.Errorf("expected server message, got %q", apiErr.Message)
	}
}

func TestSignup_UserEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/signup" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user": map[string]string{"user_id": "u-2", "kyc_status": "PENDING"},
		})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	user, err := client.Signup(context.Background(), "Bob", "Jones", "bob@example.com", "secret")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if user.UserID != "u-2" {
		t.Errorf("unexpected user: %+v", user)
	}
	// Fields missing from the response are filled from the request
	if user.Email != "bob@example.com" || user.FirstName != "Bob" || user.LastName != "Jones" {
		t.Errorf("expected request fallback fill, got %+v", user)
	}
	if user.NextRoute() != "onboarding" {
		t.Errorf("new signups route to onboarding, got %s", user.NextRoute())
	}
}

func TestSignup_DuplicateEmailIsConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "email already registered"})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Signup(context.Background(), "Bob", "Jones", "bob@example.com", "secret")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsConflict(err) {
		t.Errorf("expected IsConflict, got %v", err)
	}
}

func TestGetPortfolio_DecodesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/portfolio/u-1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"totalValue": 17300.0,
			"todayPL":    "+$86.75 (0.50%)",
			"brokerGroups": []map[string]interface{}{
				{
					"brokerName":  "alpaca",
					"displayName": "IRIS Core",
					"totalValue":  12000.0,
					"holdings": []map[string]interface{}{
						{"symbol": "AAPL", "shares": 10.5, "value": 1997.63},
					},
				},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	p, err := client.GetPortfolio(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("GetPortfolio failed: %v", err)
	}
	if p.TotalValue != 17300 {
		t.Errorf("totalValue = %v", p.TotalValue)
	}
	if p.TodayPL != "+$86.75 (0.50%)" {
		t.Errorf("todayPL = %q", p.TodayPL)
	}
	if len(p.BrokerGroups) != 1 || p.BrokerGroups[0].BrokerName != "alpaca" {
		t.Errorf("brokerGroups = %+v", p.BrokerGroups)
	}
	if len(p.BrokerGroups[0].Holdings) != 1 || p.BrokerGroups[0].Holdings[0].Symbol != "AAPL" {
		t.Errorf("holdings = %+v", p.BrokerGroups[0].Holdings)
	}
}

func TestGetPortfolio_EscapesUserID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		json.NewEncoder(w).Encode(map[string]interface{}{})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	if _, err := client.GetPortfolio(context.Background(), "u/1"); err != nil {
		t.Fatalf("GetPortfolio failed: %v", err)
	}
	if gotPath != "/portfolio/u%2F1" {
		t.Errorf("expected escaped path, got %s", gotPath)
	}
}

func TestChat_ReturnsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["user_id"] != "u-1" || body["prompt"] != "how am I doing?" {
			t.Errorf("unexpected chat body: %v", body)
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "quite well"})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	reply, err := client.Chat(context.Background(), "u-1", "how am I doing?")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if reply != "quite well" {
		t.Errorf("reply = %q", reply)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	ok, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if !ok {
		t.Error("expected healthy")
	}
}

func TestHealth_Degraded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "degraded"})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	ok, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if ok {
		t.Error("expected not healthy")
	}
}
