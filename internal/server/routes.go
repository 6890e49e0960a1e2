package server

import (
	"net/http"
	"time"

	"github.com/bobmcallan/iris/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Auth
	mux.HandleFunc("/api/auth/login", s.handleAuthLogin)
	mux.HandleFunc("/api/auth/signup", s.handleAuthSignup)
	mux.HandleFunc("/api/auth/logout", s.handleAuthLogout)
	mux.HandleFunc("/api/auth/session", s.handleAuthSession)

	// Onboarding wizard
	mux.HandleFunc("/api/onboarding", s.handleOnboardingState)
	mux.HandleFunc("/api/onboarding/step", s.handleOnboardingStep)
	mux.HandleFunc("/api/onboarding/back", s.handleOnboardingBack)
	mux.HandleFunc("/api/onboarding/submit", s.handleOnboardingSubmit)

	// Portfolio
	mux.HandleFunc("/api/portfolio", s.handlePortfolioView)
	mux.HandleFunc("/api/portfolio/refresh", s.handlePortfolioRefresh)
	mux.HandleFunc("/api/portfolio/summary", s.handlePortfolioSummary)
	mux.HandleFunc("/api/portfolio/insights", s.handlePortfolioInsights)
	mux.HandleFunc("/api/portfolio/holdings", s.handlePortfolioHoldings)
	mux.HandleFunc("/api/portfolio/snapshot/", s.handlePortfolioSnapshot)
	mux.HandleFunc("/api/portfolio/charts/allocation", s.handleAllocationChart)
	mux.HandleFunc("/api/portfolio/charts/performance", s.handlePerformanceChart)

	// Chat
	mux.HandleFunc("/api/chat", s.handleChatSend)
	mux.HandleFunc("/api/chat/history", s.handleChatHistory)
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	gatewayOK, err := s.app.Gateway.Health(r.Context())
	status := "ok"
	gatewayStatus := "ok"
	if err != nil || !gatewayOK {
		gatewayStatus = "unreachable"
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"gateway": gatewayStatus,
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

// requireUser resolves the authenticated user ID or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	uc := common.UserContextFromContext(r.Context())
	if uc == nil || uc.UserID == "" {
		WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return "", false
	}
	return uc.UserID, true
}
