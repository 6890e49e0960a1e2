package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bobmcallan/iris/internal/common"
	"github.com/bobmcallan/iris/internal/models"
)

// --- Portfolio handlers ---

// getView loads the view-model for the authenticated user, writing the error
// response itself when nothing can be served.
func (s *Server) getView(w http.ResponseWriter, r *http.Request) (*models.PortfolioView, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}

	view, err := s.app.PortfolioService.GetView(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Error loading portfolio: %v", err))
		return nil, false
	}
	return view, true
}

func (s *Server) handlePortfolioView(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	view, ok := s.getView(w, r)
	if !ok {
		return
	}

	WriteJSON(w, http.StatusOK, view)
}

func (s *Server) handlePortfolioRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	view, err := s.app.PortfolioService.Refresh(r.Context(), userID)
	if err != nil {
		if view != nil {
			// Refresh failed but a stale view survives. Return it with the
			// failure noted so the UI can keep rendering.
			WriteJSON(w, http.StatusOK, map[string]interface{}{
				"view":  view,
				"stale": true,
				"error": err.Error(),
			})
			return
		}
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Refresh failed: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"view":  view,
		"stale": false,
	})
}

func (s *Server) handlePortfolioSummary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	view, ok := s.getView(w, r)
	if !ok {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"cards": s.app.PortfolioService.SummaryCards(view),
	})
}

func (s *Server) handlePortfolioHoldings(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	view, ok := s.getView(w, r)
	if !ok {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"holdings":     s.app.PortfolioService.HoldingRows(view),
		"has_holdings": view.HasHoldings,
	})
}

// handlePortfolioSnapshot handles GET /api/portfolio/snapshot/{userId},
// serving the normalized view for an explicit user. Used by support tooling;
// regular dashboard calls go through /api/portfolio instead.
func (s *Server) handlePortfolioSnapshot(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if _, ok := requireUser(w, r); !ok {
		return
	}

	userID := PathParam(r, "/api/portfolio/snapshot/", "")
	if userID == "" {
		WriteError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	view, err := s.app.PortfolioService.GetView(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Error loading portfolio: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, view)
}

// handlePortfolioInsights composes a portfolio summary into an insights
// prompt and queues it on the user's chat session. The reply arrives through
// /api/chat/history like any other assistant message.
func (s *Server) handlePortfolioInsights(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	view, err := s.app.PortfolioService.GetView(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Error loading portfolio: %v", err))
		return
	}

	prompt := insightsPrompt(view)
	msg, err := s.app.ChatService.Send(r.Context(), userID, prompt)
	if err != nil {
		WriteError(w, http.StatusTooManyRequests, fmt.Sprintf("Cannot queue insights request: %v", err))
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"message": msg,
		"state":   s.app.ChatService.State(r.Context(), userID),
	})
}

// insightsPrompt summarizes the view as total value plus up to three top
// holdings.
func insightsPrompt(view *models.PortfolioView) string {
	symbols := make([]string, 0, 3)
	for _, h := range view.FlatHoldings {
		symbols = append(symbols, h.Symbol)
		if len(symbols) == 3 {
			break
		}
	}
	summary := fmt.Sprintf("Total Value: %s. Top Holdings: %s.",
		common.FormatMoney(view.Snapshot.TotalValue), strings.Join(symbols, ", "))
	return "Generate 3 concise investment insights for this portfolio: " + summary
}

func (s *Server) handleAllocationChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	view, ok := s.getView(w, r)
	if !ok {
		return
	}

	png, err := s.app.PortfolioService.RenderAllocationChart(view)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Chart error: %v", err))
		return
	}

	WritePNG(w, png)
}

func (s *Server) handlePerformanceChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	view, ok := s.getView(w, r)
	if !ok {
		return
	}

	png, err := s.app.PortfolioService.RenderPerformanceChart(view)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Chart error: %v", err))
		return
	}

	WritePNG(w, png)
}
