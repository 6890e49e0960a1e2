package server

import (
	"fmt"
	"net/http"

	"github.com/bobmcallan/iris/internal/models"
)

// --- Onboarding wizard handlers ---

// wizardResponse shapes the wizard state for the UI.
type wizardResponse struct {
	Step      int               `json:"step"`
	Fields    map[string]string `json:"fields"`
	Submitted bool              `json:"submitted"`
	SaveError string            `json:"save_error,omitempty"`
}

func toWizardResponse(ws *models.WizardState) wizardResponse {
	return wizardResponse{
		Step:      ws.Step,
		Fields:    ws.Fields,
		Submitted: ws.Submitted,
		SaveError: ws.LastSaveErr,
	}
}

func (s *Server) handleOnboardingState(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ws, err := s.app.OnboardingService.State(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("Onboarding state error: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, toWizardResponse(ws))
}

// handleOnboardingStep handles POST /api/onboarding/step. Saves the submitted
// fields and advances the wizard. Validation failures return 400 without
// advancing; an upstream save failure is recorded but still advances.
func (s *Server) handleOnboardingStep(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Fields map[string]string `json:"fields"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	ws, err := s.app.OnboardingService.Next(r.Context(), userID, req.Fields)
	if err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Step error: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, toWizardResponse(ws))
}

func (s *Server) handleOnboardingBack(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ws, err := s.app.OnboardingService.Back(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Back error: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, toWizardResponse(ws))
}

func (s *Server) handleOnboardingSubmit(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ws, err := s.app.OnboardingService.Submit(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Submit error: %v", err))
		return
	}

	// Re-read the session so the response reflects the upgraded KYC status.
	user, _ := s.app.Sessions.Get(r.Context(), userID)

	resp := map[string]interface{}{
		"wizard": toWizardResponse(ws),
	}
	if user != nil {
		resp["kyc_status"] = user.KYCStatus
		resp["next"] = user.NextRoute()
	}

	WriteJSON(w, http.StatusOK, resp)
}
