// Package onboarding drives the linear KYC wizard.
package onboarding

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/iris/internal/common"
	"github.com/bobmcallan/iris/internal/interfaces"
	"github.com/bobmcallan/iris/internal/models"
)

// requiredFields lists the fields each step must have before advancing.
// Validation is presence-only; deeper checks belong to the gateway.
var requiredFields = map[int][]string{
	models.StepIdentity: {"first_name", "last_name", "date_of_birth", "tax_id"},
	models.StepContact:  {"street_address", "city", "state", "postal_code", "phone"},
}

// Service implements interfaces.OnboardingService. Wizard state rides on the
// session record's KYCProgress blob so it survives restarts with the session.
type Service struct {
	gateway  interfaces.GatewayClient
	sessions interfaces.SessionStore
	logger   *common.Logger

	mu sync.Mutex // serializes read-modify-write of a user's wizard state
}

// NewService creates the onboarding service.
func NewService(gateway interfaces.GatewayClient, sessions interfaces.SessionStore, logger *common.Logger) *Service {
	return &Service{
		gateway:  gateway,
		sessions: sessions,
		logger:   logger,
	}
}

// State returns the user's wizard state, creating it at step 1 when absent.
func (s *Service) State(ctx context.Context, userID string) (*models.WizardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, state, err := s.load(ctx, userID)
	return state, err
}

// load reads the session and decodes its wizard blob. Caller must hold s.mu.
func (s *Service) load(ctx context.Context, userID string) (*models.User, *models.WizardState, error) {
	user, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	state := &models.WizardState{
		UserID: userID,
		Step:   models.StepIdentity,
		Fields: map[string]string{},
	}
	if len(user.KYCProgress) > 0 {
		if err := json.Unmarshal(user.KYCProgress, state); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("Corrupt wizard progress, restarting at step 1")
		}
	}
	if state.Fields == nil {
		state.Fields = map[string]string{}
	}
	if state.Step < models.StepIdentity {
		state.Step = models.StepIdentity
	}
	return user, state, nil
}

// store writes the wizard blob back onto the session. Caller must hold s.mu.
func (s *Service) store(ctx context.Context, user *models.User, state *models.WizardState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode wizard state: %w", err)
	}
	user.KYCProgress = blob
	user.KYCStep = state.Step
	user.ModifiedAt = time.Now()
	return s.sessions.Save(ctx, user)
}

// validateStep checks presence of the step's required fields against the
// merged field set.
func validateStep(step int, fields map[string]string) error {
	var missing []string
	for _, name := range requiredFields[step] {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Next merges the submitted fields, validates the current step, persists the
// position upstream, and advances. The upstream save is non-fatal: the wizard
// advances locally even when it fails, and the failure is recorded on the
// state rather than swallowed.
func (s *Service) Next(ctx context.Context, userID string, fields map[string]string) (*models.WizardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, state, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state.Submitted {
		return state, fmt.Errorf("onboarding already submitted")
	}
	if state.Step >= models.StepReview {
		return state, fmt.Errorf("already at final step")
	}

	for k, v := range fields {
		state.Fields[k] = v
	}
	if err := validateStep(state.Step, state.Fields); err != nil {
		return state, err
	}

	nextStep := state.Step + 1
	if err := s.gateway.SaveOnboardingStep(ctx, userID, nextStep, state.Fields); err != nil {
		// Advance-regardless policy: server-side progress may lag, but the
		// user is never blocked by a persistence hiccup.
		s.logger.Warn().Err(err).Str("user_id", userID).Int("step", nextStep).Msg("Onboarding step save failed, advancing locally")
		state.LastSaveErr = err.Error()
	} else {
		state.LastSaveErr = ""
	}

	state.Step = nextStep
	if err := s.store(ctx, user, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Back moves one step backward. Always allowed, never below step 1. Entered
// fields are preserved.
func (s *Service) Back(ctx context.Context, userID string) (*models.WizardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, state, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state.Step > models.StepIdentity {
		state.Step--
		if err := s.store(ctx, user, state); err != nil {
			return nil, err
		}
	}
	return state, nil
}

// Submit posts the accumulated application. On success the session's KYC
// status is upgraded to VERIFIED locally.
func (s *Service) Submit(ctx context.Context, userID string) (*models.WizardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, state, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state.Submitted {
		return state, nil
	}
	if state.Step < models.StepReview {
		return state, fmt.Errorf("cannot submit before reviewing (step %d of %d)", state.Step, models.StepReview)
	}
	for _, step := range []int{models.StepIdentity, models.StepContact} {
		if err := validateStep(step, state.Fields); err != nil {
			return state, err
		}
	}

	app := s.buildApplication(userID, user, state.Fields)
	if err := s.gateway.SubmitOnboarding(ctx, app); err != nil {
		return state, err
	}

	state.Submitted = true
	user.KYCStatus = models.KYCVerified
	if err := s.store(ctx, user, state); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", userID).Msg("Onboarding submitted, KYC verified")
	return state, nil
}

// buildApplication assembles the gateway payload from the wizard fields.
func (s *Service) buildApplication(userID string, user *models.User, fields map[string]string) *models.OnboardingApplication {
	street := []string{fields["street_address"]}
	if line2 := strings.TrimSpace(fields["street_address_2"]); line2 != "" {
		street = append(street, line2)
	}

	funding := fields["funding_source"]
	if funding == "" {
		funding = "employment_income"
	}

	country := fields["country"]
	if country == "" {
		country = "USA"
	}

	return &models.OnboardingApplication{
		UserID:        userID,
		AccountID:     user.AccountID,
		TaxID:         fields["tax_id"],
		DateOfBirth:   fields["date_of_birth"],
		StreetAddress: street,
		City:          fields["city"],
		State:         fields["state"],
		PostalCode:    fields["postal_code"],
		Country:       country,
		Phone:         fields["phone"],
		FundingSource: []string{funding},
	}
}
