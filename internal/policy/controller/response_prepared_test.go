package controller

import (
	"context"
	"errors"
	"testing"

	"github.com/identity-federation/hub/internal/policy/domain"
)

func TestSuccessfulMatchPreparedResponse(t *testing.T) {
	env := newTestEnv()
	state := domain.SuccessfulMatchState{
		SessionContext:           sessionCtx(),
		IdentityProviderEntityID: testIdp,
		MatchingServiceAssertion: "match-assertion",
		RelayState:               "rs",
		LevelOfAssurance:         domain.Level2,
		Registering:              true,
	}

	ctrl, _ := New(state, env.svc)
	resp, err := ctrl.(ResponsePrepared).PreparedResponse(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status != domain.StatusSuccess {
		t.Errorf("Expected status '%s', got '%s'", domain.StatusSuccess, resp.Status)
	}
	if resp.InResponseTo != "_req-1" {
		t.Errorf("Expected in-response-to '_req-1', got '%s'", resp.InResponseTo)
	}
	if resp.ResponseID == "" || resp.ResponseID == resp.InResponseTo {
		t.Errorf("Expected a freshly minted response id, got '%s'", resp.ResponseID)
	}
	if len(resp.MatchingServiceAssertions) != 1 || resp.MatchingServiceAssertions[0] != "match-assertion" {
		t.Errorf("Expected matching service assertion, got %v", resp.MatchingServiceAssertions)
	}
	if resp.RelayState != "rs" {
		t.Errorf("Expected relay state 'rs', got '%s'", resp.RelayState)
	}
	if !env.events.hasType(domain.EventResponseToTransaction) {
		t.Error("Expected a response_sent_to_transaction event")
	}
}

// A provider disabled after the match completed must not complete the
// journey at render time.
func TestSuccessfulMatchIdpDisabledAtRenderTime(t *testing.T) {
	env := newTestEnv()
	env.config.enabledIdps = []string{testSecondIdp}

	state := domain.SuccessfulMatchState{
		SessionContext:           sessionCtx(),
		IdentityProviderEntityID: testIdp,
		LevelOfAssurance:         domain.Level2,
	}

	ctrl, _ := New(state, env.svc)
	_, err := ctrl.(ResponsePrepared).PreparedResponse(context.Background())

	var disabled domain.IdpDisabledError
	if !errors.As(err, &disabled) {
		t.Fatalf("Expected IdpDisabledError, got %v", err)
	}
	if disabled.IdpEntityID != testIdp {
		t.Errorf("Expected idp '%s', got '%s'", testIdp, disabled.IdpEntityID)
	}
}

func TestEidasSuccessfulMatchCountryDisabledAtRenderTime(t *testing.T) {
	env := newTestEnv()
	env.config.countries = nil

	state := domain.EidasSuccessfulMatchState{
		SessionContext:           sessionCtx(),
		CountryEntityID:          testCountry,
		MatchingServiceAssertion: "match-assertion",
		LevelOfAssurance:         domain.Level2,
	}

	ctrl, _ := New(state, env.svc)
	_, err := ctrl.(ResponsePrepared).PreparedResponse(context.Background())
	expectReason(domain.ReasonCountryNotEnabled)(t, err)
}

func TestNoMatchPreparedResponse(t *testing.T) {
	env := newTestEnv()
	state := domain.NoMatchState{
		SessionContext:           sessionCtx(),
		IdentityProviderEntityID: testIdp,
	}

	ctrl, _ := New(state, env.svc)
	resp, err := ctrl.(ResponsePrepared).PreparedResponse(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != domain.StatusNoMatchingServiceMatch {
		t.Errorf("Expected status '%s', got '%s'", domain.StatusNoMatchingServiceMatch, resp.Status)
	}
}

func TestNonMatchingJourneyPreparedResponse(t *testing.T) {
	env := newTestEnv()
	state := domain.NonMatchingJourneySuccessState{
		SessionContext:           sessionCtx(),
		IdentityProviderEntityID: testIdp,
		LevelOfAssurance:         domain.Level1,
		EncryptedAssertions:      []string{"a1", "a2"},
	}

	ctrl, _ := New(state, env.svc)
	resp, err := ctrl.(ResponsePrepared).PreparedResponse(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != domain.StatusSuccess {
		t.Errorf("Expected status '%s', got '%s'", domain.StatusSuccess, resp.Status)
	}
	if len(resp.EncryptedAssertions) != 2 {
		t.Errorf("Expected the provider's assertions untouched, got %v", resp.EncryptedAssertions)
	}
	if len(resp.MatchingServiceAssertions) != 0 {
		t.Errorf("Expected no matching service assertions, got %v", resp.MatchingServiceAssertions)
	}
}

func TestPreparedStatePollStatuses(t *testing.T) {
	env := newTestEnv()
	ctx := sessionCtx()

	tests := []struct {
		name     string
		state    domain.State
		expected domain.ResponseProcessingStatus
	}{
		{"successful match", domain.SuccessfulMatchState{SessionContext: ctx}, domain.StatusSendSuccessfulMatch},
		{"no match", domain.NoMatchState{SessionContext: ctx}, domain.StatusSendNoMatch},
		{"user account created", domain.UserAccountCreatedState{SessionContext: ctx}, domain.StatusSendUserAccountCreated},
		{"non-matching journey", domain.NonMatchingJourneySuccessState{SessionContext: ctx}, domain.StatusSendSuccessfulMatch},
		{"user account creation failed", domain.UserAccountCreationFailedState{SessionContext: ctx}, domain.StatusGotoHubLandingPage},
		{"cycle3 cancelled", domain.Cycle3DataInputCancelledState{SessionContext: ctx}, domain.StatusGotoHubLandingPage},
		{"matching service error", domain.MatchingServiceRequestErrorState{SessionContext: ctx}, domain.StatusShowMatchingErrorPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, err := New(tt.state, env.svc)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			next, details, err := ctrl.(ResponseProcessing).ResponseProcessingDetails(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if next != nil {
				t.Errorf("Expected no transition, got %T", next)
			}
			if details.Status != tt.expected {
				t.Errorf("Expected status '%s', got '%s'", tt.expected, details.Status)
			}
		})
	}
}

func TestErrorResponses(t *testing.T) {
	env := newTestEnv()
	ctx := sessionCtx()

	tests := []struct {
		name     string
		state    domain.State
		expected domain.TransactionStatus
	}{
		{"authn failed", domain.AuthnFailedErrorState{SessionContext: ctx}, domain.StatusAuthenticationFailed},
		{"eidas authn failed", domain.EidasAuthnFailedErrorState{SessionContext: ctx, CountryEntityID: testCountry}, domain.StatusAuthenticationFailed},
		{"fraud detected", domain.FraudEventDetectedState{SessionContext: ctx, IdpEntityID: testIdp}, domain.StatusAuthenticationFailed},
		{"requester error", domain.RequesterErrorState{SessionContext: ctx}, domain.StatusRequesterError},
		{"session started", domain.SessionStartedState{SessionContext: ctx}, domain.StatusNoAuthenticationContext},
		{"timeout", domain.TimeoutState{SessionContext: ctx}, domain.StatusNoAuthenticationContext},
		{"matching service error", domain.MatchingServiceRequestErrorState{SessionContext: ctx}, domain.StatusNoAuthenticationContext},
		{"cycle3 cancelled", domain.Cycle3DataInputCancelledState{SessionContext: ctx}, domain.StatusNoAuthenticationContext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, err := New(tt.state, env.svc)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			resp, err := ctrl.(ErrorResponsePrepared).ErrorResponse(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Status != tt.expected {
				t.Errorf("Expected status '%s', got '%s'", tt.expected, resp.Status)
			}
			if resp.InResponseTo != ctx.RequestID {
				t.Errorf("Expected in-response-to '%s', got '%s'", ctx.RequestID, resp.InResponseTo)
			}
		})
	}

	if !env.events.hasType(domain.EventErrorResponseToTransaction) {
		t.Error("Expected error_response_sent_to_transaction events")
	}
}

func TestTryAnotherIdp(t *testing.T) {
	env := newTestEnv()
	force := true
	state := domain.AuthnFailedErrorState{
		SessionContext:      sessionCtx(),
		RelayState:          "rs",
		IdpEntityID:         testIdp,
		ForceAuthentication: &force,
	}

	ctrl, _ := New(state, env.svc)
	next, err := ctrl.(JourneyRestarting).TryAnotherIdp(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if next.Kind() != domain.KindSessionStarted {
		t.Errorf("Expected session_started, got '%s'", next.Kind())
	}
	if next.RelayState != "rs" {
		t.Errorf("Expected relay state carried, got '%s'", next.RelayState)
	}
	if next.ForceAuthentication == nil || !*next.ForceAuthentication {
		t.Error("Expected force authentication carried")
	}
}

func TestAuthnFailedAllowsReselection(t *testing.T) {
	env := newTestEnv()
	state := domain.AuthnFailedErrorState{SessionContext: sessionCtx(), IdpEntityID: testIdp}

	ctrl, _ := New(state, env.svc)
	next, err := ctrl.(IdpSelecting).HandleIdpSelected(context.Background(), testSecondIdp, "", true, domain.Level2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.IdpEntityID != testSecondIdp {
		t.Errorf("Expected reselected idp '%s', got '%s'", testSecondIdp, next.IdpEntityID)
	}
}
