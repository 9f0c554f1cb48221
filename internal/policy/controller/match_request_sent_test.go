package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/identity-federation/hub/internal/policy/domain"
)

func cycle01State(env *testEnv) domain.Cycle01MatchRequestSentState {
	return domain.Cycle01MatchRequestSentState{
		MatchRequestContext:               matchRequestCtx(env.clock),
		EncryptedMatchingDatasetAssertion: "mds-assertion",
		AuthnStatementAssertion:           "authn-assertion",
		PersistentID:                      "pid-1",
	}
}

func waiting(t *testing.T, env *testEnv, state domain.State) WaitingForMatchResponse {
	t.Helper()
	ctrl, err := New(state, env.svc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return ctrl.(WaitingForMatchResponse)
}

func TestHandleMatchResponse(t *testing.T) {
	env := newTestEnv()
	ctrl := waiting(t, env, cycle01State(env))

	next, err := ctrl.HandleMatchResponse(context.Background(), domain.MatchFromMatchingService{
		Issuer:                   testMatchingService,
		InResponseTo:             "_req-1",
		MatchingServiceAssertion: "match-assertion",
		LevelOfAssurance:         domain.Level2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	match, ok := next.(domain.SuccessfulMatchState)
	if !ok {
		t.Fatalf("Expected SuccessfulMatchState, got %T", next)
	}
	if match.MatchingServiceAssertion != "match-assertion" {
		t.Errorf("Expected assertion carried, got '%s'", match.MatchingServiceAssertion)
	}
	if match.LevelOfAssurance != domain.Level2 {
		t.Errorf("Expected LEVEL_2, got %v", match.LevelOfAssurance)
	}
	if !env.events.hasType(domain.EventMatch) {
		t.Error("Expected a matching_service_match event")
	}
}

func TestHandleMatchResponseValidation(t *testing.T) {
	tests := []struct {
		name   string
		resp   domain.MatchFromMatchingService
		reason domain.ProcessingErrorReason
	}{
		{
			name: "wrong issuer",
			resp: domain.MatchFromMatchingService{
				Issuer:           "https://rogue.example.com",
				InResponseTo:     "_req-1",
				LevelOfAssurance: domain.Level2,
			},
			reason: domain.ReasonWrongResponseIssuer,
		},
		{
			name: "wrong in-response-to",
			resp: domain.MatchFromMatchingService{
				Issuer:           testMatchingService,
				InResponseTo:     "_other-request",
				LevelOfAssurance: domain.Level2,
			},
			reason: domain.ReasonWrongInResponseTo,
		},
		{
			// The matching service must echo the level the provider achieved.
			name: "asymmetric level of assurance",
			resp: domain.MatchFromMatchingService{
				Issuer:           testMatchingService,
				InResponseTo:     "_req-1",
				LevelOfAssurance: domain.Level1,
			},
			reason: domain.ReasonWrongLevelOfAssurance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			ctrl := waiting(t, env, cycle01State(env))

			next, err := ctrl.HandleMatchResponse(context.Background(), tt.resp)
			if next != nil {
				t.Errorf("Expected no transition, got %T", next)
			}
			expectReason(tt.reason)(t, err)
		})
	}
}

func TestHandleNoMatchResponseBranching(t *testing.T) {
	noMatch := domain.NoMatchFromMatchingService{Issuer: testMatchingService, InResponseTo: "_req-1"}

	t.Run("cycle3 attribute configured", func(t *testing.T) {
		env := newTestEnv()
		env.config.matchingProcess = domain.MatchingProcess{AttributeName: "NationalInsuranceNumber"}
		ctrl := waiting(t, env, cycle01State(env))

		next, err := ctrl.HandleNoMatchResponse(context.Background(), noMatch)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		awaiting, ok := next.(domain.AwaitingCycle3DataState)
		if !ok {
			t.Fatalf("Expected AwaitingCycle3DataState, got %T", next)
		}
		if awaiting.EncryptedMatchingDatasetAssertion != "mds-assertion" {
			t.Errorf("Expected dataset assertion carried, got '%s'", awaiting.EncryptedMatchingDatasetAssertion)
		}
		if awaiting.PersistentID != "pid-1" {
			t.Errorf("Expected persistent id carried, got '%s'", awaiting.PersistentID)
		}
		if !env.events.hasType(domain.EventWaitingForCycle3Attributes) {
			t.Error("Expected a waiting_for_cycle3_attributes event")
		}
	})

	t.Run("account creation attributes configured", func(t *testing.T) {
		env := newTestEnv()
		env.config.uacAttributes = []string{"FIRST_NAME", "SURNAME"}
		ctrl := waiting(t, env, cycle01State(env))

		next, err := ctrl.HandleNoMatchResponse(context.Background(), noMatch)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		sent, ok := next.(domain.UserAccountCreationRequestSentState)
		if !ok {
			t.Fatalf("Expected UserAccountCreationRequestSentState, got %T", next)
		}
		if !sent.RequestSentTime.Equal(env.clock.now) {
			t.Errorf("Expected refreshed request sent time %v, got %v", env.clock.now, sent.RequestSentTime)
		}

		query := env.dispatcher.lastQuery(t)
		if query.MatchingServiceURI != "https://msa.example.com/uac" {
			t.Errorf("Expected account-creation URI, got '%s'", query.MatchingServiceURI)
		}
		if len(query.UserAccountCreationAttributes) != 2 {
			t.Errorf("Expected attributes in the query, got %v", query.UserAccountCreationAttributes)
		}
	})

	t.Run("neither configured", func(t *testing.T) {
		env := newTestEnv()
		ctrl := waiting(t, env, cycle01State(env))

		next, err := ctrl.HandleNoMatchResponse(context.Background(), noMatch)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, ok := next.(domain.NoMatchState); !ok {
			t.Fatalf("Expected NoMatchState, got %T", next)
		}
		if !env.events.hasType(domain.EventNoMatch) {
			t.Error("Expected a matching_service_no_match event")
		}
	})
}

func TestCycle01RejectsUserAccountCreatedResponse(t *testing.T) {
	env := newTestEnv()
	ctrl := waiting(t, env, cycle01State(env))

	_, err := ctrl.HandleUserAccountCreatedResponse(context.Background(), domain.UserAccountCreatedFromMatchingService{
		Issuer:       testMatchingService,
		InResponseTo: "_req-1",
	})

	var invalid domain.InvalidSessionStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("Expected InvalidSessionStateError, got %v", err)
	}
	if invalid.Actual != domain.KindCycle01MatchRequestSent {
		t.Errorf("Expected actual kind '%s', got '%s'", domain.KindCycle01MatchRequestSent, invalid.Actual)
	}
}

func TestUserAccountCreationResponses(t *testing.T) {
	state := func(env *testEnv) domain.UserAccountCreationRequestSentState {
		return domain.UserAccountCreationRequestSentState{MatchRequestContext: matchRequestCtx(env.clock)}
	}

	t.Run("account created", func(t *testing.T) {
		env := newTestEnv()
		ctrl := waiting(t, env, state(env))

		next, err := ctrl.HandleUserAccountCreatedResponse(context.Background(), domain.UserAccountCreatedFromMatchingService{
			Issuer:                   testMatchingService,
			InResponseTo:             "_req-1",
			MatchingServiceAssertion: "uac-assertion",
			LevelOfAssurance:         domain.Level2,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		created, ok := next.(domain.UserAccountCreatedState)
		if !ok {
			t.Fatalf("Expected UserAccountCreatedState, got %T", next)
		}
		if created.MatchingServiceAssertion != "uac-assertion" {
			t.Errorf("Expected assertion carried, got '%s'", created.MatchingServiceAssertion)
		}
		if !env.events.hasType(domain.EventUserAccountCreated) {
			t.Error("Expected a user_account_created event")
		}
	})

	t.Run("no match means creation failed", func(t *testing.T) {
		env := newTestEnv()
		ctrl := waiting(t, env, state(env))

		next, err := ctrl.HandleNoMatchResponse(context.Background(), domain.NoMatchFromMatchingService{
			Issuer:       testMatchingService,
			InResponseTo: "_req-1",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, ok := next.(domain.UserAccountCreationFailedState); !ok {
			t.Fatalf("Expected UserAccountCreationFailedState, got %T", next)
		}
		if !env.events.hasType(domain.EventUserAccountCreationFailed) {
			t.Error("Expected a user_account_creation_failed event")
		}
	})

	t.Run("asymmetric level rejected", func(t *testing.T) {
		env := newTestEnv()
		ctrl := waiting(t, env, state(env))

		_, err := ctrl.HandleUserAccountCreatedResponse(context.Background(), domain.UserAccountCreatedFromMatchingService{
			Issuer:           testMatchingService,
			InResponseTo:     "_req-1",
			LevelOfAssurance: domain.Level1,
		})
		expectReason(domain.ReasonWrongLevelOfAssurance)(t, err)
	})
}

func TestResponseProcessingDetailsWhileWaiting(t *testing.T) {
	env := newTestEnv()
	ctrl := waiting(t, env, cycle01State(env))

	next, details, err := ctrl.ResponseProcessingDetails(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != nil {
		t.Errorf("Expected no transition before the wait period elapses, got %T", next)
	}
	if details.Status != domain.StatusWait {
		t.Errorf("Expected status '%s', got '%s'", domain.StatusWait, details.Status)
	}
	if details.TransactionEntityID != testTransaction {
		t.Errorf("Expected transaction '%s', got '%s'", testTransaction, details.TransactionEntityID)
	}
}

func TestResponseProcessingDetailsAfterWaitPeriod(t *testing.T) {
	env := newTestEnv()
	state := cycle01State(env)
	ctrl := waiting(t, env, state)

	env.clock.now = state.RequestSentTime.Add(env.svc.MatchWaitPeriod + time.Second)

	next, details, err := ctrl.ResponseProcessingDetails(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.Status != domain.StatusShowMatchingErrorPage {
		t.Errorf("Expected status '%s', got '%s'", domain.StatusShowMatchingErrorPage, details.Status)
	}
	if _, ok := next.(domain.MatchingServiceRequestErrorState); !ok {
		t.Fatalf("Expected MatchingServiceRequestErrorState, got %T", next)
	}
	if !env.events.hasType(domain.EventMatchingServiceTimeout) {
		t.Error("Expected a matching_service_request_timeout event")
	}
}

func TestHandleRequestFailure(t *testing.T) {
	env := newTestEnv()
	ctrl := waiting(t, env, cycle01State(env))

	next, err := ctrl.HandleRequestFailure(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	errState, ok := next.(domain.MatchingServiceRequestErrorState)
	if !ok {
		t.Fatalf("Expected MatchingServiceRequestErrorState, got %T", next)
	}
	if errState.IdentityProviderEntityID != testIdp {
		t.Errorf("Expected idp '%s', got '%s'", testIdp, errState.IdentityProviderEntityID)
	}
}
