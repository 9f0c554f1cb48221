// Package session mediates every access to session state. The repository is
// the only writer of the session store and the single place where
// whole-session expiry is enforced; the services compose controller
// operations with the persistence of the state they return.
package session

import (
	"context"

	"github.com/identity-federation/hub/internal/policy/controller"
	"github.com/identity-federation/hub/internal/policy/domain"
	"github.com/identity-federation/hub/internal/shared/metrics"
)

// Repository guards the session store. Sessions are promoted to the timeout
// state lazily, on first access after their expiry; there is no background
// sweeper.
type Repository struct {
	store domain.SessionStore
	svc   *controller.Services
}

func NewRepository(store domain.SessionStore, svc *controller.Services) *Repository {
	return &Repository{store: store, svc: svc}
}

// CreateSession persists the initial state under its session id.
func (r *Repository) CreateSession(ctx context.Context, state domain.SessionStartedState) error {
	if err := r.store.Insert(ctx, state.SessionID, state); err != nil {
		return err
	}
	r.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventSessionStarted,
		SessionID:             state.SessionID,
		RequestID:             state.RequestID,
		RequestIssuerEntityID: state.RequestIssuerEntityID,
		SessionExpiry:         state.SessionExpiry,
	})
	return nil
}

// GetController loads the session, enforces expiry, checks the current state
// against the expected class and returns its controller.
func (r *Repository) GetController(ctx context.Context, id domain.SessionID, expected domain.StateClass) (controller.Controller, error) {
	state, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.handleTimeout(ctx, id, state, expected); err != nil {
		return nil, err
	}
	if state.Kind() != domain.KindTimeout && !expected.Contains(state.Kind()) {
		return nil, domain.InvalidSessionStateError{SessionID: id, Expected: expected.Name(), Actual: state.Kind()}
	}
	return controller.New(state, r.svc)
}

// handleTimeout promotes an expired session to the timeout state on first
// access and reports the timeout. Once the session is in the timeout state,
// only error-family expectations are served; everything else keeps seeing
// the timeout, so repeated access is idempotent.
func (r *Repository) handleTimeout(ctx context.Context, id domain.SessionID, state domain.State, expected domain.StateClass) error {
	sessionCtx := state.Context()
	if r.svc.Clock.Now().After(sessionCtx.SessionExpiry) && state.Kind() != domain.KindTimeout {
		if err := r.store.Replace(ctx, id, domain.NewTimeoutState(state)); err != nil {
			return err
		}
		r.svc.Events.LogEvent(ctx, domain.HubEvent{
			Type:                  domain.EventSessionTimedOut,
			SessionID:             id,
			RequestID:             sessionCtx.RequestID,
			RequestIssuerEntityID: sessionCtx.RequestIssuerEntityID,
			SessionExpiry:         sessionCtx.SessionExpiry,
		})
		return domain.SessionTimedOutError{
			SessionID:             id,
			RequestID:             sessionCtx.RequestID,
			RequestIssuerEntityID: sessionCtx.RequestIssuerEntityID,
			SessionExpiry:         sessionCtx.SessionExpiry,
		}
	}
	if state.Kind() == domain.KindTimeout && !expected.ErrorFamily() {
		return domain.SessionTimedOutError{
			SessionID:             id,
			RequestID:             sessionCtx.RequestID,
			RequestIssuerEntityID: sessionCtx.RequestIssuerEntityID,
			SessionExpiry:         sessionCtx.SessionExpiry,
		}
	}
	return nil
}

// Commit persists the state a controller operation returned. A nil next
// state means the operation did not transition.
func (r *Repository) Commit(ctx context.Context, id domain.SessionID, next domain.State) error {
	if next == nil {
		return nil
	}
	if err := r.store.Replace(ctx, id, next); err != nil {
		return err
	}
	metrics.RecordStateTransition(string(next.Kind()))
	return nil
}

func (r *Repository) SessionExists(ctx context.Context, id domain.SessionID) (bool, error) {
	return r.store.Has(ctx, id)
}

// IsSessionInState reports whether the session's current persisted state has
// the given kind, without triggering timeout promotion.
func (r *Repository) IsSessionInState(ctx context.Context, id domain.SessionID, kind domain.StateKind) (bool, error) {
	state, err := r.store.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return state.Kind() == kind, nil
}

func (r *Repository) RequestIssuerEntityID(ctx context.Context, id domain.SessionID) (string, error) {
	state, err := r.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return state.Context().RequestIssuerEntityID, nil
}

func (r *Repository) TransactionSupportsEidas(ctx context.Context, id domain.SessionID) (bool, error) {
	state, err := r.store.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return state.Context().TransactionSupportsEidas, nil
}

// AssuranceFromIdp returns the level of assurance the identity provider
// achieved for this session, for the state kinds that carry one.
func (r *Repository) AssuranceFromIdp(ctx context.Context, id domain.SessionID) (domain.LevelOfAssurance, error) {
	state, err := r.store.Get(ctx, id)
	if err != nil {
		return domain.LevelX, err
	}
	loa, ok := domain.AssuranceFromState(state)
	if !ok {
		return domain.LevelX, domain.InvalidSessionStateError{
			SessionID: id,
			Expected:  "a state carrying the provider's level of assurance",
			Actual:    state.Kind(),
		}
	}
	return loa, nil
}
