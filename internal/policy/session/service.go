package session

import (
	"context"
	"time"

	"github.com/identity-federation/hub/internal/policy/controller"
	"github.com/identity-federation/hub/internal/policy/domain"
)

// SessionStartRequest carries the translated authentication request from a
// relying party.
type SessionStartRequest struct {
	RequestID                   string
	Issuer                      string
	RelayState                  string
	AssertionConsumerServiceURL string
	ForceAuthentication         *bool
}

// Service exposes the policy operations as they are invoked from the
// outside. Every mutating operation follows the same shape: load the
// controller for the expected state class, run the operation, commit the
// state it returned.
type Service struct {
	repo          *Repository
	svc           *controller.Services
	sessionLength time.Duration
}

func NewService(repo *Repository, svc *controller.Services, sessionLength time.Duration) *Service {
	return &Service{repo: repo, svc: svc, sessionLength: sessionLength}
}

// StartSession mints a session for an incoming relying-party request.
func (s *Service) StartSession(ctx context.Context, req SessionStartRequest) (domain.SessionID, error) {
	countries, err := s.svc.Transactions.EidasCountries(req.Issuer)
	if err != nil {
		return "", err
	}

	state := domain.SessionStartedState{
		SessionContext: domain.SessionContext{
			RequestID:                   req.RequestID,
			RequestIssuerEntityID:       req.Issuer,
			SessionID:                   domain.NewSessionID(),
			SessionExpiry:               s.svc.Clock.Now().Add(s.sessionLength),
			AssertionConsumerServiceURL: req.AssertionConsumerServiceURL,
			TransactionSupportsEidas:    len(countries) > 0,
		},
		RelayState:          req.RelayState,
		ForceAuthentication: req.ForceAuthentication,
	}
	if err := s.repo.CreateSession(ctx, state); err != nil {
		return "", err
	}
	return state.SessionID, nil
}

func (s *Service) SignInProcessDetails(ctx context.Context, id domain.SessionID) (domain.AuthnRequestSignInProcess, error) {
	ctrl, err := s.repo.GetController(ctx, id, domain.ClassIdpSelecting)
	if err != nil {
		return domain.AuthnRequestSignInProcess{}, err
	}
	selecting, err := asIdpSelecting(ctrl, id)
	if err != nil {
		return domain.AuthnRequestSignInProcess{}, err
	}
	return selecting.SignInProcessDetails(), nil
}

// SelectIdp validates the user's provider choice and moves the session to
// the idp-selected state.
func (s *Service) SelectIdp(ctx context.Context, id domain.SessionID, idpEntityID, principalIP string, registering bool, requestedLoa domain.LevelOfAssurance) error {
	ctrl, err := s.repo.GetController(ctx, id, domain.ClassIdpSelecting)
	if err != nil {
		return err
	}
	selecting, err := asIdpSelecting(ctrl, id)
	if err != nil {
		return err
	}
	next, err := selecting.HandleIdpSelected(ctx, idpEntityID, principalIP, registering, requestedLoa)
	if err != nil {
		return err
	}
	return s.repo.Commit(ctx, id, next)
}

// SelectCountry validates the user's country choice and moves the session to
// the country-selected state.
func (s *Service) SelectCountry(ctx context.Context, id domain.SessionID, countryEntityID string) error {
	ctrl, err := s.repo.GetController(ctx, id, domain.ClassCountrySelecting)
	if err != nil {
		return err
	}
	selecting, ok := ctrl.(controller.CountrySelecting)
	if !ok {
		return domain.InvalidSessionStateError{SessionID: id, Expected: domain.ClassCountrySelecting.Name(), Actual: ctrl.CurrentState().Kind()}
	}
	next, err := selecting.HandleCountrySelected(ctx, countryEntityID)
	if err != nil {
		return err
	}
	return s.repo.Commit(ctx, id, next)
}

// RequestFromHub produces the outbound authentication request towards the
// selected provider or country.
func (s *Service) RequestFromHub(ctx context.Context, id domain.SessionID) (domain.AuthnRequestFromHub, error) {
	ctrl, err := s.repo.GetController(ctx, id, domain.ClassAuthnRequestCapable)
	if err != nil {
		return domain.AuthnRequestFromHub{}, err
	}
	capable, ok := ctrl.(controller.AuthnRequestCapable)
	if !ok {
		return domain.AuthnRequestFromHub{}, domain.InvalidSessionStateError{SessionID: id, Expected: domain.ClassAuthnRequestCapable.Name(), Actual: ctrl.CurrentState().Kind()}
	}
	return capable.RequestFromHub(ctx)
}

// TryAnotherIdp restarts the journey from provider selection after a failed
// registration.
func (s *Service) TryAnotherIdp(ctx context.Context, id domain.SessionID) error {
	ctrl, err := s.repo.GetController(ctx, id, domain.ExactClass(domain.KindAuthnFailedError))
	if err != nil {
		return err
	}
	restarting, ok := ctrl.(controller.JourneyRestarting)
	if !ok {
		return domain.InvalidSessionStateError{SessionID: id, Expected: string(domain.KindAuthnFailedError), Actual: ctrl.CurrentState().Kind()}
	}
	next, err := restarting.TryAnotherIdp(ctx)
	if err != nil {
		return err
	}
	return s.repo.Commit(ctx, id, next)
}

func (s *Service) SessionExists(ctx context.Context, id domain.SessionID) (bool, error) {
	return s.repo.SessionExists(ctx, id)
}

func (s *Service) RequestIssuerEntityID(ctx context.Context, id domain.SessionID) (string, error) {
	return s.repo.RequestIssuerEntityID(ctx, id)
}

func (s *Service) TransactionSupportsEidas(ctx context.Context, id domain.SessionID) (bool, error) {
	return s.repo.TransactionSupportsEidas(ctx, id)
}

func (s *Service) AssuranceFromIdp(ctx context.Context, id domain.SessionID) (domain.LevelOfAssurance, error) {
	return s.repo.AssuranceFromIdp(ctx, id)
}

func asIdpSelecting(ctrl controller.Controller, id domain.SessionID) (controller.IdpSelecting, error) {
	selecting, ok := ctrl.(controller.IdpSelecting)
	if !ok {
		return nil, domain.InvalidSessionStateError{SessionID: id, Expected: domain.ClassIdpSelecting.Name(), Actual: ctrl.CurrentState().Kind()}
	}
	return selecting, nil
}
