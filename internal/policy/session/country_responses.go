package session

import (
	"context"

	"github.com/identity-federation/hub/internal/policy/controller"
	"github.com/identity-federation/hub/internal/policy/domain"
)

func (s *Service) HandleSuccessResponseFromCountry(ctx context.Context, id domain.SessionID, resp domain.SuccessFromCountry) (domain.ResponseAction, error) {
	proc, err := s.countryResponseProcessing(ctx, id)
	if err != nil {
		return domain.ResponseAction{}, err
	}
	next, action, err := proc.HandleSuccessResponseFromCountry(ctx, resp)
	if err != nil {
		return domain.ResponseAction{}, err
	}
	return action, s.repo.Commit(ctx, id, next)
}

func (s *Service) HandleAuthnFailedResponseFromCountry(ctx context.Context, id domain.SessionID, resp domain.AuthenticationErrorResponse) (domain.ResponseAction, error) {
	proc, err := s.countryResponseProcessing(ctx, id)
	if err != nil {
		return domain.ResponseAction{}, err
	}
	next, action, err := proc.HandleAuthnFailedResponseFromCountry(ctx, resp)
	if err != nil {
		return domain.ResponseAction{}, err
	}
	return action, s.repo.Commit(ctx, id, next)
}

func (s *Service) countryResponseProcessing(ctx context.Context, id domain.SessionID) (controller.CountryResponseProcessing, error) {
	ctrl, err := s.repo.GetController(ctx, id, domain.ExactClass(domain.KindCountrySelected))
	if err != nil {
		return nil, err
	}
	proc, ok := ctrl.(controller.CountryResponseProcessing)
	if !ok {
		return nil, domain.InvalidSessionStateError{SessionID: id, Expected: string(domain.KindCountrySelected), Actual: ctrl.CurrentState().Kind()}
	}
	return proc, nil
}
