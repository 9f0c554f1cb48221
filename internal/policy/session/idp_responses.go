package session

import (
	"context"

	"github.com/identity-federation/hub/internal/policy/controller"
	"github.com/identity-federation/hub/internal/policy/domain"
)

// The idp-selected state is the only one that accepts provider responses;
// each handler commits the transition the controller decided on and returns
// the frontend routing action.

func (s *Service) HandleSuccessResponseFromIdp(ctx context.Context, id domain.SessionID, resp domain.SuccessFromIdp) (domain.ResponseAction, error) {
	proc, err := s.idpResponseProcessing(ctx, id)
	if err != nil {
		return domain.ResponseAction{}, err
	}
	next, action, err := proc.HandleSuccessResponse(ctx, resp)
	if err != nil {
		return domain.ResponseAction{}, err
	}
	return action, s.repo.Commit(ctx, id, next)
}

func (s *Service) HandleNoAuthnContextResponseFromIdp(ctx context.Context, id domain.SessionID, resp domain.AuthenticationErrorResponse) (domain.ResponseAction, error) {
	proc, err := s.idpResponseProcessing(ctx, id)
	if err != nil {
		return domain.ResponseAction{}, err
	}
	next, action, err := proc.HandleNoAuthnContextResponse(ctx, resp)
	if err != nil {
		return domain.ResponseAction{}, err
	}
	return action, s.repo.Commit(ctx, id, next)
}

func (s *Service) HandleAuthnFailedResponseFromIdp(ctx context.Context, id domain.SessionID, resp domain.AuthenticationErrorResponse) (domain.ResponseAction, error) {
	proc, err := s.idpResponseProcessing(ctx, id)
	if err != nil {
		return domain.ResponseAction{}, err
	}
	next, action, err := proc.HandleAuthenticationFailedResponse(ctx, resp)
	if err != nil {
		return domain.ResponseAction{}, err
	}
	return action, s.repo.Commit(ctx, id, next)
}

func (s *Service) HandleRequesterErrorResponseFromIdp(ctx context.Context, id domain.SessionID, resp domain.RequesterErrorResponse) (domain.ResponseAction, error) {
	proc, err := s.idpResponseProcessing(ctx, id)
	if err != nil {
		return domain.ResponseAction{}, err
	}
	next, action, err := proc.HandleRequesterErrorResponse(ctx, resp)
	if err != nil {
		return domain.ResponseAction{}, err
	}
	return action, s.repo.Commit(ctx, id, next)
}

func (s *Service) HandleFraudResponseFromIdp(ctx context.Context, id domain.SessionID, resp domain.FraudFromIdp) (domain.ResponseAction, error) {
	proc, err := s.idpResponseProcessing(ctx, id)
	if err != nil {
		return domain.ResponseAction{}, err
	}
	next, action, err := proc.HandleFraudResponse(ctx, resp)
	if err != nil {
		return domain.ResponseAction{}, err
	}
	return action, s.repo.Commit(ctx, id, next)
}

func (s *Service) idpResponseProcessing(ctx context.Context, id domain.SessionID) (controller.IdpResponseProcessing, error) {
	ctrl, err := s.repo.GetController(ctx, id, domain.ExactClass(domain.KindIdpSelected))
	if err != nil {
		return nil, err
	}
	proc, ok := ctrl.(controller.IdpResponseProcessing)
	if !ok {
		return nil, domain.InvalidSessionStateError{SessionID: id, Expected: string(domain.KindIdpSelected), Actual: ctrl.CurrentState().Kind()}
	}
	return proc, nil
}
