package session

import (
	"context"

	"github.com/identity-federation/hub/internal/policy/controller"
	"github.com/identity-federation/hub/internal/policy/domain"
)

func (s *Service) HandleMatchResponse(ctx context.Context, id domain.SessionID, resp domain.MatchFromMatchingService) error {
	waiting, err := s.waitingForMatchResponse(ctx, id)
	if err != nil {
		return err
	}
	next, err := waiting.HandleMatchResponse(ctx, resp)
	if err != nil {
		return err
	}
	return s.repo.Commit(ctx, id, next)
}

func (s *Service) HandleNoMatchResponse(ctx context.Context, id domain.SessionID, resp domain.NoMatchFromMatchingService) error {
	waiting, err := s.waitingForMatchResponse(ctx, id)
	if err != nil {
		return err
	}
	next, err := waiting.HandleNoMatchResponse(ctx, resp)
	if err != nil {
		return err
	}
	return s.repo.Commit(ctx, id, next)
}

func (s *Service) HandleUserAccountCreatedResponse(ctx context.Context, id domain.SessionID, resp domain.UserAccountCreatedFromMatchingService) error {
	waiting, err := s.waitingForMatchResponse(ctx, id)
	if err != nil {
		return err
	}
	next, err := waiting.HandleUserAccountCreatedResponse(ctx, resp)
	if err != nil {
		return err
	}
	return s.repo.Commit(ctx, id, next)
}

// HandleMatchRequestFailure records a matching-service transport failure for
// the session.
func (s *Service) HandleMatchRequestFailure(ctx context.Context, id domain.SessionID) error {
	waiting, err := s.waitingForMatchResponse(ctx, id)
	if err != nil {
		return err
	}
	next, err := waiting.HandleRequestFailure(ctx)
	if err != nil {
		return err
	}
	return s.repo.Commit(ctx, id, next)
}

// ResponseProcessingDetails answers the frontend's poll. The controller may
// decide the in-flight matching request has timed out, in which case the
// transition it returns is committed before answering.
func (s *Service) ResponseProcessingDetails(ctx context.Context, id domain.SessionID) (domain.ResponseProcessingDetails, error) {
	ctrl, err := s.repo.GetController(ctx, id, domain.ClassResponseProcessing)
	if err != nil {
		return domain.ResponseProcessingDetails{}, err
	}
	proc, ok := ctrl.(controller.ResponseProcessing)
	if !ok {
		return domain.ResponseProcessingDetails{}, domain.InvalidSessionStateError{SessionID: id, Expected: domain.ClassResponseProcessing.Name(), Actual: ctrl.CurrentState().Kind()}
	}
	next, details, err := proc.ResponseProcessingDetails(ctx)
	if err != nil {
		return domain.ResponseProcessingDetails{}, err
	}
	if err := s.repo.Commit(ctx, id, next); err != nil {
		return domain.ResponseProcessingDetails{}, err
	}
	return details, nil
}

func (s *Service) waitingForMatchResponse(ctx context.Context, id domain.SessionID) (controller.WaitingForMatchResponse, error) {
	ctrl, err := s.repo.GetController(ctx, id, domain.ClassMatchRequestSent)
	if err != nil {
		return nil, err
	}
	waiting, ok := ctrl.(controller.WaitingForMatchResponse)
	if !ok {
		return nil, domain.InvalidSessionStateError{SessionID: id, Expected: domain.ClassMatchRequestSent.Name(), Actual: ctrl.CurrentState().Kind()}
	}
	return waiting, nil
}
