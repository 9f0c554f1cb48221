package session

import (
	"context"

	"github.com/identity-federation/hub/internal/policy/controller"
	"github.com/identity-federation/hub/internal/policy/domain"
)

// PreparedResponse renders the final success or no-match response to the
// relying party.
func (s *Service) PreparedResponse(ctx context.Context, id domain.SessionID) (domain.ResponseFromHub, error) {
	ctrl, err := s.repo.GetController(ctx, id, domain.ClassResponsePrepared)
	if err != nil {
		return domain.ResponseFromHub{}, err
	}
	prepared, ok := ctrl.(controller.ResponsePrepared)
	if !ok {
		return domain.ResponseFromHub{}, domain.InvalidSessionStateError{SessionID: id, Expected: domain.ClassResponsePrepared.Name(), Actual: ctrl.CurrentState().Kind()}
	}
	return prepared.PreparedResponse(ctx)
}

// ErrorResponse renders an error response to the relying party. It remains
// available after the whole-session timeout so the relying party still gets
// an answer.
func (s *Service) ErrorResponse(ctx context.Context, id domain.SessionID) (domain.ResponseFromHub, error) {
	ctrl, err := s.repo.GetController(ctx, id, domain.ClassErrorResponsePrepared)
	if err != nil {
		return domain.ResponseFromHub{}, err
	}
	prepared, ok := ctrl.(controller.ErrorResponsePrepared)
	if !ok {
		return domain.ResponseFromHub{}, domain.InvalidSessionStateError{SessionID: id, Expected: domain.ClassErrorResponsePrepared.Name(), Actual: ctrl.CurrentState().Kind()}
	}
	return prepared.ErrorResponse(ctx)
}

// Cycle3AttributeRequestData tells the UI which self-asserted attribute to
// collect from the user.
func (s *Service) Cycle3AttributeRequestData(ctx context.Context, id domain.SessionID) (domain.Cycle3AttributeRequestData, error) {
	input, err := s.cycle3DataInput(ctx, id)
	if err != nil {
		return domain.Cycle3AttributeRequestData{}, err
	}
	return input.Cycle3AttributeRequestData(ctx)
}

func (s *Service) SubmitCycle3Data(ctx context.Context, id domain.SessionID, data domain.Cycle3Dataset, principalIP string) error {
	input, err := s.cycle3DataInput(ctx, id)
	if err != nil {
		return err
	}
	next, err := input.HandleCycle3DataSubmitted(ctx, data, principalIP)
	if err != nil {
		return err
	}
	return s.repo.Commit(ctx, id, next)
}

func (s *Service) CancelCycle3Data(ctx context.Context, id domain.SessionID) error {
	input, err := s.cycle3DataInput(ctx, id)
	if err != nil {
		return err
	}
	next, err := input.HandleCycle3DataCancelled(ctx)
	if err != nil {
		return err
	}
	return s.repo.Commit(ctx, id, next)
}

func (s *Service) cycle3DataInput(ctx context.Context, id domain.SessionID) (controller.Cycle3DataInput, error) {
	ctrl, err := s.repo.GetController(ctx, id, domain.ClassAwaitingCycle3Data)
	if err != nil {
		return nil, err
	}
	input, ok := ctrl.(controller.Cycle3DataInput)
	if !ok {
		return nil, domain.InvalidSessionStateError{SessionID: id, Expected: domain.ClassAwaitingCycle3Data.Name(), Actual: ctrl.CurrentState().Kind()}
	}
	return input, nil
}
