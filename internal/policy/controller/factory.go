package controller

import (
	"fmt"

	"github.com/identity-federation/hub/internal/policy/domain"
)

// New builds the controller for a state value. The mapping is a closed
// dispatch table over the state kinds; an unhandled kind is a programming
// error.
func New(state domain.State, svc *Services) (Controller, error) {
	switch s := state.(type) {
	case domain.SessionStartedState:
		return newSessionStartedController(s, svc), nil
	case domain.CountrySelectedState:
		return newCountrySelectedController(s, svc), nil
	case domain.IdpSelectedState:
		return newIdpSelectedController(s, svc), nil
	case domain.Cycle01MatchRequestSentState:
		return newCycle01MatchRequestSentController(s, svc), nil
	case domain.Cycle3MatchRequestSentState:
		return newCycle3MatchRequestSentController(s, svc), nil
	case domain.EidasCycle01MatchRequestSentState:
		return newEidasCycle01MatchRequestSentController(s, svc), nil
	case domain.EidasCycle3MatchRequestSentState:
		return newEidasCycle3MatchRequestSentController(s, svc), nil
	case domain.UserAccountCreationRequestSentState:
		return newUserAccountCreationRequestSentController(s, svc), nil
	case domain.EidasUserAccountCreationRequestSentState:
		return newEidasUserAccountCreationRequestSentController(s, svc), nil
	case domain.AwaitingCycle3DataState:
		return newAwaitingCycle3DataController(s, svc), nil
	case domain.EidasAwaitingCycle3DataState:
		return newEidasAwaitingCycle3DataController(s, svc), nil
	case domain.SuccessfulMatchState:
		return newSuccessfulMatchController(s, svc), nil
	case domain.EidasSuccessfulMatchState:
		return newEidasSuccessfulMatchController(s, svc), nil
	case domain.NoMatchState:
		return newNoMatchController(s, svc), nil
	case domain.UserAccountCreatedState:
		return newUserAccountCreatedController(s, svc), nil
	case domain.UserAccountCreationFailedState:
		return newUserAccountCreationFailedController(s, svc), nil
	case domain.NonMatchingJourneySuccessState:
		return newNonMatchingJourneySuccessController(s, svc), nil
	case domain.Cycle3DataInputCancelledState:
		return newCycle3DataInputCancelledController(s, svc), nil
	case domain.AuthnFailedErrorState:
		return newAuthnFailedErrorController(s, svc), nil
	case domain.EidasAuthnFailedErrorState:
		return newEidasAuthnFailedErrorController(s, svc), nil
	case domain.RequesterErrorState:
		return newRequesterErrorController(s, svc), nil
	case domain.FraudEventDetectedState:
		return newFraudEventDetectedController(s, svc), nil
	case domain.MatchingServiceRequestErrorState:
		return newMatchingServiceRequestErrorController(s, svc), nil
	case domain.TimeoutState:
		return newTimeoutController(s, svc), nil
	default:
		return nil, fmt.Errorf("no controller for state kind %q", state.Kind())
	}
}
