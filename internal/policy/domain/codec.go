package domain

import (
	"encoding/json"
	"fmt"
)

type stateEnvelope struct {
	Kind  StateKind       `json:"kind"`
	State json.RawMessage `json:"state"`
}

// MarshalState encodes a state value as a kind-tagged JSON envelope for the
// session store.
func MarshalState(state State) ([]byte, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal %s state: %w", state.Kind(), err)
	}
	return json.Marshal(stateEnvelope{Kind: state.Kind(), State: payload})
}

// UnmarshalState decodes a kind-tagged envelope back into the concrete
// state variant. Unknown kinds are an error: the state set is closed.
func UnmarshalState(data []byte) (State, error) {
	var env stateEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal state envelope: %w", err)
	}

	target, ok := emptyStateFor(env.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown state kind %q", env.Kind)
	}
	if err := json.Unmarshal(env.State, target); err != nil {
		return nil, fmt.Errorf("unmarshal %s state: %w", env.Kind, err)
	}
	return deref(target), nil
}

func emptyStateFor(kind StateKind) (any, bool) {
	switch kind {
	case KindSessionStarted:
		return &SessionStartedState{}, true
	case KindCountrySelected:
		return &CountrySelectedState{}, true
	case KindIdpSelected:
		return &IdpSelectedState{}, true
	case KindCycle01MatchRequestSent:
		return &Cycle01MatchRequestSentState{}, true
	case KindCycle3MatchRequestSent:
		return &Cycle3MatchRequestSentState{}, true
	case KindEidasCycle01MatchRequestSent:
		return &EidasCycle01MatchRequestSentState{}, true
	case KindEidasCycle3MatchRequestSent:
		return &EidasCycle3MatchRequestSentState{}, true
	case KindUserAccountCreationRequestSent:
		return &UserAccountCreationRequestSentState{}, true
	case KindEidasUserAccountCreationReqSent:
		return &EidasUserAccountCreationRequestSentState{}, true
	case KindAwaitingCycle3Data:
		return &AwaitingCycle3DataState{}, true
	case KindEidasAwaitingCycle3Data:
		return &EidasAwaitingCycle3DataState{}, true
	case KindSuccessfulMatch:
		return &SuccessfulMatchState{}, true
	case KindEidasSuccessfulMatch:
		return &EidasSuccessfulMatchState{}, true
	case KindNoMatch:
		return &NoMatchState{}, true
	case KindUserAccountCreated:
		return &UserAccountCreatedState{}, true
	case KindUserAccountCreationFailed:
		return &UserAccountCreationFailedState{}, true
	case KindNonMatchingJourneySuccess:
		return &NonMatchingJourneySuccessState{}, true
	case KindCycle3DataInputCancelled:
		return &Cycle3DataInputCancelledState{}, true
	case KindAuthnFailedError:
		return &AuthnFailedErrorState{}, true
	case KindEidasAuthnFailedError:
		return &EidasAuthnFailedErrorState{}, true
	case KindRequesterError:
		return &RequesterErrorState{}, true
	case KindFraudEventDetected:
		return &FraudEventDetectedState{}, true
	case KindMatchingServiceRequestError:
		return &MatchingServiceRequestErrorState{}, true
	case KindTimeout:
		return &TimeoutState{}, true
	default:
		return nil, false
	}
}

func deref(target any) State {
	switch s := target.(type) {
	case *SessionStartedState:
		return *s
	case *CountrySelectedState:
		return *s
	case *IdpSelectedState:
		return *s
	case *Cycle01MatchRequestSentState:
		return *s
	case *Cycle3MatchRequestSentState:
		return *s
	case *EidasCycle01MatchRequestSentState:
		return *s
	case *EidasCycle3MatchRequestSentState:
		return *s
	case *UserAccountCreationRequestSentState:
		return *s
	case *EidasUserAccountCreationRequestSentState:
		return *s
	case *AwaitingCycle3DataState:
		return *s
	case *EidasAwaitingCycle3DataState:
		return *s
	case *SuccessfulMatchState:
		return *s
	case *EidasSuccessfulMatchState:
		return *s
	case *NoMatchState:
		return *s
	case *UserAccountCreatedState:
		return *s
	case *UserAccountCreationFailedState:
		return *s
	case *NonMatchingJourneySuccessState:
		return *s
	case *Cycle3DataInputCancelledState:
		return *s
	case *AuthnFailedErrorState:
		return *s
	case *EidasAuthnFailedErrorState:
		return *s
	case *RequesterErrorState:
		return *s
	case *FraudEventDetectedState:
		return *s
	case *MatchingServiceRequestErrorState:
		return *s
	case *TimeoutState:
		return *s
	}
	panic(fmt.Sprintf("unhandled state type %T", target))
}
