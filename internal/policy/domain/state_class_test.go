package domain

import "testing"

func TestStateClassMembership(t *testing.T) {
	tests := []struct {
		name  string
		class StateClass
		in    []StateKind
		out   []StateKind
	}{
		{
			name:  "idp_selecting",
			class: ClassIdpSelecting,
			in:    []StateKind{KindSessionStarted, KindIdpSelected},
			out:   []StateKind{KindCountrySelected, KindCycle01MatchRequestSent, KindTimeout},
		},
		{
			name:  "country_selecting",
			class: ClassCountrySelecting,
			in:    []StateKind{KindSessionStarted, KindCountrySelected},
			out:   []StateKind{KindIdpSelected, KindEidasCycle01MatchRequestSent},
		},
		{
			name:  "authn_request_capable",
			class: ClassAuthnRequestCapable,
			in:    []StateKind{KindIdpSelected, KindCountrySelected},
			out:   []StateKind{KindSessionStarted, KindSuccessfulMatch},
		},
		{
			name:  "match_request_sent",
			class: ClassMatchRequestSent,
			in: []StateKind{
				KindCycle01MatchRequestSent, KindCycle3MatchRequestSent,
				KindEidasCycle01MatchRequestSent, KindEidasCycle3MatchRequestSent,
				KindUserAccountCreationRequestSent, KindEidasUserAccountCreationReqSent,
			},
			out: []StateKind{KindSuccessfulMatch, KindAwaitingCycle3Data, KindTimeout},
		},
		{
			name:  "awaiting_cycle3_data",
			class: ClassAwaitingCycle3Data,
			in:    []StateKind{KindAwaitingCycle3Data, KindEidasAwaitingCycle3Data},
			out:   []StateKind{KindCycle3MatchRequestSent, KindCycle3DataInputCancelled},
		},
		{
			name:  "response_prepared",
			class: ClassResponsePrepared,
			in: []StateKind{
				KindSuccessfulMatch, KindEidasSuccessfulMatch, KindNoMatch,
				KindUserAccountCreated, KindNonMatchingJourneySuccess,
			},
			out: []StateKind{KindUserAccountCreationFailed, KindAuthnFailedError, KindTimeout},
		},
		{
			name:  "response_processing",
			class: ClassResponseProcessing,
			in: []StateKind{
				KindCycle01MatchRequestSent, KindAwaitingCycle3Data,
				KindSuccessfulMatch, KindUserAccountCreationFailed,
				KindCycle3DataInputCancelled, KindMatchingServiceRequestError,
			},
			out: []StateKind{KindSessionStarted, KindIdpSelected, KindAuthnFailedError, KindTimeout},
		},
		{
			name:  "error_response_prepared",
			class: ClassErrorResponsePrepared,
			in: []StateKind{
				KindSessionStarted, KindAuthnFailedError, KindRequesterError,
				KindFraudEventDetected, KindTimeout, KindSuccessfulMatch,
			},
			out: []StateKind{KindCountrySelected, KindNonMatchingJourneySuccess},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, kind := range tt.in {
				if !tt.class.Contains(kind) {
					t.Errorf("Expected class to contain '%s'", kind)
				}
			}
			for _, kind := range tt.out {
				if tt.class.Contains(kind) {
					t.Errorf("Expected class not to contain '%s'", kind)
				}
			}
		})
	}
}

func TestStateClassErrorFamily(t *testing.T) {
	if !ClassErrorResponsePrepared.ErrorFamily() {
		t.Error("Expected error_response_prepared to be error family")
	}
	if ClassResponsePrepared.ErrorFamily() {
		t.Error("Expected response_prepared not to be error family")
	}
	if ClassMatchRequestSent.ErrorFamily() {
		t.Error("Expected match_request_sent not to be error family")
	}
}

func TestExactClass(t *testing.T) {
	class := ExactClass(KindAwaitingCycle3Data)
	if !class.Contains(KindAwaitingCycle3Data) {
		t.Error("Expected exact class to contain its own kind")
	}
	if class.Contains(KindEidasAwaitingCycle3Data) {
		t.Error("Expected exact class to exclude other kinds")
	}
	if class.ErrorFamily() {
		t.Error("Expected non-timeout exact class not to be error family")
	}

	if !ExactClass(KindTimeout).ErrorFamily() {
		t.Error("Expected timeout exact class to be error family")
	}
}

func TestAssuranceFromState(t *testing.T) {
	ctx := testContext()

	tests := []struct {
		name     string
		state    State
		expected LevelOfAssurance
		ok       bool
	}{
		{
			name: "cycle01 match request carries idp level",
			state: Cycle01MatchRequestSentState{
				MatchRequestContext: MatchRequestContext{SessionContext: ctx, IdpLevelOfAssurance: Level2},
			},
			expected: Level2,
			ok:       true,
		},
		{
			name:     "successful match",
			state:    SuccessfulMatchState{SessionContext: ctx, LevelOfAssurance: Level1},
			expected: Level1,
			ok:       true,
		},
		{
			name:     "awaiting cycle3 data",
			state:    AwaitingCycle3DataState{SessionContext: ctx, LevelOfAssurance: Level2},
			expected: Level2,
			ok:       true,
		},
		{
			name:     "user account created",
			state:    UserAccountCreatedState{SessionContext: ctx, LevelOfAssurance: Level2},
			expected: Level2,
			ok:       true,
		},
		{
			name:  "session started carries none",
			state: SessionStartedState{SessionContext: ctx},
			ok:    false,
		},
		{
			name:  "no match carries none",
			state: NoMatchState{SessionContext: ctx},
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := AssuranceFromState(tt.state)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && level != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, level)
			}
		})
	}
}
