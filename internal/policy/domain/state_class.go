package domain

// StateClass is a named set of state kinds sharing a behavioral contract.
// Repository lookups expect a class rather than an exact kind, replacing the
// original hierarchy checks with static membership tables.
type StateClass struct {
	name        string
	kinds       map[StateKind]bool
	errorFamily bool
}

func newClass(name string, errorFamily bool, kinds ...StateKind) StateClass {
	set := make(map[StateKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return StateClass{name: name, kinds: set, errorFamily: errorFamily}
}

func (c StateClass) Name() string { return c.name }

func (c StateClass) Contains(kind StateKind) bool { return c.kinds[kind] }

// ErrorFamily reports whether a caller expecting this class is asking for an
// error-surface state; such lookups are still served after session expiry so
// error pages can render.
func (c StateClass) ErrorFamily() bool { return c.errorFamily }

// ExactClass matches a single kind. Expecting the timeout state counts as an
// error-family expectation.
func ExactClass(kind StateKind) StateClass {
	return newClass(string(kind), kind == KindTimeout, kind)
}

var (
	// ClassIdpSelecting covers states from which a domestic identity
	// provider may be (re-)selected.
	ClassIdpSelecting = newClass("idp_selecting", false,
		KindSessionStarted, KindIdpSelected)

	// ClassCountrySelecting covers states from which an eIDAS country may
	// be (re-)selected.
	ClassCountrySelecting = newClass("country_selecting", false,
		KindSessionStarted, KindCountrySelected)

	// ClassAuthnRequestCapable covers states able to produce the outbound
	// authentication request towards the selected provider or country.
	ClassAuthnRequestCapable = newClass("authn_request_capable", false,
		KindIdpSelected, KindCountrySelected)

	// ClassMatchRequestSent covers every state awaiting a matching-service
	// response.
	ClassMatchRequestSent = newClass("match_request_sent", false,
		KindCycle01MatchRequestSent, KindCycle3MatchRequestSent,
		KindEidasCycle01MatchRequestSent, KindEidasCycle3MatchRequestSent,
		KindUserAccountCreationRequestSent, KindEidasUserAccountCreationReqSent)

	// ClassAwaitingCycle3Data covers states waiting for a self-asserted
	// attribute from the user.
	ClassAwaitingCycle3Data = newClass("awaiting_cycle3_data", false,
		KindAwaitingCycle3Data, KindEidasAwaitingCycle3Data)

	// ClassResponsePrepared covers outcome states that can render the final
	// hub response to the relying party.
	ClassResponsePrepared = newClass("response_prepared", false,
		KindSuccessfulMatch, KindEidasSuccessfulMatch, KindNoMatch,
		KindUserAccountCreated, KindNonMatchingJourneySuccess)

	// ClassResponseProcessing covers every state the frontend may poll while
	// a journey is in flight or has reached an outcome.
	ClassResponseProcessing = newClass("response_processing", false,
		KindCycle01MatchRequestSent, KindCycle3MatchRequestSent,
		KindEidasCycle01MatchRequestSent, KindEidasCycle3MatchRequestSent,
		KindUserAccountCreationRequestSent, KindEidasUserAccountCreationReqSent,
		KindAwaitingCycle3Data, KindEidasAwaitingCycle3Data,
		KindSuccessfulMatch, KindEidasSuccessfulMatch, KindNoMatch,
		KindUserAccountCreated, KindNonMatchingJourneySuccess,
		KindUserAccountCreationFailed, KindCycle3DataInputCancelled,
		KindMatchingServiceRequestError)

	// ClassErrorResponsePrepared covers every state able to render an error
	// response.
	ClassErrorResponsePrepared = newClass("error_response_prepared", true,
		KindSessionStarted, KindIdpSelected,
		KindCycle01MatchRequestSent, KindCycle3MatchRequestSent,
		KindEidasCycle01MatchRequestSent, KindEidasCycle3MatchRequestSent,
		KindUserAccountCreationRequestSent, KindEidasUserAccountCreationReqSent,
		KindAwaitingCycle3Data, KindEidasAwaitingCycle3Data,
		KindSuccessfulMatch, KindEidasSuccessfulMatch, KindNoMatch,
		KindUserAccountCreated, KindUserAccountCreationFailed,
		KindCycle3DataInputCancelled, KindAuthnFailedError,
		KindEidasAuthnFailedError, KindRequesterError, KindFraudEventDetected,
		KindMatchingServiceRequestError, KindTimeout)
)

// AssuranceFromState returns the level of assurance achieved at the identity
// provider for the four state kinds that carry one, and false for all other
// kinds.
func AssuranceFromState(state State) (LevelOfAssurance, bool) {
	switch s := state.(type) {
	case Cycle01MatchRequestSentState:
		return s.IdpLevelOfAssurance, true
	case SuccessfulMatchState:
		return s.LevelOfAssurance, true
	case AwaitingCycle3DataState:
		return s.LevelOfAssurance, true
	case UserAccountCreatedState:
		return s.LevelOfAssurance, true
	default:
		return LevelX, false
	}
}
