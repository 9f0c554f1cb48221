package controller

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/identity-federation/hub/internal/policy/domain"
)

const (
	testTransaction     = "https://transaction.example.com"
	testIdp             = "https://idp.example.com"
	testSecondIdp       = "https://other-idp.example.com"
	testMatchingService = "https://msa.example.com"
	testCountry         = "https://country.example.eu"
)

// fakeConfig backs all three federation config interfaces with plain fields.
type fakeConfig struct {
	transactionLevels []domain.LevelOfAssurance
	matchingProcess   domain.MatchingProcess
	uacAttributes     []string
	usesMatching      bool
	countries         []domain.EidasCountry
	enabledIdps       []string
	idps              map[string]domain.IdpConfig
	registrationOff   bool
}

func newFakeConfig() *fakeConfig {
	return &fakeConfig{
		transactionLevels: []domain.LevelOfAssurance{domain.Level2},
		usesMatching:      true,
		enabledIdps:       []string{testIdp, testSecondIdp},
		idps: map[string]domain.IdpConfig{
			testIdp: {
				EntityID:                   testIdp,
				SupportedLevelsOfAssurance: []domain.LevelOfAssurance{domain.Level1, domain.Level2},
			},
			testSecondIdp: {
				EntityID:                   testSecondIdp,
				SupportedLevelsOfAssurance: []domain.LevelOfAssurance{domain.Level2},
			},
		},
		countries: []domain.EidasCountry{{EntityID: testCountry, SimpleID: "EU"}},
	}
}

func (f *fakeConfig) LevelsOfAssurance(string) ([]domain.LevelOfAssurance, error) {
	return f.transactionLevels, nil
}

func (f *fakeConfig) MatchingServiceEntityID(string) (string, error) {
	return testMatchingService, nil
}

func (f *fakeConfig) MatchingProcess(string) (domain.MatchingProcess, error) {
	return f.matchingProcess, nil
}

func (f *fakeConfig) UserAccountCreationAttributes(string) ([]string, error) {
	return f.uacAttributes, nil
}

func (f *fakeConfig) UsesMatching(string) (bool, error) {
	return f.usesMatching, nil
}

func (f *fakeConfig) EidasCountries(string) ([]domain.EidasCountry, error) {
	return f.countries, nil
}

func (f *fakeConfig) EnabledForAuthnRequest(string, bool, domain.LevelOfAssurance) ([]string, error) {
	return f.enabledIdps, nil
}

func (f *fakeConfig) Idp(entityID string) (domain.IdpConfig, error) {
	idp, ok := f.idps[entityID]
	if !ok {
		return domain.IdpConfig{}, fmt.Errorf("unknown identity provider %s", entityID)
	}
	return idp, nil
}

func (f *fakeConfig) EnabledForRegistration(string, string, domain.LevelOfAssurance) (bool, error) {
	return !f.registrationOff, nil
}

func (f *fakeConfig) MatchingService(entityID string) (domain.MatchingServiceInfo, error) {
	if entityID != testMatchingService {
		return domain.MatchingServiceInfo{}, fmt.Errorf("unknown matching service %s", entityID)
	}
	return domain.MatchingServiceInfo{
		EntityID:               testMatchingService,
		URI:                    "https://msa.example.com/matching",
		UserAccountCreationURI: "https://msa.example.com/uac",
	}, nil
}

// fakeDispatcher records every attribute query handed to it.
type fakeDispatcher struct {
	queries []domain.AttributeQueryRequest
	err     error
}

func (d *fakeDispatcher) Send(_ context.Context, _ domain.SessionID, query domain.AttributeQueryRequest) error {
	if d.err != nil {
		return d.err
	}
	d.queries = append(d.queries, query)
	return nil
}

func (d *fakeDispatcher) lastQuery(t *testing.T) domain.AttributeQueryRequest {
	t.Helper()
	if len(d.queries) == 0 {
		t.Fatal("Expected an attribute query to have been dispatched")
	}
	return d.queries[len(d.queries)-1]
}

// recordingEvents captures logged hub events.
type recordingEvents struct {
	events []domain.HubEvent
}

func (r *recordingEvents) LogEvent(_ context.Context, event domain.HubEvent) {
	r.events = append(r.events, event)
}

func (r *recordingEvents) hasType(eventType domain.HubEventType) bool {
	for _, e := range r.events {
		if e.Type == eventType {
			return true
		}
	}
	return false
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

type seqIDs struct {
	n int
}

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("_id-%d", s.n)
}

type testEnv struct {
	svc        *Services
	config     *fakeConfig
	dispatcher *fakeDispatcher
	events     *recordingEvents
	clock      *fixedClock
}

func newTestEnv() *testEnv {
	config := newFakeConfig()
	dispatcher := &fakeDispatcher{}
	events := &recordingEvents{}
	clock := &fixedClock{now: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)}
	ids := &seqIDs{}
	return &testEnv{
		svc: &Services{
			Transactions:      config,
			IdentityProviders: config,
			MatchingServices:  config,
			Dispatcher:        dispatcher,
			Events:            events,
			Clock:             clock,
			IDs:               ids,
			Responses:         domain.NewResponseFactory(ids),
			Assertions:        domain.NewAssertionRestrictions(clock, time.Hour),
			MatchWaitPeriod:   2 * time.Minute,
		},
		config:     config,
		dispatcher: dispatcher,
		events:     events,
		clock:      clock,
	}
}

func sessionCtx() domain.SessionContext {
	return domain.SessionContext{
		RequestID:                   "_req-1",
		RequestIssuerEntityID:       testTransaction,
		SessionID:                   domain.SessionID("22222222-2222-2222-2222-222222222222"),
		SessionExpiry:               time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		AssertionConsumerServiceURL: testTransaction + "/acs",
		TransactionSupportsEidas:    true,
	}
}

func idpSelectedState() domain.IdpSelectedState {
	return domain.IdpSelectedState{
		SessionContext:             sessionCtx(),
		IdpEntityID:                testIdp,
		MatchingServiceEntityID:    testMatchingService,
		LevelsOfAssurance:          []domain.LevelOfAssurance{domain.Level2},
		Registering:                true,
		RequestedLoa:               domain.Level2,
		AvailableIdentityProviders: []string{testIdp, testSecondIdp},
	}
}

func matchRequestCtx(clock *fixedClock) domain.MatchRequestContext {
	return domain.MatchRequestContext{
		SessionContext:                 sessionCtx(),
		IdentityProviderEntityID:       testIdp,
		IdpLevelOfAssurance:            domain.Level2,
		MatchingServiceAdapterEntityID: testMatchingService,
		RequestSentTime:                clock.now.Add(-30 * time.Second),
		Registering:                    true,
	}
}

func TestNewControllerCapabilities(t *testing.T) {
	env := newTestEnv()
	ctx := sessionCtx()
	matchCtx := matchRequestCtx(env.clock)

	tests := []struct {
		name  string
		state domain.State
		check func(Controller) bool
	}{
		{"session started selects idps", domain.SessionStartedState{SessionContext: ctx},
			func(c Controller) bool { _, ok := c.(IdpSelecting); return ok }},
		{"session started selects countries", domain.SessionStartedState{SessionContext: ctx},
			func(c Controller) bool { _, ok := c.(CountrySelecting); return ok }},
		{"idp selected produces authn request", idpSelectedState(),
			func(c Controller) bool { _, ok := c.(AuthnRequestCapable); return ok }},
		{"idp selected processes idp responses", idpSelectedState(),
			func(c Controller) bool { _, ok := c.(IdpResponseProcessing); return ok }},
		{"country selected processes country responses",
			domain.CountrySelectedState{SessionContext: ctx, CountryEntityID: testCountry},
			func(c Controller) bool { _, ok := c.(CountryResponseProcessing); return ok }},
		{"cycle01 waits for match response",
			domain.Cycle01MatchRequestSentState{MatchRequestContext: matchCtx},
			func(c Controller) bool { _, ok := c.(WaitingForMatchResponse); return ok }},
		{"awaiting cycle3 accepts input",
			domain.AwaitingCycle3DataState{SessionContext: ctx},
			func(c Controller) bool { _, ok := c.(Cycle3DataInput); return ok }},
		{"successful match renders response",
			domain.SuccessfulMatchState{SessionContext: ctx},
			func(c Controller) bool { _, ok := c.(ResponsePrepared); return ok }},
		{"authn failed restarts journey",
			domain.AuthnFailedErrorState{SessionContext: ctx},
			func(c Controller) bool { _, ok := c.(JourneyRestarting); return ok }},
		{"authn failed renders error response",
			domain.AuthnFailedErrorState{SessionContext: ctx},
			func(c Controller) bool { _, ok := c.(ErrorResponsePrepared); return ok }},
		{"timeout renders error response",
			domain.TimeoutState{SessionContext: ctx},
			func(c Controller) bool { _, ok := c.(ErrorResponsePrepared); return ok }},
		{"session started cannot render success response",
			domain.SessionStartedState{SessionContext: ctx},
			func(c Controller) bool { _, ok := c.(ResponsePrepared); return !ok }},
		{"idp selected cannot accept matching responses", idpSelectedState(),
			func(c Controller) bool { _, ok := c.(WaitingForMatchResponse); return !ok }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, err := New(tt.state, env.svc)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ctrl.CurrentState().Kind() != tt.state.Kind() {
				t.Errorf("Expected current state '%s', got '%s'", tt.state.Kind(), ctrl.CurrentState().Kind())
			}
			if !tt.check(ctrl) {
				t.Errorf("Capability check failed for state '%s'", tt.state.Kind())
			}
		})
	}
}

func TestNewControllerCoversEveryKind(t *testing.T) {
	env := newTestEnv()
	ctx := sessionCtx()
	matchCtx := matchRequestCtx(env.clock)

	states := []domain.State{
		domain.SessionStartedState{SessionContext: ctx},
		domain.CountrySelectedState{SessionContext: ctx},
		idpSelectedState(),
		domain.Cycle01MatchRequestSentState{MatchRequestContext: matchCtx},
		domain.Cycle3MatchRequestSentState{MatchRequestContext: matchCtx},
		domain.EidasCycle01MatchRequestSentState{MatchRequestContext: matchCtx},
		domain.EidasCycle3MatchRequestSentState{MatchRequestContext: matchCtx},
		domain.UserAccountCreationRequestSentState{MatchRequestContext: matchCtx},
		domain.EidasUserAccountCreationRequestSentState{MatchRequestContext: matchCtx},
		domain.AwaitingCycle3DataState{SessionContext: ctx},
		domain.EidasAwaitingCycle3DataState{SessionContext: ctx},
		domain.SuccessfulMatchState{SessionContext: ctx},
		domain.EidasSuccessfulMatchState{SessionContext: ctx},
		domain.NoMatchState{SessionContext: ctx},
		domain.UserAccountCreatedState{SessionContext: ctx},
		domain.UserAccountCreationFailedState{SessionContext: ctx},
		domain.NonMatchingJourneySuccessState{SessionContext: ctx},
		domain.Cycle3DataInputCancelledState{SessionContext: ctx},
		domain.AuthnFailedErrorState{SessionContext: ctx},
		domain.EidasAuthnFailedErrorState{SessionContext: ctx},
		domain.RequesterErrorState{SessionContext: ctx},
		domain.FraudEventDetectedState{SessionContext: ctx},
		domain.MatchingServiceRequestErrorState{SessionContext: ctx},
		domain.TimeoutState{SessionContext: ctx},
	}

	for _, state := range states {
		if _, err := New(state, env.svc); err != nil {
			t.Errorf("Expected a controller for kind '%s', got error: %v", state.Kind(), err)
		}
	}
}
