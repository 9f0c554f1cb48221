package domain

import (
	"context"
	"time"
)

// SessionStore is the narrow persistence boundary. Implementations must
// provide read-after-write consistency per session id and an atomic Replace;
// different session ids are fully independent.
type SessionStore interface {
	Get(ctx context.Context, id SessionID) (State, error)
	Insert(ctx context.Context, id SessionID, state State) error
	Replace(ctx context.Context, id SessionID, state State) error
	Has(ctx context.Context, id SessionID) (bool, error)
}

// MatchingProcess describes how a relying party matches users: an optional
// self-asserted ("cycle 3") attribute collected when automated matching
// fails.
type MatchingProcess struct {
	AttributeName string
}

// HasCycle3Attribute reports whether a cycle 3 attribute is configured.
func (m MatchingProcess) HasCycle3Attribute() bool { return m.AttributeName != "" }

// EidasCountry is an enabled cross-border country gateway.
type EidasCountry struct {
	EntityID         string
	SimpleID         string
	OverriddenSsoURL string
}

// TransactionConfig resolves relying-party configuration. Read-only.
type TransactionConfig interface {
	LevelsOfAssurance(transactionEntityID string) ([]LevelOfAssurance, error)
	MatchingServiceEntityID(transactionEntityID string) (string, error)
	MatchingProcess(transactionEntityID string) (MatchingProcess, error)
	UserAccountCreationAttributes(transactionEntityID string) ([]string, error)
	UsesMatching(transactionEntityID string) (bool, error)
	EidasCountries(transactionEntityID string) ([]EidasCountry, error)
}

// IdpConfig is a single identity provider's configuration.
type IdpConfig struct {
	EntityID                   string
	SupportedLevelsOfAssurance []LevelOfAssurance
	UseExactComparisonType     bool
}

// IdentityProviderConfig resolves identity-provider configuration. Read-only.
type IdentityProviderConfig interface {
	// EnabledForAuthnRequest lists the providers enabled for the given
	// (relying party, registering, requested level) triple.
	EnabledForAuthnRequest(transactionEntityID string, registering bool, loa LevelOfAssurance) ([]string, error)
	Idp(idpEntityID string) (IdpConfig, error)
	EnabledForRegistration(idpEntityID, transactionEntityID string, loa LevelOfAssurance) (bool, error)
}

// MatchingServiceInfo is a matching service adapter's configuration.
type MatchingServiceInfo struct {
	EntityID               string
	URI                    string
	UserAccountCreationURI string
	Onboarding             bool
}

// MatchingServiceConfig resolves matching-service configuration. Read-only.
type MatchingServiceConfig interface {
	MatchingService(entityID string) (MatchingServiceInfo, error)
}

// AttributeQueryDispatcher sends an attribute query to the matching-service
// transport, fire-and-forget: the core never retries, a failure surfaces as
// an ordinary error to the caller.
type AttributeQueryDispatcher interface {
	Send(ctx context.Context, sessionID SessionID, query AttributeQueryRequest) error
}

// Clock abstracts time for timeout computations.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// IDGenerator mints ids for outbound hub messages.
type IDGenerator interface {
	NewID() string
}

// AssertionRestrictions bounds the validity of assertions embedded in
// outbound attribute queries.
type AssertionRestrictions struct {
	clock    Clock
	lifetime time.Duration
}

func NewAssertionRestrictions(clock Clock, lifetime time.Duration) *AssertionRestrictions {
	return &AssertionRestrictions{clock: clock, lifetime: lifetime}
}

// Expiry returns now plus the configured assertion lifetime.
func (f *AssertionRestrictions) Expiry() time.Time {
	return f.clock.Now().Add(f.lifetime)
}
