package domain

import "time"

// SuccessFromIdp is a translated successful authentication response from a
// domestic identity provider. Assertion blobs stay opaque to the core.
type SuccessFromIdp struct {
	Issuer                            string
	EncryptedMatchingDatasetAssertion string
	EncryptedAuthnAssertion           string
	PersistentID                      string
	LevelOfAssurance                  LevelOfAssurance
	PrincipalIPAddressAsSeenByHub     string
	PrincipalIPAddressAsSeenByIdp     string
}

// AuthenticationErrorResponse covers no-authn-context and
// authentication-failed responses.
type AuthenticationErrorResponse struct {
	Issuer                        string
	PrincipalIPAddressAsSeenByHub string
}

// RequesterErrorResponse is an IdP response blaming the request itself.
type RequesterErrorResponse struct {
	Issuer                        string
	ErrorMessage                  string
	PrincipalIPAddressAsSeenByHub string
}

// FraudDetectedDetails carries the provider's fraud indicators.
type FraudDetectedDetails struct {
	EventID   string
	Indicator string
}

// FraudFromIdp is a fraud-flagged response from an identity provider.
type FraudFromIdp struct {
	Issuer                        string
	PersistentID                  string
	Details                       FraudDetectedDetails
	PrincipalIPAddressAsSeenByHub string
	PrincipalIPAddressAsSeenByIdp string
}

// SuccessFromCountry is a translated successful response from an eIDAS
// country gateway.
type SuccessFromCountry struct {
	Issuer                        string
	EncryptedIdentityAssertion    string
	PersistentID                  string
	LevelOfAssurance              LevelOfAssurance
	PrincipalIPAddressAsSeenByHub string
}

// MatchFromMatchingService is a translated match result.
type MatchFromMatchingService struct {
	Issuer                   string
	InResponseTo             string
	MatchingServiceAssertion string
	LevelOfAssurance         LevelOfAssurance
}

// NoMatchFromMatchingService is a translated no-match result.
type NoMatchFromMatchingService struct {
	Issuer       string
	InResponseTo string
}

// UserAccountCreatedFromMatchingService is a translated account-creation
// success.
type UserAccountCreatedFromMatchingService struct {
	Issuer                   string
	InResponseTo             string
	MatchingServiceAssertion string
	LevelOfAssurance         LevelOfAssurance
}

// MatchingServiceResponse discriminates the four response shapes handled by
// the match-request-sent family.
type MatchingServiceResponse interface {
	ResponseIssuer() string
	ResponseInResponseTo() string
}

func (m MatchFromMatchingService) ResponseIssuer() string         { return m.Issuer }
func (m MatchFromMatchingService) ResponseInResponseTo() string   { return m.InResponseTo }
func (m NoMatchFromMatchingService) ResponseIssuer() string       { return m.Issuer }
func (m NoMatchFromMatchingService) ResponseInResponseTo() string { return m.InResponseTo }
func (m UserAccountCreatedFromMatchingService) ResponseIssuer() string {
	return m.Issuer
}
func (m UserAccountCreatedFromMatchingService) ResponseInResponseTo() string {
	return m.InResponseTo
}

// Cycle3Dataset carries the user's self-asserted attribute.
type Cycle3Dataset struct {
	Attributes map[string]string
}

func NewCycle3Dataset(name, value string) Cycle3Dataset {
	return Cycle3Dataset{Attributes: map[string]string{name: value}}
}

// Cycle3AttributeRequestData tells the UI which self-asserted attribute to
// collect.
type Cycle3AttributeRequestData struct {
	AttributeName         string
	RequestIssuerEntityID string
}

// AttributeQueryRequest is the outbound matching-service request handed to
// the dispatcher. One shape covers the cycle 0/1, cycle 3, account-creation
// and eIDAS variants; unused fields stay zero.
type AttributeQueryRequest struct {
	RequestID                         string
	TransactionEntityID               string
	AssertionConsumerServiceURL       string
	MatchingServiceEntityID           string
	MatchingServiceURI                string
	MatchingServiceRequestTimeout     time.Time
	Onboarding                        bool
	LevelOfAssurance                  LevelOfAssurance
	PersistentID                      string
	AssertionExpiry                   time.Time
	EncryptedMatchingDatasetAssertion string
	AuthnStatementAssertion           string
	EncryptedIdentityAssertion        string
	Cycle3Dataset                     *Cycle3Dataset
	UserAccountCreationAttributes     []string
}

// AuthnRequestFromHub holds the parameters of the outbound authentication
// request towards the selected provider or country.
type AuthnRequestFromHub struct {
	RequestID              string
	LevelsOfAssurance      []LevelOfAssurance
	UseExactComparisonType bool
	RecipientEntityID      string
	ForceAuthentication    *bool
	SessionExpiry          time.Time
	Registering            bool
	OverriddenSsoURL       string
}

// AuthnRequestSignInProcess describes the selection context for the sign-in
// UI.
type AuthnRequestSignInProcess struct {
	AvailableIdentityProviders []string
	RequestIssuerEntityID      string
	TransactionSupportsEidas   bool
}
