package controller

import (
	"github.com/identity-federation/hub/internal/policy/domain"
)

// buildIdpSelectedState validates an identity-provider selection against
// relying-party and provider configuration and produces the next state. It
// is shared by every controller that permits (re-)selection.
func buildIdpSelectedState(
	svc *Services,
	sessionCtx domain.SessionContext,
	relayState string,
	forceAuthentication *bool,
	idpEntityID string,
	registering bool,
	requestedLoa domain.LevelOfAssurance,
) (domain.IdpSelectedState, error) {
	var zero domain.IdpSelectedState

	transactionLevels, err := svc.Transactions.LevelsOfAssurance(sessionCtx.RequestIssuerEntityID)
	if err != nil {
		return zero, err
	}
	if !levelsContain(transactionLevels, requestedLoa) {
		return zero, domain.AssuranceUnsupportedByTransaction(sessionCtx.RequestIssuerEntityID, transactionLevels, requestedLoa)
	}

	enabled, err := svc.IdentityProviders.EnabledForAuthnRequest(sessionCtx.RequestIssuerEntityID, registering, requestedLoa)
	if err != nil {
		return zero, err
	}
	if !stringsContain(enabled, idpEntityID) {
		return zero, domain.UnavailableIdp(idpEntityID, sessionCtx.SessionID)
	}

	idp, err := svc.IdentityProviders.Idp(idpEntityID)
	if err != nil {
		return zero, err
	}

	// A provider temporarily taken out of registration must not pull an
	// in-flight LEVEL_2 sign-in down to LEVEL_1 (ADR-0035).
	enabledForRegistration, err := svc.IdentityProviders.EnabledForRegistration(idpEntityID, sessionCtx.RequestIssuerEntityID, requestedLoa)
	if err != nil {
		return zero, err
	}
	if !enabledForRegistration &&
		len(transactionLevels) == 2 &&
		transactionLevels[0] == domain.Level2 &&
		transactionLevels[1] == domain.Level1 {
		transactionLevels = []domain.LevelOfAssurance{domain.Level2}
	}

	agreedLevels := make([]domain.LevelOfAssurance, 0, len(transactionLevels))
	for _, l := range transactionLevels {
		if levelsContain(idp.SupportedLevelsOfAssurance, l) {
			agreedLevels = append(agreedLevels, l)
		}
	}
	if len(agreedLevels) == 0 {
		return zero, domain.StateProcessingError{
			Reason:  domain.ReasonIdpUnsupportedAssurance,
			Message: "identity provider " + idpEntityID + " supports none of the transaction's levels of assurance",
		}
	}

	matchingServiceEntityID, err := svc.Transactions.MatchingServiceEntityID(sessionCtx.RequestIssuerEntityID)
	if err != nil {
		return zero, err
	}

	return domain.IdpSelectedState{
		SessionContext:             sessionCtx,
		IdpEntityID:                idpEntityID,
		MatchingServiceEntityID:    matchingServiceEntityID,
		LevelsOfAssurance:          agreedLevels,
		UseExactComparisonType:     idp.UseExactComparisonType,
		ForceAuthentication:        forceAuthentication,
		RelayState:                 relayState,
		Registering:                registering,
		RequestedLoa:               requestedLoa,
		AvailableIdentityProviders: enabled,
	}, nil
}

func levelsContain(levels []domain.LevelOfAssurance, level domain.LevelOfAssurance) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}

func stringsContain(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
