// Package api exposes the policy engine over the hub's internal HTTP API.
// Callers are the SAML frontend and the saml-soap-proxy, never end users.
package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/identity-federation/hub/internal/policy/domain"
	"github.com/identity-federation/hub/internal/policy/session"
	"github.com/identity-federation/hub/internal/shared/errors"
)

// Handler provides HTTP handlers for the policy module
type Handler struct {
	sessions *session.Service
}

// NewHandler creates a new policy handler
func NewHandler(sessions *session.Service) *Handler {
	return &Handler{sessions: sessions}
}

// Routes registers the policy routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.StartSession)

	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/sign-in-process-details", h.SignInProcessDetails)
		r.Put("/select-identity-provider", h.SelectIdentityProvider)
		r.Put("/select-country", h.SelectCountry)
		r.Get("/authn-request-from-hub", h.AuthnRequestFromHub)
		r.Post("/try-another-idp", h.TryAnotherIdp)

		r.Post("/idp-authn-response", h.IdpAuthnResponse)
		r.Post("/country-authn-response", h.CountryAuthnResponse)

		r.Post("/attribute-query-response", h.AttributeQueryResponse)
		r.Post("/matching-service-request-failure", h.MatchingServiceRequestFailure)
		r.Get("/response-process-details", h.ResponseProcessDetails)

		r.Get("/cycle-3-attribute", h.Cycle3AttributeDetails)
		r.Post("/cycle-3-attribute", h.SubmitCycle3Attribute)
		r.Post("/cycle-3-attribute/cancel", h.CancelCycle3Attribute)

		r.Get("/response-from-hub", h.ResponseFromHub)
		r.Get("/error-response-from-hub", h.ErrorResponseFromHub)

		r.Get("/", h.SessionDetails)
	})

	return r
}

type startSessionRequest struct {
	RequestID                   string `json:"request_id"`
	Issuer                      string `json:"issuer"`
	RelayState                  string `json:"relay_state"`
	AssertionConsumerServiceURL string `json:"assertion_consumer_service_url"`
	ForceAuthentication         *bool  `json:"force_authentication,omitempty"`
}

// StartSession mints a session for a translated relying-party request
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	if req.RequestID == "" || req.Issuer == "" {
		writeError(w, errors.Validation("missing required fields", map[string]string{
			"request_id": "required",
			"issuer":     "required",
		}))
		return
	}

	id, err := h.sessions.StartSession(r.Context(), session.SessionStartRequest{
		RequestID:                   req.RequestID,
		Issuer:                      req.Issuer,
		RelayState:                  req.RelayState,
		AssertionConsumerServiceURL: req.AssertionConsumerServiceURL,
		ForceAuthentication:         req.ForceAuthentication,
	})
	if err != nil {
		writeError(w, mapDomainError(err))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"session_id": string(id)})
}

// SessionDetails answers the frontend's basic questions about a session
func (h *Handler) SessionDetails(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)

	issuer, err := h.sessions.RequestIssuerEntityID(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err))
		return
	}
	eidas, err := h.sessions.TransactionSupportsEidas(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":                 id,
		"transaction_entity_id":      issuer,
		"transaction_supports_eidas": eidas,
	})
}

// SignInProcessDetails returns the provider choices for the sign-in UI
func (h *Handler) SignInProcessDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.sessions.SignInProcessDetails(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, mapDomainError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"idp_entity_ids":             details.AvailableIdentityProviders,
		"request_issuer_id":          details.RequestIssuerEntityID,
		"transaction_supports_eidas": details.TransactionSupportsEidas,
	})
}

type selectIdpRequest struct {
	SelectedIdpEntityID           string `json:"selected_idp_entity_id"`
	PrincipalIPAddressAsSeenByHub string `json:"principal_ip_address_as_seen_by_hub"`
	Registration                  bool   `json:"registration"`
	RequestedLoa                  string `json:"requested_loa"`
}

// SelectIdentityProvider records the user's provider choice
func (h *Handler) SelectIdentityProvider(w http.ResponseWriter, r *http.Request) {
	var req selectIdpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	loa, err := domain.ParseLevelOfAssurance(req.RequestedLoa)
	if err != nil {
		writeError(w, errors.BadRequest("invalid requested_loa"))
		return
	}

	err = h.sessions.SelectIdp(r.Context(), sessionID(r), req.SelectedIdpEntityID, req.PrincipalIPAddressAsSeenByHub, req.Registration, loa)
	if err != nil {
		writeError(w, mapDomainError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type selectCountryRequest struct {
	CountryEntityID string `json:"country_entity_id"`
}

// SelectCountry records the user's eIDAS country choice
func (h *Handler) SelectCountry(w http.ResponseWriter, r *http.Request) {
	var req selectCountryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if err := h.sessions.SelectCountry(r.Context(), sessionID(r), req.CountryEntityID); err != nil {
		writeError(w, mapDomainError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AuthnRequestFromHub returns the outbound request towards the selected
// provider or country
func (h *Handler) AuthnRequestFromHub(w http.ResponseWriter, r *http.Request) {
	request, err := h.sessions.RequestFromHub(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, mapDomainError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":                        request.RequestID,
		"levels_of_assurance":       request.LevelsOfAssurance,
		"use_exact_comparison_type": request.UseExactComparisonType,
		"recipient_entity_id":       request.RecipientEntityID,
		"force_authentication":      request.ForceAuthentication,
		"session_expiry_timestamp":  request.SessionExpiry,
		"registering":               request.Registering,
		"overridden_sso_url":        request.OverriddenSsoURL,
	})
}

// TryAnotherIdp restarts provider selection after a failed registration
func (h *Handler) TryAnotherIdp(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.TryAnotherIdp(r.Context(), sessionID(r)); err != nil {
		writeError(w, mapDomainError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Identity provider response statuses as the SAML frontend reports them.
const (
	idpStatusSuccess        = "SUCCESS"
	idpStatusAuthnFailed    = "AUTHENTICATION_FAILED"
	idpStatusNoAuthnContext = "NO_AUTHENTICATION_CONTEXT"
	idpStatusRequesterError = "REQUESTER_ERROR"
	idpStatusFraud          = "FRAUD"
)

type idpResponseRequest struct {
	Status                            string `json:"status"`
	Issuer                            string `json:"issuer"`
	EncryptedMatchingDatasetAssertion string `json:"encrypted_matching_dataset_assertion,omitempty"`
	EncryptedAuthnAssertion           string `json:"encrypted_authn_assertion,omitempty"`
	PersistentID                      string `json:"persistent_id,omitempty"`
	LevelOfAssurance                  string `json:"level_of_assurance,omitempty"`
	PrincipalIPAddressAsSeenByHub     string `json:"principal_ip_address_as_seen_by_hub"`
	PrincipalIPAddressAsSeenByIdp     string `json:"principal_ip_address_as_seen_by_idp,omitempty"`
	ErrorMessage                      string `json:"error_message,omitempty"`
	FraudEventID                      string `json:"fraud_event_id,omitempty"`
	FraudIndicator                    string `json:"fraud_indicator,omitempty"`
}

// IdpAuthnResponse processes a translated identity-provider response
func (h *Handler) IdpAuthnResponse(w http.ResponseWriter, r *http.Request) {
	var req idpResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	id := sessionID(r)

	var action domain.ResponseAction
	var err error
	switch req.Status {
	case idpStatusSuccess:
		var loa domain.LevelOfAssurance
		loa, err = domain.ParseLevelOfAssurance(req.LevelOfAssurance)
		if err != nil {
			writeError(w, errors.BadRequest("invalid level_of_assurance"))
			return
		}
		action, err = h.sessions.HandleSuccessResponseFromIdp(r.Context(), id, domain.SuccessFromIdp{
			Issuer:                            req.Issuer,
			EncryptedMatchingDatasetAssertion: req.EncryptedMatchingDatasetAssertion,
			EncryptedAuthnAssertion:           req.EncryptedAuthnAssertion,
			PersistentID:                      req.PersistentID,
			LevelOfAssurance:                  loa,
			PrincipalIPAddressAsSeenByHub:     req.PrincipalIPAddressAsSeenByHub,
			PrincipalIPAddressAsSeenByIdp:     req.PrincipalIPAddressAsSeenByIdp,
		})
	case idpStatusAuthnFailed:
		action, err = h.sessions.HandleAuthnFailedResponseFromIdp(r.Context(), id, domain.AuthenticationErrorResponse{
			Issuer:                        req.Issuer,
			PrincipalIPAddressAsSeenByHub: req.PrincipalIPAddressAsSeenByHub,
		})
	case idpStatusNoAuthnContext:
		action, err = h.sessions.HandleNoAuthnContextResponseFromIdp(r.Context(), id, domain.AuthenticationErrorResponse{
			Issuer:                        req.Issuer,
			PrincipalIPAddressAsSeenByHub: req.PrincipalIPAddressAsSeenByHub,
		})
	case idpStatusRequesterError:
		action, err = h.sessions.HandleRequesterErrorResponseFromIdp(r.Context(), id, domain.RequesterErrorResponse{
			Issuer:                        req.Issuer,
			ErrorMessage:                  req.ErrorMessage,
			PrincipalIPAddressAsSeenByHub: req.PrincipalIPAddressAsSeenByHub,
		})
	case idpStatusFraud:
		action, err = h.sessions.HandleFraudResponseFromIdp(r.Context(), id, domain.FraudFromIdp{
			Issuer:       req.Issuer,
			PersistentID: req.PersistentID,
			Details: domain.FraudDetectedDetails{
				EventID:   req.FraudEventID,
				Indicator: req.FraudIndicator,
			},
			PrincipalIPAddressAsSeenByHub: req.PrincipalIPAddressAsSeenByHub,
			PrincipalIPAddressAsSeenByIdp: req.PrincipalIPAddressAsSeenByIdp,
		})
	default:
		writeError(w, errors.BadRequest("unknown response status"))
		return
	}
	if err != nil {
		writeError(w, mapDomainError(err))
		return
	}

	writeJSON(w, http.StatusOK, action)
}

type countryResponseRequest struct {
	Status                        string `json:"status"`
	Issuer                        string `json:"issuer"`
	EncryptedIdentityAssertion    string `json:"encrypted_identity_assertion,omitempty"`
	PersistentID                  string `json:"persistent_id,omitempty"`
	LevelOfAssurance              string `json:"level_of_assurance,omitempty"`
	PrincipalIPAddressAsSeenByHub string `json:"principal_ip_address_as_seen_by_hub"`
}

// CountryAuthnResponse processes a translated country gateway response
func (h *Handler) CountryAuthnResponse(w http.ResponseWriter, r *http.Request) {
	var req countryResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	id := sessionID(r)

	var action domain.ResponseAction
	var err error
	switch req.Status {
	case idpStatusSuccess:
		var loa domain.LevelOfAssurance
		loa, err = domain.ParseLevelOfAssurance(req.LevelOfAssurance)
		if err != nil {
			writeError(w, errors.BadRequest("invalid level_of_assurance"))
			return
		}
		action, err = h.sessions.HandleSuccessResponseFromCountry(r.Context(), id, domain.SuccessFromCountry{
			Issuer:                        req.Issuer,
			EncryptedIdentityAssertion:    req.EncryptedIdentityAssertion,
			PersistentID:                  req.PersistentID,
			LevelOfAssurance:              loa,
			PrincipalIPAddressAsSeenByHub: req.PrincipalIPAddressAsSeenByHub,
		})
	case idpStatusAuthnFailed:
		action, err = h.sessions.HandleAuthnFailedResponseFromCountry(r.Context(), id, domain.AuthenticationErrorResponse{
			Issuer:                        req.Issuer,
			PrincipalIPAddressAsSeenByHub: req.PrincipalIPAddressAsSeenByHub,
		})
	default:
		writeError(w, errors.BadRequest("unknown response status"))
		return
	}
	if err != nil {
		writeError(w, mapDomainError(err))
		return
	}

	writeJSON(w, http.StatusOK, action)
}

// Matching service response statuses as the saml-soap-proxy reports them.
const (
	matchStatusMatch              = "MATCH"
	matchStatusNoMatch            = "NO_MATCH"
	matchStatusUserAccountCreated = "USER_ACCOUNT_CREATED"
)

type matchingServiceResponseRequest struct {
	Status                   string `json:"status"`
	Issuer                   string `json:"issuer"`
	InResponseTo             string `json:"in_response_to"`
	MatchingServiceAssertion string `json:"matching_service_assertion,omitempty"`
	LevelOfAssurance         string `json:"level_of_assurance,omitempty"`
}

// AttributeQueryResponse processes a translated matching-service response
func (h *Handler) AttributeQueryResponse(w http.ResponseWriter, r *http.Request) {
	var req matchingServiceResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	id := sessionID(r)

	var err error
	switch req.Status {
	case matchStatusMatch:
		var loa domain.LevelOfAssurance
		loa, err = domain.ParseLevelOfAssurance(req.LevelOfAssurance)
		if err != nil {
			writeError(w, errors.BadRequest("invalid level_of_assurance"))
			return
		}
		err = h.sessions.HandleMatchResponse(r.Context(), id, domain.MatchFromMatchingService{
			Issuer:                   req.Issuer,
			InResponseTo:             req.InResponseTo,
			MatchingServiceAssertion: req.MatchingServiceAssertion,
			LevelOfAssurance:         loa,
		})
	case matchStatusNoMatch:
		err = h.sessions.HandleNoMatchResponse(r.Context(), id, domain.NoMatchFromMatchingService{
			Issuer:       req.Issuer,
			InResponseTo: req.InResponseTo,
		})
	case matchStatusUserAccountCreated:
		var loa domain.LevelOfAssurance
		loa, err = domain.ParseLevelOfAssurance(req.LevelOfAssurance)
		if err != nil {
			writeError(w, errors.BadRequest("invalid level_of_assurance"))
			return
		}
		err = h.sessions.HandleUserAccountCreatedResponse(r.Context(), id, domain.UserAccountCreatedFromMatchingService{
			Issuer:                   req.Issuer,
			InResponseTo:             req.InResponseTo,
			MatchingServiceAssertion: req.MatchingServiceAssertion,
			LevelOfAssurance:         loa,
		})
	default:
		writeError(w, errors.BadRequest("unknown response status"))
		return
	}
	if err != nil {
		writeError(w, mapDomainError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MatchingServiceRequestFailure records a transport failure reported by the
// saml-soap-proxy
func (h *Handler) MatchingServiceRequestFailure(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.HandleMatchRequestFailure(r.Context(), sessionID(r)); err != nil {
		writeError(w, mapDomainError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ResponseProcessDetails answers the frontend's poll during matching
func (h *Handler) ResponseProcessDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.sessions.ResponseProcessingDetails(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, mapDomainError(err))
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// Cycle3AttributeDetails tells the UI which attribute to collect
func (h *Handler) Cycle3AttributeDetails(w http.ResponseWriter, r *http.Request) {
	data, err := h.sessions.Cycle3AttributeRequestData(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, mapDomainError(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"attribute_name":    data.AttributeName,
		"request_issuer_id": data.RequestIssuerEntityID,
	})
}

type cycle3SubmitRequest struct {
	Cycle3Input                   string `json:"cycle_3_input"`
	PrincipalIPAddressAsSeenByHub string `json:"principal_ip_address_as_seen_by_hub"`
}

// SubmitCycle3Attribute accepts the user's self-asserted attribute value
func (h *Handler) SubmitCycle3Attribute(w http.ResponseWriter, r *http.Request) {
	var req cycle3SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	id := sessionID(r)

	data, err := h.sessions.Cycle3AttributeRequestData(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err))
		return
	}

	dataset := domain.NewCycle3Dataset(data.AttributeName, req.Cycle3Input)
	if err := h.sessions.SubmitCycle3Data(r.Context(), id, dataset, req.PrincipalIPAddressAsSeenByHub); err != nil {
		writeError(w, mapDomainError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CancelCycle3Attribute abandons cycle 3 collection
func (h *Handler) CancelCycle3Attribute(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.CancelCycle3Data(r.Context(), sessionID(r)); err != nil {
		writeError(w, mapDomainError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ResponseFromHub renders the final success or no-match response
func (h *Handler) ResponseFromHub(w http.ResponseWriter, r *http.Request) {
	resp, err := h.sessions.PreparedResponse(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, mapDomainError(err))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ErrorResponseFromHub renders an error response to the relying party
func (h *Handler) ErrorResponseFromHub(w http.ResponseWriter, r *http.Request) {
	resp, err := h.sessions.ErrorResponse(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, mapDomainError(err))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func sessionID(r *http.Request) domain.SessionID {
	return domain.SessionID(chi.URLParam(r, "sessionID"))
}

// mapDomainError translates policy errors into transport errors.
func mapDomainError(err error) error {
	var notFound domain.SessionNotFoundError
	if stderrors.As(err, &notFound) {
		return errors.NotFound("session", string(notFound.SessionID))
	}

	var exists domain.SessionAlreadyExistsError
	if stderrors.As(err, &exists) {
		return errors.Conflict("session already exists")
	}

	var timedOut domain.SessionTimedOutError
	if stderrors.As(err, &timedOut) {
		appErr := errors.Gone("session timed out")
		appErr.Details = map[string]string{
			"session_id": string(timedOut.SessionID),
			"expired_at": timedOut.SessionExpiry.UTC().Format("2006-01-02T15:04:05Z"),
		}
		return appErr
	}

	var invalidState domain.InvalidSessionStateError
	if stderrors.As(err, &invalidState) {
		appErr := errors.Conflict("session is in the wrong state for this operation")
		appErr.Code = "INVALID_SESSION_STATE"
		appErr.Details = map[string]string{
			"expected": invalidState.Expected,
			"actual":   string(invalidState.Actual),
		}
		return appErr
	}

	var disabled domain.IdpDisabledError
	if stderrors.As(err, &disabled) {
		appErr := errors.Conflict("identity provider is disabled")
		appErr.Code = "IDP_DISABLED"
		appErr.Details = map[string]string{"idp_entity_id": disabled.IdpEntityID}
		return appErr
	}

	var processing domain.StateProcessingError
	if stderrors.As(err, &processing) {
		appErr := errors.BadRequest(processing.Message)
		appErr.Code = "STATE_PROCESSING_ERROR"
		appErr.Details = map[string]string{"reason": string(processing.Reason)}
		return appErr
	}

	return errors.Internal(err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
