// Package dispatch sends attribute queries to the saml-soap-proxy, which
// owns the SAML signing and SOAP exchange with matching service adapters.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/identity-federation/hub/internal/policy/domain"
)

const requestSenderPath = "/matching-service-request-sender"

// HTTPDispatcher posts attribute query requests over the internal HTTP API.
type HTTPDispatcher struct {
	baseURL string
	client  *http.Client
}

func NewHTTPDispatcher(baseURL string) *HTTPDispatcher {
	return &HTTPDispatcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type attributeQueryPayload struct {
	RequestID                         string            `json:"request_id"`
	TransactionEntityID               string            `json:"transaction_entity_id"`
	AssertionConsumerServiceURL       string            `json:"assertion_consumer_service_url"`
	MatchingServiceEntityID           string            `json:"matching_service_entity_id"`
	MatchingServiceURI                string            `json:"matching_service_uri"`
	MatchingServiceRequestTimeout     time.Time         `json:"matching_service_request_timeout"`
	Onboarding                        bool              `json:"onboarding"`
	LevelOfAssurance                  string            `json:"level_of_assurance"`
	PersistentID                      string            `json:"persistent_id"`
	AssertionExpiry                   time.Time         `json:"assertion_expiry"`
	EncryptedMatchingDatasetAssertion string            `json:"encrypted_matching_dataset_assertion,omitempty"`
	AuthnStatementAssertion           string            `json:"authn_statement_assertion,omitempty"`
	EncryptedIdentityAssertion        string            `json:"encrypted_identity_assertion,omitempty"`
	Cycle3Dataset                     map[string]string `json:"cycle3_dataset,omitempty"`
	UserAccountCreationAttributes     []string          `json:"user_account_creation_attributes,omitempty"`
}

// Send implements domain.AttributeQueryDispatcher.
func (d *HTTPDispatcher) Send(ctx context.Context, sessionID domain.SessionID, query domain.AttributeQueryRequest) error {
	payload := attributeQueryPayload{
		RequestID:                         query.RequestID,
		TransactionEntityID:               query.TransactionEntityID,
		AssertionConsumerServiceURL:       query.AssertionConsumerServiceURL,
		MatchingServiceEntityID:           query.MatchingServiceEntityID,
		MatchingServiceURI:                query.MatchingServiceURI,
		MatchingServiceRequestTimeout:     query.MatchingServiceRequestTimeout,
		Onboarding:                        query.Onboarding,
		LevelOfAssurance:                  query.LevelOfAssurance.String(),
		PersistentID:                      query.PersistentID,
		AssertionExpiry:                   query.AssertionExpiry,
		EncryptedMatchingDatasetAssertion: query.EncryptedMatchingDatasetAssertion,
		AuthnStatementAssertion:           query.AuthnStatementAssertion,
		EncryptedIdentityAssertion:        query.EncryptedIdentityAssertion,
		UserAccountCreationAttributes:     query.UserAccountCreationAttributes,
	}
	if query.Cycle3Dataset != nil {
		payload.Cycle3Dataset = query.Cycle3Dataset.Attributes
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal attribute query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+requestSenderPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build attribute query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", string(sessionID))

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send attribute query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("attribute query rejected: status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
