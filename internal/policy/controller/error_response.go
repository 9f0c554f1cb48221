package controller

import (
	"context"

	"github.com/identity-federation/hub/internal/policy/domain"
)

type errorResponseKind int

const (
	errNoAuthnContext errorResponseKind = iota
	errAuthnFailed
	errRequester
)

// errorResponder provides the ErrorResponse operation shared by every state
// in the error-response-prepared class. The kind picks which of the hub's
// error statuses the relying party sees.
type errorResponder struct {
	svc        *Services
	sessionCtx domain.SessionContext
	relayState string
	kind       errorResponseKind
}

func (e errorResponder) ErrorResponse(ctx context.Context) (domain.ResponseFromHub, error) {
	var resp domain.ResponseFromHub
	switch e.kind {
	case errAuthnFailed:
		resp = e.svc.Responses.AuthnFailedResponse(e.sessionCtx, e.relayState)
	case errRequester:
		resp = e.svc.Responses.RequesterErrorResponse(e.sessionCtx, e.relayState)
	default:
		resp = e.svc.Responses.NoAuthnContextResponse(e.sessionCtx, e.relayState)
	}
	e.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventErrorResponseToTransaction,
		SessionID:             e.sessionCtx.SessionID,
		RequestID:             e.sessionCtx.RequestID,
		RequestIssuerEntityID: e.sessionCtx.RequestIssuerEntityID,
		SessionExpiry:         e.sessionCtx.SessionExpiry,
	})
	return resp, nil
}
