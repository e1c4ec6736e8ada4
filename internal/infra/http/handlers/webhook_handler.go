package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/tork-crm/internal/infra/http/middleware"
	"github.com/xavierca1/tork-crm/internal/infra/integration/chatwoot"
	"github.com/xavierca1/tork-crm/internal/infra/security"
	"github.com/xavierca1/tork-crm/internal/usecase"
)

const maxWebhookBody = 1 << 20

type WebhookVerifier interface {
	Verify(ctx context.Context, rawBody []byte, signature string) (int64, error)
}

type WebhookProcessor interface {
	Execute(ctx context.Context, accountID int64, p *chatwoot.WebhookPayload) (usecase.WebhookResult, error)
}

type ChatwootWebhookHandler struct {
	Verifier  WebhookVerifier
	Processor WebhookProcessor
	Logger    *zap.Logger
}

func NewChatwootWebhookHandler(v WebhookVerifier, p WebhookProcessor, logger *zap.Logger) *ChatwootWebhookHandler {
	return &ChatwootWebhookHandler{Verifier: v, Processor: p, Logger: logger}
}

// Handle autentica sobre os bytes crus, antes de qualquer parse do corpo.
// Fora de auth (401), corpo grande (413) e falha de persistência (500), responde sempre 200.
func (h *ChatwootWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, webhookError("payload too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, webhookError("could not read body"))
		return
	}

	accountID, err := h.Verifier.Verify(r.Context(), body, r.Header.Get(security.SignatureHeader))
	if err != nil {
		var authErr *security.AuthenticationError
		if errors.As(err, &authErr) {
			middleware.RecordWebhookAuthFailure(authErr.Reason)
			h.Logger.Warn("🔒 webhook rejeitado", zap.String("reason", authErr.Reason), zap.String("remote", r.RemoteAddr))
			writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "error", "reason": authErr.Reason})
			return
		}
		h.Logger.Error("falha ao resolver segredo do webhook", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, webhookError("internal error"))
		return
	}

	var payload chatwoot.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		middleware.RecordWebhookAuthFailure(security.ReasonMalformedPayload)
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": security.ReasonMalformedPayload})
		return
	}

	res, err := h.Processor.Execute(r.Context(), accountID, &payload)
	if err != nil {
		middleware.RecordWebhookEvent(payload.Event, "error", "persistence")
		h.Logger.Error("❌ erro ao processar webhook",
			zap.String("event", payload.Event),
			zap.Int64("account_id", accountID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, webhookError("internal error"))
		return
	}

	middleware.RecordWebhookEvent(payload.Event, res.Status, res.Reason)
	h.Logger.Info("webhook processado",
		zap.String("event", payload.Event),
		zap.Int64("account_id", accountID),
		zap.String("status", res.Status),
		zap.String("reason", res.Reason),
	)
	writeJSON(w, http.StatusOK, res)
}

func webhookError(detail string) map[string]string {
	return map[string]string{"status": "error", "detail": detail}
}
