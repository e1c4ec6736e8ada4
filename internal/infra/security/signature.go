package security

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/xavierca1/tork-crm/internal/infra/integration/chatwoot"
)

const SignatureHeader = "X-Chatwoot-Signature"

const (
	ReasonMissingSignature  = "missing-signature"
	ReasonMalformedPayload  = "malformed-payload"
	ReasonUnknownTenant     = "unknown-tenant"
	ReasonSignatureMismatch = "signature-mismatch"
)

type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return "webhook authentication failed: " + e.Reason
}

func IsAuthenticationError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

type SecretSource interface {
	Resolve(ctx context.Context, externalAccountID int64) (string, error)
}

// SignatureVerifier valida o HMAC-SHA256 sobre os bytes crus do corpo.
// Nunca re-serializar o JSON antes de verificar: qualquer byte diferente invalida a assinatura.
type SignatureVerifier struct {
	secrets SecretSource
}

func NewSignatureVerifier(secrets SecretSource) *SignatureVerifier {
	return &SignatureVerifier{secrets: secrets}
}

// Verify devolve o account.id do corpo quando a assinatura confere.
func (v *SignatureVerifier) Verify(ctx context.Context, rawBody []byte, signature string) (int64, error) {
	sig := strings.TrimSpace(signature)
	if sig == "" {
		return 0, &AuthenticationError{Reason: ReasonMissingSignature}
	}

	var envelope struct {
		Account struct {
			ID chatwoot.ID `json:"id"`
		} `json:"account"`
	}
	if err := json.Unmarshal(rawBody, &envelope); err != nil || envelope.Account.ID <= 0 {
		return 0, &AuthenticationError{Reason: ReasonMalformedPayload}
	}
	accountID := int64(envelope.Account.ID)

	secret, err := v.secrets.Resolve(ctx, accountID)
	if errors.Is(err, ErrNoSecret) {
		return 0, &AuthenticationError{Reason: ReasonUnknownTenant}
	}
	if err != nil {
		return 0, err
	}

	if len(sig) > len("sha256=") && strings.EqualFold(sig[:len("sha256=")], "sha256=") {
		sig = sig[len("sha256="):]
	}
	provided, err := hex.DecodeString(sig)
	if err != nil {
		return 0, &AuthenticationError{Reason: ReasonSignatureMismatch}
	}

	if !hmac.Equal(provided, Sign(secret, rawBody)) {
		return 0, &AuthenticationError{Reason: ReasonSignatureMismatch}
	}
	return accountID, nil
}

func Sign(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// SignHex é o valor que o Chatwoot manda no header.
func SignHex(secret string, body []byte) string {
	return hex.EncodeToString(Sign(secret, body))
}
