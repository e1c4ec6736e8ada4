package chatwoot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	EventContactCreated      = "contact_created"
	EventConversationUpdated = "conversation_updated"
	EventMessageCreated      = "message_created"
)

// ID aceita tanto número quanto string no JSON (o Chatwoot já mandou os dois).
type ID int64

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = 0
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*id = 0
			return nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("id inválido %q: %w", s, err)
	}
	*id = ID(n)
	return nil
}

// ---- Webhook (entrada) ----

// WebhookPayload cobre os formatos novo (data.*) e antigo (campos no topo).
type WebhookPayload struct {
	Event   string `json:"event"`
	Account struct {
		ID ID `json:"id"`
	} `json:"account"`
	Data struct {
		Conversation *WebhookConversation `json:"conversation"`
		Contact      *WebhookContact      `json:"contact"`
	} `json:"data"`

	// formato antigo
	ID           ID                   `json:"id"`
	Labels       []string             `json:"labels"`
	Conversation *WebhookConversation `json:"conversation"`
	Sender       *WebhookContact      `json:"sender"`
	Meta         *ConversationMeta    `json:"meta"`
	ContactInbox *ContactInbox        `json:"contact_inbox"`
	Name         string               `json:"name"`
	Email        string               `json:"email"`
	PhoneNumber  string               `json:"phone_number"`
}

type WebhookConversation struct {
	ID           ID                `json:"id"`
	Labels       []string          `json:"labels"`
	ContactInbox *ContactInbox     `json:"contact_inbox"`
	Meta         *ConversationMeta `json:"meta"`
}

type ContactInbox struct {
	Contact *WebhookContact `json:"contact"`
}

type ConversationMeta struct {
	Sender *WebhookContact `json:"sender"`
}

type WebhookContact struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Type        string `json:"type"` // "contact" ou "user" (agente)
}

const SenderTypeContact = "contact"

// IsContact diz se o remetente é o cliente. Em mensagem enviada pelo agente o sender é o usuário.
func (c *WebhookContact) IsContact() bool {
	return c != nil && strings.EqualFold(strings.TrimSpace(c.Type), SenderTypeContact)
}

func (c *WebhookContact) HasIdentity() bool {
	return c != nil && (strings.TrimSpace(c.Email) != "" || strings.TrimSpace(c.PhoneNumber) != "")
}

// ---- API REST (saída) ----

type Contact struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

type contactSearchResponse struct {
	Payload []Contact `json:"payload"`
}

type Conversation struct {
	ID     int64    `json:"id"`
	Status string   `json:"status"`
	Labels []string `json:"labels"`
}

type conversationListResponse struct {
	Data struct {
		Payload []Conversation `json:"payload"`
	} `json:"data"`
}

type labelsResponse struct {
	Payload []string `json:"payload"`
}

type labelsRequest struct {
	Labels []string `json:"labels"`
}

type contactUpdateRequest struct {
	CustomAttributes map[string]any `json:"custom_attributes"`
}

type createLabelRequest struct {
	Title         string `json:"title"`
	Color         string `json:"color"`
	ShowOnSidebar bool   `json:"show_on_sidebar"`
}
