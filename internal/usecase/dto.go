package usecase

const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusIgnored = "ignored"

	ActionCreatedDeal   = "created_deal"
	ActionUpdatedStatus = "updated_status"

	ReasonDuplicateEvent  = "duplicate_event"
	ReasonDuplicate       = "duplicate"
	ReasonUnhandledEvent  = "unhandled_event"
	ReasonNoConversation  = "no_conversation_data"
	ReasonNoMatchingLabel = "no_matching_labels"
	ReasonNoContactInfo   = "no_contact_info"
	ReasonDealNotFound    = "deal_not_found"
	ReasonSameStatus      = "same_status"
	ReasonTenantNotFound  = "user_not_found_for_account"
)

// WebhookResult é o corpo devolvido ao Chatwoot (sempre 200 fora de auth/persistência).
type WebhookResult struct {
	Status    string `json:"status"`
	Action    string `json:"action,omitempty"`
	Reason    string `json:"reason,omitempty"`
	NewStatus string `json:"new_status,omitempty"`
	ID        string `json:"id,omitempty"`
}

func skipped(reason string) WebhookResult {
	return WebhookResult{Status: StatusSkipped, Reason: reason}
}

type CreateStageInput struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Color     string `json:"color"`
	Order     *int   `json:"order,omitempty"`
	IsDefault bool   `json:"is_default"`
}

// UpdateStageInput só mexe no que veio preenchido. Slug não muda.
type UpdateStageInput struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
	Order *int    `json:"order,omitempty"`
}

type UpdateDealInput struct {
	Status   *string  `json:"status,omitempty"`
	Value    *float64 `json:"value,omitempty"`
	Priority *string  `json:"priority,omitempty"`
}
