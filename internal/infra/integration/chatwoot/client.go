package chatwoot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/tork-crm/internal/entity"
)

const maxResponseBytes = 1 << 20

var ErrLabelExists = errors.New("label já existe no chatwoot")

// StatusError é qualquer resposta fora da faixa 2xx.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chatwoot %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// NewHTTPClient cria o client compartilhado com pool limitado e timeout por chamada.
func NewHTTPClient(timeout time.Duration, maxConns int) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxConns <= 0 {
		maxConns = 20
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        maxConns,
		MaxIdleConnsPerHost: maxConns,
		MaxConnsPerHost:     maxConns,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// Client fala com a API v1 do Chatwoot. As credenciais vêm por chamada porque
// cada tenant tem a sua instância/token.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{httpClient: httpClient, logger: logger}
}

func (c *Client) SearchContacts(ctx context.Context, creds entity.Credentials, query string) ([]Contact, error) {
	q := url.Values{"q": {query}}
	var out contactSearchResponse
	if err := c.do(ctx, creds, "contact_search", http.MethodGet, "/contacts/search?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Payload, nil
}

// ListOpenConversations devolve as conversas abertas do contato na ordem da API (mais recente primeiro).
func (c *Client) ListOpenConversations(ctx context.Context, creds entity.Credentials, contactID int64) ([]Conversation, error) {
	q := url.Values{"status": {"open"}, "contact_id": {strconv.FormatInt(contactID, 10)}}
	var out conversationListResponse
	if err := c.do(ctx, creds, "conversation_list", http.MethodGet, "/conversations?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Data.Payload, nil
}

func (c *Client) GetConversationLabels(ctx context.Context, creds entity.Credentials, conversationID int64) ([]string, error) {
	var out labelsResponse
	path := fmt.Sprintf("/conversations/%d/labels", conversationID)
	if err := c.do(ctx, creds, "labels_read", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Payload, nil
}

// SetConversationLabels substitui o conjunto inteiro; a API não tem update parcial.
func (c *Client) SetConversationLabels(ctx context.Context, creds entity.Credentials, conversationID int64, labels []string) error {
	path := fmt.Sprintf("/conversations/%d/labels", conversationID)
	return c.do(ctx, creds, "labels_write", http.MethodPost, path, labelsRequest{Labels: labels}, nil)
}

func (c *Client) UpdateContactAttributes(ctx context.Context, creds entity.Credentials, contactID int64, attrs map[string]any) error {
	path := fmt.Sprintf("/contacts/%d", contactID)
	return c.do(ctx, creds, "contact_update", http.MethodPut, path, contactUpdateRequest{CustomAttributes: attrs}, nil)
}

// CreateLabel devolve ErrLabelExists quando o Chatwoot responde 422.
func (c *Client) CreateLabel(ctx context.Context, creds entity.Credentials, title, color string) error {
	if color == "" || !strings.HasPrefix(color, "#") {
		color = "#64748b"
	}
	err := c.do(ctx, creds, "label_create", http.MethodPost, "/labels", createLabelRequest{Title: title, Color: color, ShowOnSidebar: true}, nil)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnprocessableEntity {
		return ErrLabelExists
	}
	return err
}

func (c *Client) do(ctx context.Context, creds entity.Credentials, op, method, path string, in, out any) error {
	endpoint := fmt.Sprintf("%s/api/v1/accounts/%d%s", strings.TrimRight(creds.BaseURL, "/"), creds.AccountID, path)

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("chatwoot %s: erro ao serializar payload: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("chatwoot %s: %w", op, err)
	}
	req.Header.Set("api_access_token", creds.Token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chatwoot %s: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	c.logger.Debug("chatwoot call",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: truncate(string(respBody), 256)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("chatwoot %s: resposta inválida: %w", op, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
