// Package bitrix is a thin client for the Bitrix24 CRM REST API, reached
// through an inbound-webhook channel that carries the credentials in the URL.
package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/crepaldi/agenda-bridge/pkg/logging"
)

const defaultTimeout = 30 * time.Second

// Client calls Bitrix REST methods over the webhook channel.
type Client struct {
	webhookURL string
	httpClient *http.Client
	logger     *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-call HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a Bitrix client for the given inbound-webhook URL
// (https://<portal>/rest/<user>/<token>).
func NewClient(webhookURL string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		webhookURL: strings.TrimRight(webhookURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetLead fetches a lead's field map.
func (c *Client) GetLead(ctx context.Context, leadID int64) (Fields, error) {
	var fields Fields
	if err := c.call(ctx, "crm.lead.get", map[string]any{"id": leadID}, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// UpdateLead writes field values onto a lead.
func (c *Client) UpdateLead(ctx context.Context, leadID int64, fields map[string]string) error {
	var ok bool
	return c.call(ctx, "crm.lead.update", map[string]any{
		"id":     leadID,
		"fields": fields,
	}, &ok)
}

// AddTimelineComment appends a comment to an entity's activity timeline.
// entityType is the Bitrix entity name, e.g. "lead" or "deal".
func (c *Client) AddTimelineComment(ctx context.Context, entityType string, entityID int64, comment string) error {
	var result json.RawMessage
	return c.call(ctx, "crm.timeline.comment.add", map[string]any{
		"fields": map[string]any{
			"ENTITY_ID":   entityID,
			"ENTITY_TYPE": entityType,
			"COMMENT":     comment,
		},
	}, &result)
}

// GetContact fetches a contact's field map.
func (c *Client) GetContact(ctx context.Context, contactID int64) (Fields, error) {
	var fields Fields
	if err := c.call(ctx, "crm.contact.get", map[string]any{"id": contactID}, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// UpdateContact writes field values onto a contact.
func (c *Client) UpdateContact(ctx context.Context, contactID int64, fields map[string]string) error {
	var ok bool
	return c.call(ctx, "crm.contact.update", map[string]any{
		"id":     contactID,
		"fields": fields,
	}, &ok)
}

// CreateDeal creates a deal and returns its id.
func (c *Client) CreateDeal(ctx context.Context, fields map[string]any) (int64, error) {
	var dealID int64
	if err := c.call(ctx, "crm.deal.add", map[string]any{"fields": fields}, &dealID); err != nil {
		return 0, err
	}
	return dealID, nil
}

// SetDealProductRows replaces the product rows of a deal.
func (c *Client) SetDealProductRows(ctx context.Context, dealID int64, rows []ProductRow) error {
	var ok bool
	return c.call(ctx, "crm.deal.productrows.set", map[string]any{
		"id":   dealID,
		"rows": rows,
	}, &ok)
}

// GetListElement fetches one element of an information-block list. Bitrix
// returns a list even for a single-element query.
func (c *Client) GetListElement(ctx context.Context, iblockID int, elementID string) (Fields, error) {
	var elements []Fields
	err := c.call(ctx, "lists.element.get", map[string]any{
		"IBLOCK_TYPE_ID": "lists",
		"IBLOCK_ID":      iblockID,
		"ELEMENT_ID":     elementID,
	}, &elements)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, &APIError{Method: "lists.element.get", Code: "NOT_FOUND", Description: "element " + elementID + " not found"}
	}
	return elements[0], nil
}

func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	if c.webhookURL == "" {
		return fmt.Errorf("bitrix: missing webhook url")
	}

	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("bitrix: %s: marshal request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("bitrix: %s: create request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("bitrix api error", "method", method, "error", err)
		return fmt.Errorf("bitrix: %s: http request: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("bitrix: %s: read response: %w", method, err)
	}

	var env apiEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return fmt.Errorf("bitrix: %s: status %d: unmarshal response: %s", method, resp.StatusCode, msg)
	}

	if env.Error != "" {
		c.logger.Error("bitrix api rejected call", "method", method, "code", env.Error, "description", env.ErrorDescription)
		return &APIError{Method: method, Code: env.Error, Description: env.ErrorDescription}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bitrix: %s: status %d", method, resp.StatusCode)
	}

	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("bitrix: %s: unmarshal result: %w", method, err)
		}
	}
	return nil
}
