// Package belle is a thin client for the Belle Software scheduling API.
package belle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/crepaldi/agenda-bridge/pkg/logging"
)

const defaultTimeout = 30 * time.Second

// PayloadVersion selects the booking payload shape sent to Belle.
type PayloadVersion string

const (
	// PayloadLegacy is the original flat payload with a single slot duration.
	PayloadLegacy PayloadVersion = "legacy"
	// PayloadV2 carries per-service durations.
	PayloadV2 PayloadVersion = "v2"
)

// Client calls the Belle Software scheduling API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	version    PayloadVersion
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

// WithPayloadVersion selects the booking payload shape. Unrecognized values
// fall back to v2.
func WithPayloadVersion(v string) Option {
	return func(c *Client) {
		if PayloadVersion(strings.ToLower(v)) == PayloadLegacy {
			c.version = PayloadLegacy
		} else {
			c.version = PayloadV2
		}
	}
}

// NewClient creates a Belle client for the given base URL.
func NewClient(baseURL string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		version:    PayloadV2,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateOrUpdateCustomer upserts a customer and returns its Belle code.
func (c *Client) CreateOrUpdateCustomer(ctx context.Context, profile CustomerProfile) (string, error) {
	raw, err := c.post(ctx, "/clientes", profile)
	if err != nil {
		return "", err
	}
	code := stringValue(raw, "codCliente", "codigo_cliente")
	if code == "" {
		return "", &AppointmentError{Message: firstNonEmpty(stringValue(raw, "erro", "mensagem"), "resposta sem codCliente")}
	}
	return code, nil
}

// ListProfessionals returns the roster of an establishment.
func (c *Client) ListProfessionals(ctx context.Context, establishmentCode string) ([]Professional, error) {
	raw, err := c.post(ctx, "/profissionais", map[string]string{
		"codEstabelecimento": establishmentCode,
	})
	if err != nil {
		return nil, err
	}
	var out struct {
		Profissionais []Professional `json:"profissionais"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("belle: /profissionais: unmarshal response: %w", err)
	}
	return out.Profissionais, nil
}

// BookAppointment books one appointment. A response carrying an error
// message without a booking code is an application-level rejection even when
// the HTTP call itself succeeded.
func (c *Client) BookAppointment(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	raw, err := c.post(ctx, "/agendar", c.bookingPayload(req))
	if err != nil {
		return nil, err
	}

	code := stringValue(raw, "codAgendamento", "codigo_agendamento")
	if code == "" {
		msg := stringValue(raw, "erro", "mensagem")
		if msg == "" {
			msg = "resposta sem codAgendamento"
		}
		return nil, &AppointmentError{Message: msg}
	}
	return &BookingResult{BookingCode: code}, nil
}

func (c *Client) bookingPayload(req BookingRequest) any {
	if c.version == PayloadLegacy {
		codes := make([]string, 0, len(req.Services))
		for _, s := range req.Services {
			codes = append(codes, firstNonEmpty(s.Code, s.Name))
		}
		return legacyBookingPayload{
			CodCliente:         req.CustomerCode,
			NomeCliente:        req.CustomerName,
			TelefoneCliente:    req.CustomerPhone,
			DataAgendamento:    req.Date,
			HoraAgendamento:    req.Time,
			CodEstabelecimento: req.EstablishmentCode,
			CodProfissional:    req.ProfessionalCode,
			TipoAgendamento:    req.VisitType,
			Servicos:           codes,
			Tempo:              req.SlotMins,
			CodEquipamento:     req.EquipmentCode,
			NovoCard:           req.NewCard,
			Observacao:         req.Note,
			LeadID:             req.LeadID,
		}
	}
	return bookingPayloadV2{
		CodCliente:         req.CustomerCode,
		NomeCliente:        req.CustomerName,
		TelefoneCliente:    req.CustomerPhone,
		DataAgendamento:    req.Date,
		HoraAgendamento:    req.Time,
		CodEstabelecimento: req.EstablishmentCode,
		CodProfissional:    req.ProfessionalCode,
		TipoAgendamento:    req.VisitType,
		Servicos:           req.Services,
		CodEquipamento:     req.EquipmentCode,
		NovoCard:           req.NewCard,
		Observacao:         req.Note,
		LeadID:             req.LeadID,
	}
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("belle: missing base url")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("belle: %s: marshal request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("belle: %s: create request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("belle api error", "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("belle: %s: http request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("belle: %s: read response: %w", endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return nil, fmt.Errorf("belle: %s: status %d: %s", endpoint, resp.StatusCode, msg)
	}

	return json.RawMessage(respBody), nil
}

// stringValue extracts the first present key from a JSON object, rendering
// numeric values the way Belle sometimes returns codes.
func stringValue(raw json.RawMessage, keys ...string) string {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	for _, key := range keys {
		switch v := obj[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatInt(int64(v), 10)
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
