package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/crepaldi/agenda-bridge/internal/belle"
	"github.com/crepaldi/agenda-bridge/internal/scheduling"
	"github.com/crepaldi/agenda-bridge/pkg/logging"
)

// SchedulingService processes one scheduling event.
type SchedulingService interface {
	Process(ctx context.Context, event *scheduling.Event) (*scheduling.Result, error)
}

// ScheduleWebhookHandler receives scheduling events from the CRM workflow
// engine, in either the JSON or the query-parameter form, and hands them to
// the pipeline. Transport only: no business logic lives here.
type ScheduleWebhookHandler struct {
	service SchedulingService
	logger  *logging.Logger
}

func NewScheduleWebhookHandler(service SchedulingService, logger *logging.Logger) *ScheduleWebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ScheduleWebhookHandler{service: service, logger: logger}
}

// HealthCheck reports service liveness.
func (h *ScheduleWebhookHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "agenda-bridge"})
}

// HandleJSON processes the JSON body form (POST /webhook/agendar-json).
func (h *ScheduleWebhookHandler) HandleJSON(w http.ResponseWriter, r *http.Request) {
	var event scheduling.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if event.LeadID == 0 {
		http.Error(w, "lead_id is required", http.StatusBadRequest)
		return
	}
	if event.VisitType == "" {
		event.VisitType = "Consulta"
	}

	result, err := h.service.Process(r.Context(), &event)
	writeJSON(w, statusFor(err), result)
}

// HandleQuery processes the query-parameter form (GET/POST /webhook/agendar)
// used by the CRM workflow engine. Sibling parameters such as
// servico[...][tempo] ride along untouched for the procedure parser.
func (h *ScheduleWebhookHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	leadID, err := strconv.ParseInt(strings.TrimSpace(q.Get("lead_id")), 10, 64)
	if err != nil || leadID <= 0 {
		http.Error(w, "lead_id is required", http.StatusBadRequest)
		return
	}

	params := make(map[string]string, len(q))
	for key, values := range q {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	event := &scheduling.Event{
		LeadID:            leadID,
		LeadName:          q.Get("lead_nome"),
		LeadPhone:         q.Get("lead_telefone"),
		CustomerCode:      q.Get("codigo_cliente_belle"),
		Date:              q.Get("dataagendamento"),
		Time:              q.Get("horario"),
		EstablishmentCode: q.Get("estabelecimento"),
		ProfessionalCode:  q.Get("profissional"),
		VisitType:         q.Get("tipoagenda"),
		ProcedureToken:    q.Get("procedimento"),
		Params:            params,
		EquipmentCode:     q.Get("equipamento"),
		Note:              q.Get("obs"),
	}
	if event.VisitType == "" {
		event.VisitType = "Consulta"
	}

	result, procErr := h.service.Process(r.Context(), event)

	// The workflow engine treats non-2xx responses as retryable transport
	// failures, so the query form answers 200 with a structured failure and
	// echoes what it received for operator diagnosis.
	var inputErr *scheduling.InputError
	if errors.As(procErr, &inputErr) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":          false,
			"message":          result.Message,
			"lead_id":          result.LeadID,
			"campos_recebidos": map[string]string{
				"dataagendamento": event.Date,
				"horario":         event.Time,
				"profissional":    event.ProfessionalCode,
				"estabelecimento": event.EstablishmentCode,
				"tipoagenda":      event.VisitType,
				"procedimento":    event.ProcedureToken,
			},
		})
		return
	}

	writeJSON(w, statusFor(procErr), result)
}

// HandleRaw echoes whatever the CRM sent (POST /webhook/bitrix), for
// debugging workflow configurations that post unexpected shapes.
func (h *ScheduleWebhookHandler) HandleRaw(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusOK, map[string]string{"error": "unreadable body"})
			return
		}
		body = make(map[string]any, len(r.PostForm))
		for key, values := range r.PostForm {
			if len(values) > 0 {
				body[key] = values[0]
			}
		}
	}

	leadID := firstPresent(body, "document_id[2]", "DOCUMENT_ID[2]", "lead_id")
	h.logger.Info("raw bitrix webhook received", "lead_id", leadID)

	if leadID == nil {
		writeJSON(w, http.StatusOK, map[string]any{"error": "lead_id não encontrado", "body_received": body})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "received", "lead_id": leadID, "data": body})
}

// statusFor maps the pipeline error taxonomy onto HTTP statuses: input
// errors are the caller's fault, pairing rejections are unprocessable, and
// everything else is an upstream gateway failure.
func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var inputErr *scheduling.InputError
	if errors.As(err, &inputErr) {
		return http.StatusBadRequest
	}
	var pairErr *scheduling.PairingError
	if errors.As(err, &pairErr) {
		return http.StatusUnprocessableEntity
	}
	var appErr *belle.AppointmentError
	if errors.As(err, &appErr) {
		return http.StatusBadGateway
	}
	return http.StatusBadGateway
}

func firstPresent(body map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := body[key]; ok && v != nil && v != "" {
			return v
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
