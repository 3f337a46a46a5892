// Package scheduling owns the end-to-end pipeline for one inbound scheduling
// event: validate, translate codes, resolve the Belle customer, book the
// appointment, write results back onto the lead and promote it into a deal.
package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/crepaldi/agenda-bridge/internal/belle"
	"github.com/crepaldi/agenda-bridge/internal/bitrix"
	"github.com/crepaldi/agenda-bridge/internal/mapping"
	"github.com/crepaldi/agenda-bridge/internal/observability/metrics"
	"github.com/crepaldi/agenda-bridge/pkg/logging"
)

var tracer = otel.Tracer("agendabridge.internal.scheduling")

// Service runs the scheduling pipeline. All state lives in the per-event
// flow; the service itself is safe for concurrent use. Concurrent events for
// the same lead are not serialized.
type Service struct {
	crm     CRMGateway
	agenda  SchedulingGateway
	tables  *mapping.Tables
	metrics *metrics.BookingMetrics
	logger  *logging.Logger

	defaultDuration int
	defaultSlot     int
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDefaultDuration sets the fallback procedure duration in minutes.
func WithDefaultDuration(mins int) Option {
	return func(s *Service) {
		if mins > 0 {
			s.defaultDuration = mins
		}
	}
}

// WithDefaultSlot sets the slot duration sent in legacy booking payloads.
func WithDefaultSlot(mins int) Option {
	return func(s *Service) {
		if mins > 0 {
			s.defaultSlot = mins
		}
	}
}

// NewService constructs the pipeline service.
func NewService(crm CRMGateway, agenda SchedulingGateway, tables *mapping.Tables, logger *logging.Logger, opts ...Option) *Service {
	if crm == nil {
		panic("scheduling: crm gateway required")
	}
	if agenda == nil {
		panic("scheduling: scheduling gateway required")
	}
	if tables == nil {
		panic("scheduling: mapping tables required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		crm:             crm,
		agenda:          agenda,
		tables:          tables,
		logger:          logger,
		defaultDuration: DefaultDurationMins,
		defaultSlot:     15,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// flow is the mutable state of one event moving through the pipeline.
type flow struct {
	event   *Event
	eventID string
	log     *logging.Logger

	est       string // canonical Belle establishment code
	prof      string // canonical Belle professional code
	customer  string // Belle customer code
	contactID int64
	lead      bitrix.Fields

	ref      ProcedureReference
	services []belle.ServiceItem

	bookingCode string
	dealID      int64
	warnings    []string
}

// Process runs the pipeline for one event. The returned Result reflects the
// booking stage: stages after booking are best-effort enrichment and never
// downgrade a successful booking. Terminal failures return both a structured
// Result and the typed error, after leaving a best-effort comment on the
// lead.
func (s *Service) Process(ctx context.Context, event *Event) (*Result, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "scheduling.process")
	defer span.End()

	f := &flow{event: event, eventID: uuid.NewString()}
	f.log = s.logger.WithEvent(f.eventID, event.LeadID)
	span.SetAttributes(
		attribute.String("agendabridge.event_id", f.eventID),
		attribute.Int64("agendabridge.lead_id", event.LeadID),
	)

	outcome := "error"
	defer func() {
		s.metrics.ObserveProcessed(outcome)
		s.metrics.ObserveLatency(time.Since(start).Seconds())
	}()

	f.log.Info("scheduling event received",
		"establishment", event.EstablishmentCode,
		"professional", event.ProfessionalCode,
		"date", event.Date,
		"time", event.Time,
	)

	if missing := event.missingFields(); len(missing) > 0 {
		outcome = "input_error"
		err := &InputError{Missing: missing}
		s.metrics.ObserveStageFailure(stageValidate)
		f.log.Error("required fields missing", "fields", missing)
		s.comment(ctx, f, "❌ Erro ao agendar - Parâmetros faltando:\n\n"+err.Error()+
			"\n\nVerifique se os parâmetros do workflow estão configurados corretamente.")
		return s.failure(span, event, err, missing), err
	}

	if res := s.resolveEstablishment(ctx, f); res.status == stageWarn {
		f.warnings = append(f.warnings, res.warning)
	}

	if res := s.validateRoster(ctx, f); res.status != stageOK {
		if res.status == stageFail {
			outcome = "validation_error"
			s.metrics.ObserveStageFailure(res.stage)
			span.RecordError(res.err)
			s.comment(ctx, f, "❌ Erro ao agendar:\n\n"+res.err.Error())
			return s.failure(span, event, res.err, nil), res.err
		}
		f.warnings = append(f.warnings, res.warning)
	}

	if res := s.resolveCustomer(ctx, f); res.status != stageOK {
		if res.status == stageFail {
			outcome = "customer_error"
			s.metrics.ObserveStageFailure(res.stage)
			span.RecordError(res.err)
			s.comment(ctx, f, "Erro ao criar cliente na Belle:\n"+res.err.Error())
			return s.failure(span, event, res.err, nil), res.err
		}
		f.warnings = append(f.warnings, res.warning)
	}

	s.parseProcedure(f)

	if res := s.book(ctx, f); res.status == stageFail {
		outcome = "booking_error"
		s.metrics.ObserveStageFailure(res.stage)
		span.RecordError(res.err)
		s.comment(ctx, f, "Erro ao criar agendamento:\n"+res.err.Error())
		return s.failure(span, event, res.err, nil), res.err
	}
	span.SetAttributes(attribute.String("agendabridge.booking_code", f.bookingCode))

	// Booking succeeded: everything below is best-effort enrichment.
	for _, run := range []func(context.Context, *flow) stageResult{
		s.updateLead,
		s.successComment,
		s.promote,
		s.attachLineItem,
	} {
		res := run(ctx, f)
		if res.status == stageOK {
			continue
		}
		s.metrics.ObserveStageFailure(res.stage)
		f.log.Warn("post-booking stage degraded",
			"stage", res.stage,
			"warning", res.warning,
			"error", res.err,
		)
	}

	outcome = "success"
	f.log.Info("scheduling event processed", "booking_code", f.bookingCode, "deal_id", f.dealID)
	return &Result{
		Success:     true,
		Message:     "Agendamento processado com sucesso",
		BookingCode: f.bookingCode,
		LeadID:      event.LeadID,
		DealID:      f.dealID,
		Warning:     strings.Join(f.warnings, "; "),
	}, nil
}

func (s *Service) failure(span trace.Span, event *Event, err error, missing []string) *Result {
	span.SetAttributes(attribute.Bool("agendabridge.success", false))
	return &Result{
		Success:       false,
		Message:       err.Error(),
		LeadID:        event.LeadID,
		MissingFields: missing,
	}
}

// resolveEstablishment translates the event's establishment value (internal
// list element id or Belle code) into the canonical Belle code, falling back
// to a CRM list lookup when the static tables miss. Never terminal.
func (s *Service) resolveEstablishment(ctx context.Context, f *flow) stageResult {
	est := s.tables.Establishments()
	f.est = est.Canonical(f.event.EstablishmentCode)
	f.prof = s.tables.Professionals().Canonical(f.event.ProfessionalCode)

	if !est.IsKnown(f.est) {
		el, err := s.crm.GetListElement(ctx, bitrix.EstablishmentIblockID, f.event.EstablishmentCode)
		if err != nil {
			f.log.Warn("establishment list lookup failed", "element_id", f.event.EstablishmentCode, "error", err)
		} else if code := firstNonEmpty(el.String("PROPERTY_ID"), el.String("ID")); code != "" {
			f.log.Info("establishment resolved via crm list", "element_id", f.event.EstablishmentCode, "belle_code", code)
			f.est = code
		}
	}

	if !est.IsKnown(f.est) {
		s.metrics.ObserveMappingMiss("establishment")
		warning := fmt.Sprintf("Estabelecimento %s pode estar incorreto!", describeCode(f.est, f.event.EstablishmentName))
		s.comment(ctx, f, "AVISO: "+warning)
		return stageWarned(stageEstablishment, warning)
	}
	return stageDone(stageEstablishment)
}

// validateRoster confirms the professional is bookable at the establishment.
// A roster query failure only warns; a confirmed-invalid pairing is terminal.
// The asymmetry is deliberate.
func (s *Service) validateRoster(ctx context.Context, f *flow) stageResult {
	roster, err := s.agenda.ListProfessionals(ctx, f.est)
	if err != nil {
		f.log.Warn("roster query failed, proceeding unvalidated", "establishment", f.est, "error", err)
		return stageWarned(stageRoster, "Não foi possível validar o profissional no estabelecimento")
	}

	for _, p := range roster {
		if p.Code != f.prof {
			continue
		}
		if !p.Bookable {
			return stageFailed(stageRoster, &PairingError{ProfessionalCode: f.prof, EstablishmentCode: f.est})
		}
		return stageDone(stageRoster)
	}
	return stageFailed(stageRoster, &PairingError{ProfessionalCode: f.prof, EstablishmentCode: f.est})
}

// resolveCustomer finds the Belle customer code for this lead via the linked
// contact's cross-reference field, creating the customer when none exists.
// Only the creation call is terminal.
func (s *Service) resolveCustomer(ctx context.Context, f *flow) stageResult {
	f.customer = f.event.CustomerCode

	lead, err := s.crm.GetLead(ctx, f.event.LeadID)
	if err != nil {
		f.log.Warn("lead fetch failed, proceeding with event data only", "error", err)
	} else {
		f.lead = lead
		f.contactID = lead.Int64("CONTACT_ID")
	}

	var document string
	if f.customer == "" && f.contactID > 0 {
		contact, err := s.crm.GetContact(ctx, f.contactID)
		if err != nil {
			f.log.Warn("contact fetch failed", "contact_id", f.contactID, "error", err)
		} else {
			f.customer = contact.String(bitrix.FieldCodigoClienteBelle)
			document = contact.String(bitrix.ContactFieldCPF)
		}
	}

	if f.customer != "" {
		return stageDone(stageCustomer)
	}

	if !ValidDocument(document) {
		document = SynthesizeDocument(f.event.LeadID)
		f.log.Warn("identity document missing or malformed, synthesized substitute", "contact_id", f.contactID)
	}

	code, err := s.agenda.CreateOrUpdateCustomer(ctx, belle.CustomerProfile{
		Name:     firstNonEmpty(f.event.LeadName, f.lead.String("TITLE")),
		Phone:    f.event.LeadPhone,
		Document: document,
	})
	if err != nil {
		return stageFailed(stageCustomer, err)
	}
	f.customer = code
	f.log.Info("belle customer created", "customer_code", code)

	if f.contactID > 0 {
		err := s.crm.UpdateContact(ctx, f.contactID, map[string]string{
			bitrix.FieldCodigoClienteBelle: code,
		})
		if err != nil {
			f.log.Warn("customer code writeback failed", "contact_id", f.contactID, "error", err)
		}
	}
	return stageDone(stageCustomer)
}

// parseProcedure decodes the service token. Never fails.
func (s *Service) parseProcedure(f *flow) {
	f.ref = ParseProcedure(f.event.ProcedureToken, f.event.Params, s.defaultDuration)
	for _, ref := range ParseServiceList(f.event.ProcedureToken, f.event.Params, s.defaultDuration) {
		f.services = append(f.services, belle.ServiceItem{
			Code:         ref.Code,
			Name:         ref.Name,
			DurationMins: ref.DurationMins,
		})
	}
}

func (s *Service) book(ctx context.Context, f *flow) stageResult {
	res, err := s.agenda.BookAppointment(ctx, belle.BookingRequest{
		CustomerCode:      f.customer,
		CustomerName:      firstNonEmpty(f.event.LeadName, f.lead.String("TITLE")),
		CustomerPhone:     f.event.LeadPhone,
		Date:              f.event.Date,
		Time:              f.event.Time,
		EstablishmentCode: f.est,
		ProfessionalCode:  f.prof,
		VisitType:         f.event.VisitType,
		Services:          f.services,
		SlotMins:          s.defaultSlot,
		EquipmentCode:     f.event.EquipmentCode,
		NewCard:           f.event.NewCard,
		Note:              f.event.Note,
		LeadID:            f.event.LeadID,
	})
	if err != nil {
		return stageFailed(stageBooking, err)
	}
	f.bookingCode = res.BookingCode
	f.log.Info("appointment booked", "booking_code", f.bookingCode, "establishment", f.est)
	return stageDone(stageBooking)
}

func (s *Service) updateLead(ctx context.Context, f *flow) stageResult {
	fields := map[string]string{
		bitrix.FieldDataAgendamento:   f.event.Date + " " + f.event.Time + ":00",
		bitrix.FieldCodigoAgendamento: f.bookingCode,
		bitrix.FieldProfissional:      firstNonEmpty(f.event.ProfessionalName, f.prof),
		bitrix.FieldEstabelecimento:   describeCode(f.est, s.tables.Establishments().Name(f.est)),
		bitrix.FieldProcedimento:      f.event.ProcedureToken,
		bitrix.FieldTipoConsulta:      f.event.VisitType,
	}
	if equip := firstNonEmpty(f.event.EquipmentName, f.event.EquipmentCode); equip != "" {
		fields[bitrix.FieldEquipamento] = equip
	}

	if err := s.crm.UpdateLead(ctx, f.event.LeadID, fields); err != nil {
		return stageFailed(stageUpdateLead, err)
	}
	f.log.Info("lead updated")
	return stageDone(stageUpdateLead)
}

func (s *Service) successComment(ctx context.Context, f *flow) stageResult {
	var b strings.Builder
	b.WriteString("Agendamento Criado com Sucesso\n\n")
	fmt.Fprintf(&b, "Codigo do Agendamento: %s\n", f.bookingCode)
	fmt.Fprintf(&b, "Data: %s\n", f.event.Date)
	fmt.Fprintf(&b, "Hora: %s\n", f.event.Time)
	fmt.Fprintf(&b, "Profissional: %s\n", firstNonEmpty(f.event.ProfessionalName, f.prof))
	fmt.Fprintf(&b, "Estabelecimento: %s\n", describeCode(f.est, s.tables.Establishments().Name(f.est)))
	fmt.Fprintf(&b, "Servicos: %s\n", f.event.ProcedureToken)
	if equip := firstNonEmpty(f.event.EquipmentName, f.event.EquipmentCode); equip != "" {
		fmt.Fprintf(&b, "Equipamento: %s\n", equip)
	}

	if err := s.crm.AddTimelineComment(ctx, "lead", f.event.LeadID, b.String()); err != nil {
		return stageFailed(stageComment, err)
	}
	return stageDone(stageComment)
}

// comment leaves a best-effort note on the lead. It never raises: comment
// failures are logged and swallowed, the CRM timeline being advisory.
func (s *Service) comment(ctx context.Context, f *flow, text string) {
	if err := s.crm.AddTimelineComment(ctx, "lead", f.event.LeadID, text); err != nil {
		f.log.Error("failed to add lead comment", "error", err)
	}
}

// describeCode renders "code (name)" when a display name is known.
func describeCode(code, name string) string {
	if name == "" {
		return code
	}
	return code + " (" + name + ")"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
