package scheduling

import (
	"context"

	"github.com/crepaldi/agenda-bridge/internal/bitrix"
)

// promote creates the deal for a booked appointment in the pipeline routed
// by establishment, copying every lead field present in the correspondence
// table through the schema mapper and overlaying the values this event
// produced, then marks the lead converted. Non-fatal: the booking stands
// even when promotion fails.
func (s *Service) promote(ctx context.Context, f *flow) stageResult {
	route := s.tables.RouteFor(f.est)

	fields := make(map[string]any)
	for _, id := range s.tables.FieldIDs() {
		dest, mapped, ok, warn := s.tables.MapField(id, f.lead.String(id))
		if warn {
			s.metrics.ObserveMappingMiss(id)
		}
		if ok {
			fields[dest] = mapped
		}
	}

	// Event-derived values take precedence over anything copied from the
	// lead: the lead may hold stale data from a previous booking attempt.
	fields[bitrix.DealFieldCodigoAgendamento] = f.bookingCode
	fields[bitrix.DealFieldDataAgendamento] = f.event.Date + " " + f.event.Time + ":00"
	fields[bitrix.DealFieldProfissional] = s.tables.Professionals().ElementID(f.prof)
	fields[bitrix.DealFieldEstabelecimento] = s.tables.Establishments().ElementID(f.est)
	if f.ref.Name != "" {
		fields[bitrix.DealFieldProcedimento] = s.tables.ProcedureIDByName(f.ref.Name)
	}
	if f.event.VisitType != "" {
		fields[bitrix.DealFieldTipoConsulta] = f.event.VisitType
	}
	if f.customer != "" {
		fields[bitrix.DealFieldCodigoCliente] = f.customer
	}

	fields["TITLE"] = firstNonEmpty(f.event.LeadName, f.lead.String("TITLE"))
	fields["CATEGORY_ID"] = route.CategoryID
	fields["STAGE_ID"] = route.StageID
	fields["LEAD_ID"] = f.event.LeadID
	if f.contactID > 0 {
		fields["CONTACT_ID"] = f.contactID
	}

	dealID, err := s.crm.CreateDeal(ctx, fields)
	if err != nil {
		return stageFailed(stagePromote, err)
	}
	f.dealID = dealID
	f.log.Info("lead promoted to deal",
		"deal_id", dealID,
		"category_id", route.CategoryID,
		"stage_id", route.StageID,
	)

	err = s.crm.UpdateLead(ctx, f.event.LeadID, map[string]string{
		"STATUS_ID": bitrix.StatusConverted,
	})
	if err != nil {
		return stageWarned(stagePromote, "deal criado mas lead não foi convertido")
	}
	return stageDone(stagePromote)
}

// attachLineItem adds the booked procedure as a priced product row on the
// deal. Non-fatal; skipped when promotion did not produce a deal.
func (s *Service) attachLineItem(ctx context.Context, f *flow) stageResult {
	if f.dealID == 0 || f.ref.Name == "" {
		return stageDone(stageLineItem)
	}

	rows := []bitrix.ProductRow{{
		ProductName: f.ref.Name,
		Price:       f.ref.Price,
		Quantity:    1,
	}}
	if err := s.crm.SetDealProductRows(ctx, f.dealID, rows); err != nil {
		return stageFailed(stageLineItem, err)
	}
	return stageDone(stageLineItem)
}
