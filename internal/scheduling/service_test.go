package scheduling

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crepaldi/agenda-bridge/internal/belle"
	"github.com/crepaldi/agenda-bridge/internal/bitrix"
	"github.com/crepaldi/agenda-bridge/internal/mapping"
)

type fakeCRM struct {
	lead       bitrix.Fields
	leadErr    error
	contact    bitrix.Fields
	contactErr error

	listElement bitrix.Fields
	listErr     error

	updateErr  error
	commentErr error
	dealErr    error
	rowsErr    error

	leadUpdates    []map[string]string
	contactUpdates []map[string]string
	comments       []string
	dealFields     map[string]any
	dealID         int64
	productRows    []bitrix.ProductRow
}

func (c *fakeCRM) GetLead(_ context.Context, _ int64) (bitrix.Fields, error) {
	return c.lead, c.leadErr
}

func (c *fakeCRM) UpdateLead(_ context.Context, _ int64, fields map[string]string) error {
	if c.updateErr != nil {
		return c.updateErr
	}
	c.leadUpdates = append(c.leadUpdates, fields)
	return nil
}

func (c *fakeCRM) AddTimelineComment(_ context.Context, _ string, _ int64, comment string) error {
	if c.commentErr != nil {
		return c.commentErr
	}
	c.comments = append(c.comments, comment)
	return nil
}

func (c *fakeCRM) GetContact(_ context.Context, _ int64) (bitrix.Fields, error) {
	return c.contact, c.contactErr
}

func (c *fakeCRM) UpdateContact(_ context.Context, _ int64, fields map[string]string) error {
	c.contactUpdates = append(c.contactUpdates, fields)
	return nil
}

func (c *fakeCRM) CreateDeal(_ context.Context, fields map[string]any) (int64, error) {
	if c.dealErr != nil {
		return 0, c.dealErr
	}
	c.dealFields = fields
	if c.dealID == 0 {
		c.dealID = 9917
	}
	return c.dealID, nil
}

func (c *fakeCRM) SetDealProductRows(_ context.Context, _ int64, rows []bitrix.ProductRow) error {
	if c.rowsErr != nil {
		return c.rowsErr
	}
	c.productRows = rows
	return nil
}

func (c *fakeCRM) GetListElement(_ context.Context, _ int, _ string) (bitrix.Fields, error) {
	return c.listElement, c.listErr
}

type fakeAgenda struct {
	customerCode string
	customerErr  error
	roster       []belle.Professional
	rosterErr    error
	bookingCode  string
	bookErr      error

	customers    []belle.CustomerProfile
	bookRequests []belle.BookingRequest
}

func (a *fakeAgenda) CreateOrUpdateCustomer(_ context.Context, p belle.CustomerProfile) (string, error) {
	if a.customerErr != nil {
		return "", a.customerErr
	}
	a.customers = append(a.customers, p)
	return a.customerCode, nil
}

func (a *fakeAgenda) ListProfessionals(_ context.Context, _ string) ([]belle.Professional, error) {
	return a.roster, a.rosterErr
}

func (a *fakeAgenda) BookAppointment(_ context.Context, req belle.BookingRequest) (*belle.BookingResult, error) {
	if a.bookErr != nil {
		return nil, a.bookErr
	}
	a.bookRequests = append(a.bookRequests, req)
	return &belle.BookingResult{BookingCode: a.bookingCode}, nil
}

func testService(t *testing.T, crm *fakeCRM, agenda *fakeAgenda) *Service {
	t.Helper()
	tables, err := mapping.Load("", nil)
	require.NoError(t, err)
	return NewService(crm, agenda, tables, nil)
}

func testEvent() *Event {
	return &Event{
		LeadID:            4021,
		LeadName:          "Maria Souza",
		LeadPhone:         "+55 11 98888-0000",
		Date:              "12/09/2026",
		Time:              "14:30",
		EstablishmentCode: "238", // internal Bitrix element id for code 1
		ProfessionalCode:  "101",
		ProfessionalName:  "DRA. ANA CREPALDI",
		VisitType:         "Consulta",
		ProcedureToken:    "servico[12345][nome]=MASSAGEM",
		Params:            map[string]string{"servico[12345][tempo]": "60"},
	}
}

func bookableRoster() []belle.Professional {
	return []belle.Professional{
		{Code: "101", Name: "DRA. ANA CREPALDI", Bookable: true},
		{Code: "140", Name: "DR. FELIPE ALMEIDA", Bookable: false},
	}
}

func TestProcessMissingFields(t *testing.T) {
	crm := &fakeCRM{}
	agenda := &fakeAgenda{}
	svc := testService(t, crm, agenda)

	event := testEvent()
	event.Date = ""
	event.ProfessionalCode = ""

	res, err := svc.Process(context.Background(), event)

	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.ElementsMatch(t, []string{"Data do Agendamento", "Profissional"}, inputErr.Missing)

	assert.False(t, res.Success)
	assert.Equal(t, int64(4021), res.LeadID)
	assert.ElementsMatch(t, []string{"Data do Agendamento", "Profissional"}, res.MissingFields)

	// Short-circuits before any gateway call; only the audit comment goes out.
	assert.Empty(t, agenda.bookRequests)
	assert.Empty(t, agenda.customers)
	require.Len(t, crm.comments, 1)
	assert.Contains(t, crm.comments[0], "Parâmetros faltando")
}

func TestProcessSuccess(t *testing.T) {
	crm := &fakeCRM{
		lead: bitrix.Fields{
			"TITLE":              "Maria Souza",
			"CONTACT_ID":         float64(717),
			"UF_CRM_1700000101":  "57", // origem: Instagram
			"UF_CRM_1700000133":  "81", // tipo de paciente: Novo
		},
		contact: bitrix.Fields{
			bitrix.FieldCodigoClienteBelle: "5512",
		},
	}
	agenda := &fakeAgenda{roster: bookableRoster(), bookingCode: "778812"}
	svc := testService(t, crm, agenda)

	res, err := svc.Process(context.Background(), testEvent())
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "778812", res.BookingCode)
	assert.Equal(t, int64(9917), res.DealID)

	// Booking request carries the translated establishment and the parsed
	// procedure with its duration.
	require.Len(t, agenda.bookRequests, 1)
	req := agenda.bookRequests[0]
	assert.Equal(t, "1", req.EstablishmentCode)
	assert.Equal(t, "5512", req.CustomerCode)
	require.Len(t, req.Services, 1)
	assert.Equal(t, "MASSAGEM", req.Services[0].Name)
	assert.Equal(t, 60, req.Services[0].DurationMins)

	// The customer already existed, so no creation call was made.
	assert.Empty(t, agenda.customers)

	// Lead writeback.
	require.NotEmpty(t, crm.leadUpdates)
	first := crm.leadUpdates[0]
	assert.Equal(t, "12/09/2026 14:30:00", first[bitrix.FieldDataAgendamento])
	assert.Equal(t, "778812", first[bitrix.FieldCodigoAgendamento])

	// Promotion: routed pipeline, mapped enum values, event overrides.
	require.NotNil(t, crm.dealFields)
	assert.Equal(t, 5, crm.dealFields["CATEGORY_ID"])
	assert.Equal(t, "C5:NEW", crm.dealFields["STAGE_ID"])
	assert.Equal(t, "301", crm.dealFields["UF_CRM_1740000101"])
	assert.Equal(t, "321", crm.dealFields["UF_CRM_1740000133"])
	assert.Equal(t, "778812", crm.dealFields[bitrix.DealFieldCodigoAgendamento])
	assert.Equal(t, "522", crm.dealFields[bitrix.DealFieldProcedimento])
	assert.Equal(t, int64(717), crm.dealFields["CONTACT_ID"])

	// Lead converted, product row attached.
	converted := false
	for _, u := range crm.leadUpdates {
		if u["STATUS_ID"] == bitrix.StatusConverted {
			converted = true
		}
	}
	assert.True(t, converted, "lead should be marked converted")
	require.Len(t, crm.productRows, 1)
	assert.Equal(t, "MASSAGEM", crm.productRows[0].ProductName)

	// Success comment on the timeline.
	joined := strings.Join(crm.comments, "\n---\n")
	assert.Contains(t, joined, "Agendamento Criado com Sucesso")
	assert.Contains(t, joined, "778812")
}

func TestProcessBookingApplicationError(t *testing.T) {
	crm := &fakeCRM{lead: bitrix.Fields{"TITLE": "Maria Souza"}}
	agenda := &fakeAgenda{
		roster:       bookableRoster(),
		customerCode: "5512",
		bookErr:      &belle.AppointmentError{Message: "horario indisponivel"},
	}
	svc := testService(t, crm, agenda)

	res, err := svc.Process(context.Background(), testEvent())

	var appErr *belle.AppointmentError
	require.ErrorAs(t, err, &appErr)
	assert.False(t, res.Success)
	assert.Empty(t, res.BookingCode)

	// Error-tagged comment before the error propagates; no promotion.
	joined := strings.Join(crm.comments, "\n")
	assert.Contains(t, joined, "Erro ao criar agendamento")
	assert.Nil(t, crm.dealFields)
}

func TestProcessInvalidPairingIsTerminal(t *testing.T) {
	crm := &fakeCRM{}
	agenda := &fakeAgenda{
		roster: []belle.Professional{{Code: "140", Name: "DR. FELIPE ALMEIDA", Bookable: true}},
	}
	svc := testService(t, crm, agenda)

	res, err := svc.Process(context.Background(), testEvent())

	var pairErr *PairingError
	require.ErrorAs(t, err, &pairErr)
	assert.Equal(t, "101", pairErr.ProfessionalCode)
	assert.False(t, res.Success)
	assert.Empty(t, agenda.bookRequests, "booking must not be attempted")
}

func TestProcessNotBookableIsTerminal(t *testing.T) {
	crm := &fakeCRM{}
	agenda := &fakeAgenda{
		roster: []belle.Professional{{Code: "101", Name: "DRA. ANA CREPALDI", Bookable: false}},
	}
	svc := testService(t, crm, agenda)

	_, err := svc.Process(context.Background(), testEvent())
	var pairErr *PairingError
	require.ErrorAs(t, err, &pairErr)
}

func TestProcessRosterQueryErrorContinues(t *testing.T) {
	// A failed roster lookup only warns; a confirmed-invalid pairing blocks.
	// The asymmetry is intentional.
	crm := &fakeCRM{lead: bitrix.Fields{"TITLE": "Maria Souza"}}
	agenda := &fakeAgenda{
		rosterErr:    errors.New("belle: /profissionais: status 502"),
		customerCode: "5512",
		bookingCode:  "778812",
	}
	svc := testService(t, crm, agenda)

	res, err := svc.Process(context.Background(), testEvent())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Warning, "Não foi possível validar")
}

func TestProcessSynthesizesDocument(t *testing.T) {
	crm := &fakeCRM{
		lead:    bitrix.Fields{"TITLE": "Maria Souza", "CONTACT_ID": float64(717)},
		contact: bitrix.Fields{}, // no Belle code, no CPF
	}
	agenda := &fakeAgenda{roster: bookableRoster(), customerCode: "6001", bookingCode: "778812"}
	svc := testService(t, crm, agenda)

	res, err := svc.Process(context.Background(), testEvent())
	require.NoError(t, err)
	assert.True(t, res.Success)

	require.Len(t, agenda.customers, 1)
	doc := agenda.customers[0].Document
	assert.True(t, ValidDocument(doc), "synthesized document must be valid: %s", doc)
	assert.Equal(t, SynthesizeDocument(4021), doc, "document must be deterministic for the lead id")

	// The new code is written back onto the contact.
	require.Len(t, crm.contactUpdates, 1)
	assert.Equal(t, "6001", crm.contactUpdates[0][bitrix.FieldCodigoClienteBelle])

	// And used for the booking.
	require.Len(t, agenda.bookRequests, 1)
	assert.Equal(t, "6001", agenda.bookRequests[0].CustomerCode)
}

func TestProcessCustomerCreationFailureIsTerminal(t *testing.T) {
	crm := &fakeCRM{lead: bitrix.Fields{"TITLE": "Maria Souza"}}
	agenda := &fakeAgenda{
		roster:      bookableRoster(),
		customerErr: errors.New("belle: /clientes: status 500"),
	}
	svc := testService(t, crm, agenda)

	res, err := svc.Process(context.Background(), testEvent())
	require.Error(t, err)
	assert.False(t, res.Success)
	assert.Empty(t, agenda.bookRequests)
}

func TestProcessEnrichmentFailuresKeepSuccess(t *testing.T) {
	crm := &fakeCRM{
		lead:       bitrix.Fields{"TITLE": "Maria Souza"},
		updateErr:  errors.New("bitrix: crm.lead.update: timeout"),
		commentErr: errors.New("bitrix: crm.timeline.comment.add: timeout"),
		dealErr:    errors.New("bitrix: crm.deal.add: timeout"),
		rowsErr:    errors.New("bitrix: crm.deal.productrows.set: timeout"),
	}
	agenda := &fakeAgenda{roster: bookableRoster(), customerCode: "5512", bookingCode: "778812"}
	svc := testService(t, crm, agenda)

	res, err := svc.Process(context.Background(), testEvent())
	require.NoError(t, err)
	assert.True(t, res.Success, "post-booking failures never downgrade a booked appointment")
	assert.Equal(t, "778812", res.BookingCode)
	assert.Zero(t, res.DealID)
}

func TestProcessUnknownEstablishmentWarns(t *testing.T) {
	crm := &fakeCRM{
		lead:    bitrix.Fields{"TITLE": "Maria Souza"},
		listErr: errors.New("bitrix: lists.element.get: NOT_FOUND"),
	}
	agenda := &fakeAgenda{customerCode: "5512", bookingCode: "778812",
		roster: bookableRoster()}
	svc := testService(t, crm, agenda)

	event := testEvent()
	event.EstablishmentCode = "9999"

	res, err := svc.Process(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Warning, "pode estar incorreto")

	// Unmapped establishment uses the pass-through code and the default route.
	require.Len(t, agenda.bookRequests, 1)
	assert.Equal(t, "9999", agenda.bookRequests[0].EstablishmentCode)
	require.NotNil(t, crm.dealFields)
	assert.Equal(t, 0, crm.dealFields["CATEGORY_ID"])
	assert.Equal(t, "NEW", crm.dealFields["STAGE_ID"])
}

func TestProcessResolvesEstablishmentViaCRMList(t *testing.T) {
	crm := &fakeCRM{
		lead:        bitrix.Fields{"TITLE": "Maria Souza"},
		listElement: bitrix.Fields{"ID": "8800", "PROPERTY_ID": "14"},
	}
	agenda := &fakeAgenda{customerCode: "5512", bookingCode: "778812",
		roster: bookableRoster()}
	svc := testService(t, crm, agenda)

	event := testEvent()
	event.EstablishmentCode = "8800" // unknown to the static tables

	res, err := svc.Process(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, agenda.bookRequests, 1)
	assert.Equal(t, "14", agenda.bookRequests[0].EstablishmentCode)
}
