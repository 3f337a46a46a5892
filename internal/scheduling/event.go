package scheduling

// Event is one inbound scheduling event from the CRM workflow engine. The
// transport layer fills it from either the JSON body or the query-parameter
// form; the pipeline does not care which.
type Event struct {
	LeadID    int64  `json:"lead_id"`
	LeadName  string `json:"lead_nome,omitempty"`
	LeadPhone string `json:"lead_telefone,omitempty"`

	// CustomerCode is the Belle customer code when the workflow already
	// knows it; resolved via the linked contact otherwise.
	CustomerCode string `json:"codigo_cliente_belle,omitempty"`

	Date string `json:"data_agendamento"` // dd/mm/yyyy
	Time string `json:"horario"`          // HH:MM

	EstablishmentCode string `json:"estabelecimento_codigo"`
	EstablishmentName string `json:"estabelecimento_nome,omitempty"`
	ProfessionalCode  string `json:"profissional_codigo"`
	ProfessionalName  string `json:"profissional_nome,omitempty"`

	VisitType string `json:"tipo_agendamento"`

	// ProcedureToken is the raw service token emitted by the workflow
	// engine, either the structured servico[...][nome]=... form or a
	// comma-separated list.
	ProcedureToken string `json:"servicos"`

	// Params carries the sibling request parameters the structured token
	// form references (durations, prices).
	Params map[string]string `json:"-"`

	EquipmentCode string `json:"equipamento_codigo,omitempty"`
	EquipmentName string `json:"equipamento_nome,omitempty"`
	NewCard       bool   `json:"novo_card,omitempty"`
	Note          string `json:"observacao,omitempty"`
}

// missingFields names the required fields absent from the event, using the
// labels operators see in the CRM comment.
func (e *Event) missingFields() []string {
	var missing []string
	if e.Date == "" {
		missing = append(missing, "Data do Agendamento")
	}
	if e.Time == "" {
		missing = append(missing, "Horário")
	}
	if e.ProfessionalCode == "" {
		missing = append(missing, "Profissional")
	}
	if e.EstablishmentCode == "" {
		missing = append(missing, "Estabelecimento")
	}
	if e.ProcedureToken == "" {
		missing = append(missing, "Procedimento")
	}
	return missing
}

// Result is returned to the transport layer. Success reflects the booking
// stage only; post-booking enrichment failures surface in logs and CRM
// comments, never here.
type Result struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	BookingCode   string   `json:"codigo_agendamento,omitempty"`
	LeadID        int64    `json:"lead_id"`
	DealID        int64    `json:"deal_id,omitempty"`
	Warning       string   `json:"warning,omitempty"`
	MissingFields []string `json:"campos_faltando,omitempty"`
}
