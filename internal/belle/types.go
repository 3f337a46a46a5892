package belle

import "fmt"

// CustomerProfile is the data Belle needs to create or update a customer.
type CustomerProfile struct {
	Code     string `json:"codCliente,omitempty"`
	Name     string `json:"nomeCliente"`
	Phone    string `json:"telefoneCliente,omitempty"`
	Document string `json:"cpfCliente,omitempty"`
}

// Professional is one roster entry of an establishment.
type Professional struct {
	Code     string `json:"codigo"`
	Name     string `json:"nome"`
	Bookable bool   `json:"agenda"`
}

// ServiceItem is one procedure with its duration in minutes.
type ServiceItem struct {
	Code         string `json:"codigo,omitempty"`
	Name         string `json:"nome"`
	DurationMins int    `json:"tempo"`
}

// BookingRequest is a single-use value object carrying one appointment.
type BookingRequest struct {
	CustomerCode      string
	CustomerName      string
	CustomerPhone     string
	Date              string // dd/mm/yyyy
	Time              string // HH:MM
	EstablishmentCode string
	ProfessionalCode  string
	VisitType         string
	Services          []ServiceItem
	SlotMins          int
	EquipmentCode     string
	NewCard           bool
	Note              string
	LeadID            int64
}

// BookingResult is the outcome of a successful booking call.
type BookingResult struct {
	BookingCode string
}

// AppointmentError is a well-formed Belle response that rejected the booking:
// an error message without a booking code, regardless of HTTP status.
type AppointmentError struct {
	Message string
}

func (e *AppointmentError) Error() string {
	return fmt.Sprintf("belle: appointment rejected: %s", e.Message)
}

// legacyBookingPayload is the original flat payload shape, kept behind the
// payload version flag for establishments still on the old Belle build.
type legacyBookingPayload struct {
	CodCliente         string   `json:"codCliente,omitempty"`
	NomeCliente        string   `json:"nomeCliente,omitempty"`
	TelefoneCliente    string   `json:"telefoneCliente,omitempty"`
	DataAgendamento    string   `json:"dataAgendamento"`
	HoraAgendamento    string   `json:"horaAgendamento"`
	CodEstabelecimento string   `json:"codEstabelecimento"`
	CodProfissional    string   `json:"codProfissional"`
	TipoAgendamento    string   `json:"tipoAgendamento"`
	Servicos           []string `json:"servicos"`
	Tempo              int      `json:"tempo"`
	CodEquipamento     string   `json:"codEquipamento,omitempty"`
	NovoCard           bool     `json:"novoCard"`
	Observacao         string   `json:"observacao"`
	LeadID             int64    `json:"leadId"`
}

// bookingPayloadV2 carries per-service durations.
type bookingPayloadV2 struct {
	CodCliente         string        `json:"codCliente,omitempty"`
	NomeCliente        string        `json:"nomeCliente,omitempty"`
	TelefoneCliente    string        `json:"telefoneCliente,omitempty"`
	DataAgendamento    string        `json:"dataAgendamento"`
	HoraAgendamento    string        `json:"horaAgendamento"`
	CodEstabelecimento string        `json:"codEstabelecimento"`
	CodProfissional    string        `json:"codProfissional"`
	TipoAgendamento    string        `json:"tipoAgendamento"`
	Servicos           []ServiceItem `json:"servicos"`
	CodEquipamento     string        `json:"codEquipamento,omitempty"`
	NovoCard           bool          `json:"novoCard"`
	Observacao         string        `json:"observacao"`
	LeadID             int64         `json:"leadId"`
}
