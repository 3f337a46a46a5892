package scheduling

import (
	"fmt"
	"strings"
)

// InputError is a terminal failure before any gateway call: required event
// fields are missing.
type InputError struct {
	Missing []string
}

func (e *InputError) Error() string {
	return "campos obrigatórios não preenchidos: " + strings.Join(e.Missing, ", ")
}

// PairingError is a confirmed-invalid professional/establishment pairing,
// distinguishable from generic gateway errors so callers can render a
// specific message.
type PairingError struct {
	ProfessionalCode  string
	EstablishmentCode string
}

func (e *PairingError) Error() string {
	return fmt.Sprintf("profissional %s não atende no estabelecimento %s", e.ProfessionalCode, e.EstablishmentCode)
}
