package scheduling

import (
	"context"

	"github.com/crepaldi/agenda-bridge/internal/belle"
	"github.com/crepaldi/agenda-bridge/internal/bitrix"
)

// CRMGateway is the slice of the Bitrix client the pipeline consumes.
type CRMGateway interface {
	GetLead(ctx context.Context, leadID int64) (bitrix.Fields, error)
	UpdateLead(ctx context.Context, leadID int64, fields map[string]string) error
	AddTimelineComment(ctx context.Context, entityType string, entityID int64, comment string) error
	GetContact(ctx context.Context, contactID int64) (bitrix.Fields, error)
	UpdateContact(ctx context.Context, contactID int64, fields map[string]string) error
	CreateDeal(ctx context.Context, fields map[string]any) (int64, error)
	SetDealProductRows(ctx context.Context, dealID int64, rows []bitrix.ProductRow) error
	GetListElement(ctx context.Context, iblockID int, elementID string) (bitrix.Fields, error)
}

// SchedulingGateway is the slice of the Belle client the pipeline consumes.
type SchedulingGateway interface {
	CreateOrUpdateCustomer(ctx context.Context, profile belle.CustomerProfile) (string, error)
	ListProfessionals(ctx context.Context, establishmentCode string) ([]belle.Professional, error)
	BookAppointment(ctx context.Context, req belle.BookingRequest) (*belle.BookingResult, error)
}
