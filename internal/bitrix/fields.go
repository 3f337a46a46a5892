package bitrix

// Custom field ids of the lead entity used by the scheduling flow. These are
// the live ids of the organization's Bitrix portal, not placeholders.
const (
	FieldDataAgendamento   = "UF_CRM_1725475287"
	FieldCodigoAgendamento = "UF_CRM_1725475314"
	FieldProfissional      = "UF_CRM_1725475343"
	FieldEstabelecimento   = "UF_CRM_1725475371"
	FieldProcedimento      = "UF_CRM_1725475399"
	FieldTipoConsulta      = "UF_CRM_1732829755"
	FieldEquipamento       = "UF_CRM_1732829791"
)

// FieldCodigoClienteBelle is the Belle customer cross-reference, stored on
// the contact linked to the lead rather than on the lead itself.
const FieldCodigoClienteBelle = "UF_CRM_1702053628"

// ContactFieldCPF holds the contact's identity document (CPF).
const ContactFieldCPF = "UF_CRM_1698765432"

// Deal-side field ids written on promotion. The deal schema is disjoint from
// the lead schema even where the attributes are semantically identical.
const (
	DealFieldDataAgendamento   = "UF_CRM_1745001287"
	DealFieldCodigoAgendamento = "UF_CRM_1745001314"
	DealFieldProfissional      = "UF_CRM_1745001343"
	DealFieldEstabelecimento   = "UF_CRM_1745001371"
	DealFieldProcedimento      = "UF_CRM_1745001399"
	DealFieldTipoConsulta      = "UF_CRM_1745001755"
	DealFieldCodigoCliente     = "UF_CRM_1745003628"
)

// StatusConverted is the lead status that marks the lead as converted
// ("Agendados"); setting it retires the lead from the leads funnel.
const StatusConverted = "CONVERTED"

// EstablishmentIblockID is the information block holding the establishment
// list, queried when an internal element id is not in the static tables.
const EstablishmentIblockID = 30
