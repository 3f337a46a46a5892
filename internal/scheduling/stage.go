package scheduling

// Stage names, used in logs, metrics and failure comments.
const (
	stageValidate      = "validate"
	stageEstablishment = "resolve_establishment"
	stageRoster        = "validate_roster"
	stageCustomer      = "resolve_customer"
	stageBooking       = "book_appointment"
	stageUpdateLead    = "update_lead"
	stageComment       = "audit_comment"
	stagePromote       = "promote_deal"
	stageLineItem      = "attach_line_item"
)

type stageStatus int

const (
	stageOK stageStatus = iota
	stageWarn
	stageFail
)

// stageResult is the explicit outcome of one pipeline stage. The orchestrator
// decides continuation from the status; stages themselves never abort the
// flow.
type stageResult struct {
	stage   string
	status  stageStatus
	warning string
	err     error
}

func stageDone(stage string) stageResult {
	return stageResult{stage: stage, status: stageOK}
}

func stageWarned(stage, warning string) stageResult {
	return stageResult{stage: stage, status: stageWarn, warning: warning}
}

func stageFailed(stage string, err error) stageResult {
	return stageResult{stage: stage, status: stageFail, err: err}
}
