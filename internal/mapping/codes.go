package mapping

import "github.com/crepaldi/agenda-bridge/pkg/logging"

// CodeTable is a static bidirectional mapping between Belle codes and Bitrix
// list element ids for one entity class. The two id spaces are disjoint in
// practice but nothing enforces that, so lookups check the canonical side
// first: a value that already is a valid Belle code is never re-translated.
type CodeTable struct {
	entity string
	// toElement maps Belle code -> Bitrix element id.
	toElement map[string]string
	// toCode is the inverse: Bitrix internal element id -> Belle code. The
	// CRM workflow engine sends the internal list element id, not the code.
	toCode map[string]string
	names  map[string]string
	logger *logging.Logger
}

func newCodeTable(entity string, f codeTableFile, logger *logging.Logger) *CodeTable {
	t := &CodeTable{
		entity:    entity,
		toElement: make(map[string]string, len(f.Codes)),
		toCode:    make(map[string]string, len(f.Codes)),
		names:     f.Names,
		logger:    logger,
	}
	for code, elementID := range f.Codes {
		t.toElement[code] = elementID
		t.toCode[elementID] = code
	}
	return t
}

// Canonical translates a value that may be either a Belle code or a Bitrix
// internal list element id into the Belle code. Known codes are returned
// as-is, so the translation is idempotent. Unknown values pass through with
// a warning; a miss is never an error.
func (t *CodeTable) Canonical(value string) string {
	if _, ok := t.toElement[value]; ok {
		return value
	}
	if code, ok := t.toCode[value]; ok {
		return code
	}
	if value != "" {
		t.logger.Warn("code not mapped, passing through",
			"entity", t.entity,
			"value", value,
		)
	}
	return value
}

// ElementID translates a Belle code into the Bitrix list element id for the
// same entity, passing the code through with a warning on a miss.
func (t *CodeTable) ElementID(code string) string {
	if id, ok := t.toElement[code]; ok {
		return id
	}
	if code != "" {
		t.logger.Warn("code has no element id, passing through",
			"entity", t.entity,
			"code", code,
		)
	}
	return code
}

// IsKnown reports whether the value is a registered Belle code.
func (t *CodeTable) IsKnown(code string) bool {
	_, ok := t.toElement[code]
	return ok
}

// Name returns the display name registered for a Belle code, or "" when the
// code is unknown.
func (t *CodeTable) Name(code string) string {
	return t.names[code]
}
