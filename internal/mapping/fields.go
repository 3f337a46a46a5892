package mapping

// MapField translates one lead field into the corresponding deal field. The
// returned ok is false when the lead field has no deal counterpart (the field
// is not copied on promotion). warn is true when the field is enum-remapped
// and the option id has no entry: the value then passes through unchanged, a
// deliberate degrade that keeps unseen option values flowing instead of
// failing the promotion.
//
// Empty values are not mapped: promotion omits absent source data rather than
// writing empty fields into the deal.
func (t *Tables) MapField(sourceFieldID, value string) (destFieldID, mapped string, ok, warn bool) {
	destFieldID, ok = t.fields[sourceFieldID]
	if !ok || value == "" {
		return "", "", false, false
	}

	mapped = value
	if options, remapped := t.enumRemaps[sourceFieldID]; remapped {
		if dest, found := options[value]; found {
			mapped = dest
		} else {
			warn = true
			t.logger.Warn("enum option not remapped, passing through",
				"field", sourceFieldID,
				"option", value,
			)
		}
	}
	return destFieldID, mapped, true, warn
}

// FieldIDs returns the lead field ids present in the correspondence table.
// The slice is freshly allocated; callers may reorder it.
func (t *Tables) FieldIDs() []string {
	ids := make([]string, 0, len(t.fields))
	for id := range t.fields {
		ids = append(ids, id)
	}
	return ids
}
