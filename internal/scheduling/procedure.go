package scheduling

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultDurationMins is the fallback procedure duration when the request
// carries none.
const DefaultDurationMins = 30

// ProcedureReference is the decoded service token: one procedure with its
// Belle code, display name, duration and optional price.
type ProcedureReference struct {
	Code         string
	Name         string
	DurationMins int
	Price        float64
}

// servicoTokenRE matches the structured token the workflow engine emits,
// e.g. "servico[12345][nome]=MASSAGEM".
var servicoTokenRE = regexp.MustCompile(`^servico\[([^\]]+)\]\[nome\]=(.*)$`)

// ParseProcedure decodes the raw service token into a ProcedureReference.
// The structured form carries the code and name in the token itself, with
// the duration and price as sibling parameters keyed by the same code. A
// bare comma-separated list uses only its first element: purely numeric
// elements are codes, anything else is a name doubling as the code. Parsing
// is best-effort and never fails; an empty token yields a zero reference
// with the default duration.
func ParseProcedure(raw string, params map[string]string, defaultDuration int) ProcedureReference {
	if defaultDuration <= 0 {
		defaultDuration = DefaultDurationMins
	}
	ref := ProcedureReference{DurationMins: defaultDuration}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ref
	}

	if m := servicoTokenRE.FindStringSubmatch(raw); m != nil {
		ref.Code = m[1]
		ref.Name = strings.TrimSpace(m[2])
		if ref.Name == "" {
			ref.Name = ref.Code
		}
		if mins, ok := paramInt(params, "servico["+ref.Code+"][tempo]"); ok {
			ref.DurationMins = mins
		}
		if price, ok := paramFloat(params, "servico["+ref.Code+"][valor]"); ok {
			ref.Price = price
		}
		return ref
	}

	first := raw
	if i := strings.Index(raw, ","); i >= 0 {
		first = raw[:i]
	}
	first = strings.TrimSpace(first)
	if first == "" {
		return ref
	}

	ref.Code = first
	ref.Name = first
	if mins, ok := paramInt(params, "servico["+first+"][tempo]"); ok {
		ref.DurationMins = mins
	}
	return ref
}

// ParseServiceList decodes the full token into the procedure list sent to
// the booking call, one entry per comma-separated element, each with its own
// duration when a sibling parameter supplies one.
func ParseServiceList(raw string, params map[string]string, defaultDuration int) []ProcedureReference {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if servicoTokenRE.MatchString(raw) {
		return []ProcedureReference{ParseProcedure(raw, params, defaultDuration)}
	}

	var refs []ProcedureReference
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		refs = append(refs, ParseProcedure(part, params, defaultDuration))
	}
	return refs
}

func paramInt(params map[string]string, key string) (int, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func paramFloat(params map[string]string, key string) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	// Belle renders prices with a decimal comma.
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}
