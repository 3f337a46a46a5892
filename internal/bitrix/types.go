package bitrix

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// APIError is a well-formed Bitrix response signaling rejection, as opposed
// to a transport failure.
type APIError struct {
	Method      string
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("bitrix: %s: %s (%s)", e.Method, e.Description, e.Code)
	}
	return fmt.Sprintf("bitrix: %s: %s", e.Method, e.Code)
}

// apiEnvelope is the standard Bitrix REST response wrapper.
type apiEnvelope struct {
	Result           json.RawMessage `json:"result"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

// Fields is a Bitrix entity field map. Bitrix returns values as strings,
// numbers, booleans or nested objects depending on the field type.
type Fields map[string]any

// String renders the value of key as a string, with numbers printed the way
// Bitrix accepts them back. Missing, null and unrenderable values yield "".
func (f Fields) String(key string) string {
	v, ok := f[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		return ""
	}
}

// Int64 renders the value of key as an int64, 0 when absent or non-numeric.
func (f Fields) Int64(key string) int64 {
	n, _ := strconv.ParseInt(f.String(key), 10, 64)
	return n
}

// ProductRow is one line item attached to a deal.
type ProductRow struct {
	ProductName string  `json:"PRODUCT_NAME"`
	Price       float64 `json:"PRICE"`
	Quantity    float64 `json:"QUANTITY"`
}
