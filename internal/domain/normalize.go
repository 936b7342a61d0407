package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FieldStatus is the outcome of converting one raw field.
type FieldStatus int

const (
	// Converted means the field parsed and Value holds the clean value.
	Converted FieldStatus = iota
	// Unparsable means the field was present but could not be converted.
	Unparsable
)

func (s FieldStatus) String() string {
	if s == Converted {
		return "converted"
	}
	return "unparsable"
}

// FieldResult records the conversion of one raw field that was present in
// the payload.
type FieldResult struct {
	Rule   FieldRule
	Value  any // float64, bool, or string when Converted; nil otherwise
	Status FieldStatus
	Err    error
}

// CleanedRecord is the flat normalized mapping. A key holding nil means the
// raw field was provided but unparsable; a missing key means it was never
// provided.
type CleanedRecord map[string]any

// Float returns a converted numeric field.
func (c CleanedRecord) Float(name string) (float64, bool) {
	v, ok := c[name].(float64)
	return v, ok
}

// String returns a converted string field.
func (c CleanedRecord) String(name string) (string, bool) {
	v, ok := c[name].(string)
	return v, ok
}

// Bool returns a converted boolean field.
func (c CleanedRecord) Bool(name string) (bool, bool) {
	v, ok := c[name].(bool)
	return v, ok
}

// Provided reports whether the raw payload carried the field at all.
func (c CleanedRecord) Provided(name string) bool {
	_, ok := c[name]
	return ok
}

// Unparsable reports whether the field was provided but could not be converted.
func (c CleanedRecord) Unparsable(name string) bool {
	v, ok := c[name]
	return ok && v == nil
}

var (
	errMissingValue = errors.New("empty value")
	errNotFinite    = errors.New("value is not finite")
)

// NormalizeFields converts every registry field present in raw and reports
// the per-field outcome. Fields absent from raw produce no result.
func NormalizeFields(raw RawPayload) []FieldResult {
	results := make([]FieldResult, 0, len(raw))
	for _, rule := range registry {
		v, ok := raw[rule.Raw]
		if !ok {
			continue
		}
		results = append(results, applyRule(rule, v))
	}
	return results
}

// Normalize converts a raw payload into a cleaned record. It never fails:
// conversion problems become nil entries for the affected clean field.
func Normalize(raw RawPayload) CleanedRecord {
	cleaned := make(CleanedRecord, len(raw))
	for _, res := range NormalizeFields(raw) {
		cleaned[res.Rule.Clean] = res.Value
	}
	return cleaned
}

func applyRule(rule FieldRule, v any) FieldResult {
	res := FieldResult{Rule: rule}

	switch rule.Kind {
	case LinearScale:
		f, err := toFloat(v)
		if err != nil {
			res.Err = err
			break
		}
		res.Value = f*rule.Scale + rule.Offset
	case NumericCast:
		f, err := toFloat(v)
		if err != nil {
			res.Err = err
			break
		}
		res.Value = f
	case BooleanToken:
		res.Value = parseBoolToken(v)
	case TrimString:
		s, ok := trimString(v)
		if !ok {
			res.Err = errMissingValue
			break
		}
		res.Value = s
	default:
		res.Err = fmt.Errorf("unsupported conversion %s", rule.Kind)
	}

	if res.Err != nil {
		res.Status = Unparsable
		res.Value = nil
	}
	return res
}

// truthyTokens are the lowercase tokens that parse as true. Anything else is false.
var truthyTokens = map[string]struct{}{
	"true":  {},
	"yes":   {},
	"1":     {},
	"good":  {},
	"valid": {},
}

func parseBoolToken(v any) bool {
	if v == nil {
		return false
	}
	s := strings.ToLower(strings.TrimSpace(formatScalar(v)))
	_, ok := truthyTokens[s]
	return ok
}

// toFloat parses a loosely typed numeric value. Empty strings and nil are
// errMissingValue; NaN and infinities are rejected.
func toFloat(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, errMissingValue
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("parse number %q: %w", n, err)
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, errMissingValue
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("parse number %q: %w", s, err)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}

// trimString renders a scalar as a trimmed string. Returns false for nil,
// non-scalar values, and values that are empty after trimming.
func trimString(v any) (string, bool) {
	switch v.(type) {
	case nil, map[string]any, []any:
		return "", false
	}
	s := strings.TrimSpace(formatScalar(v))
	if s == "" {
		return "", false
	}
	return s, true
}

func formatScalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
