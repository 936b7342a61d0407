package domain

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// decoder accumulates field errors while walking a candidate document.
type decoder struct {
	strict bool
	errs   []FieldError
}

func (d *decoder) fail(path, msg string, value any) {
	d.errs = append(d.errs, FieldError{Path: path, Message: msg, Value: value})
}

func (d *decoder) root(m map[string]any) *object {
	return &object{d: d, m: m, seen: make(map[string]struct{}, len(m))}
}

// object is one level of the candidate document.
type object struct {
	d    *decoder
	path string
	m    map[string]any
	seen map[string]struct{}
}

func (o *object) at(key string) string {
	if o.path == "" {
		return key
	}
	return o.path + "." + key
}

// lookup returns the value for key. A nil value is reported as absent.
func (o *object) lookup(key string) (any, bool) {
	o.seen[key] = struct{}{}
	v, ok := o.m[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (o *object) missing(key string) {
	o.d.fail(o.at(key), "field required", nil)
}

// finish reports unknown keys when the decoder is strict.
func (o *object) finish() {
	if !o.d.strict {
		return
	}
	var unknown []string
	for k := range o.m {
		if _, ok := o.seen[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		o.d.fail(o.at(k), "unknown field", o.m[k])
	}
}

func (o *object) child(key string, required bool) *object {
	v, ok := o.lookup(key)
	if !ok {
		if required {
			o.missing(key)
		}
		return nil
	}
	m, ok := asMap(v)
	if !ok {
		o.d.fail(o.at(key), "must be an object", v)
		return nil
	}
	return &object{d: o.d, path: o.at(key), m: m, seen: make(map[string]struct{}, len(m))}
}

func (o *object) requiredObject(key string) *object { return o.child(key, true) }
func (o *object) optionalObject(key string) *object { return o.child(key, false) }

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case RawPayload:
		return m, true
	case CleanedRecord:
		return m, true
	}
	return nil, false
}

func (o *object) str(key string, required bool) *string {
	v, ok := o.lookup(key)
	if !ok {
		if required {
			o.missing(key)
		}
		return nil
	}
	s, ok := v.(string)
	if !ok {
		o.d.fail(o.at(key), "must be a string", v)
		return nil
	}
	return &s
}

func (o *object) requiredString(key string) string {
	if s := o.str(key, true); s != nil {
		return *s
	}
	return ""
}

func (o *object) optionalString(key string) *string { return o.str(key, false) }

// rangeCheck returns a violation message, or "" when f is acceptable.
type rangeCheck func(f float64) string

func atLeast(lo float64) rangeCheck {
	return func(f float64) string {
		if f < lo {
			return fmt.Sprintf("must be greater than or equal to %g", lo)
		}
		return ""
	}
}

func between(lo, hi float64) rangeCheck {
	return func(f float64) string {
		if f < lo || f > hi {
			return fmt.Sprintf("must be between %g and %g", lo, hi)
		}
		return ""
	}
}

func (o *object) float(key string, required bool, check rangeCheck) *float64 {
	v, ok := o.lookup(key)
	if !ok {
		if required {
			o.missing(key)
		}
		return nil
	}
	f, err := coerceFloat(v)
	if err != nil {
		o.d.fail(o.at(key), err.Error(), v)
		return nil
	}
	if check != nil {
		if msg := check(f); msg != "" {
			o.d.fail(o.at(key), msg, v)
			return nil
		}
	}
	return &f
}

func (o *object) requiredFloat(key string, check rangeCheck) float64 {
	if f := o.float(key, true, check); f != nil {
		return *f
	}
	return 0
}

func (o *object) optionalFloat(key string, check rangeCheck) *float64 {
	return o.float(key, false, check)
}

func coerceFloat(v any) (float64, error) {
	if _, isBool := v.(bool); isBool {
		return 0, errors.New("must be a number")
	}
	f, err := toFloat(v)
	switch {
	case err == nil:
		return f, nil
	case errors.Is(err, errNotFinite):
		return 0, errors.New("must be a finite number")
	default:
		return 0, errors.New("must be a number")
	}
}

func (o *object) optionalInt(key string, lo int) *int {
	v, ok := o.lookup(key)
	if !ok {
		return nil
	}
	f, err := coerceFloat(v)
	if err != nil {
		o.d.fail(o.at(key), "must be an integer", v)
		return nil
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		o.d.fail(o.at(key), "must be an integer", v)
		return nil
	}
	n := int(f)
	if n < lo {
		o.d.fail(o.at(key), fmt.Sprintf("must be greater than or equal to %d", lo), v)
		return nil
	}
	return &n
}

var boolTokens = map[string]bool{
	"true": true, "t": true, "yes": true, "y": true, "on": true, "1": true,
	"false": false, "f": false, "no": false, "n": false, "off": false, "0": false,
}

func (o *object) optionalBool(key string) *bool {
	v, ok := o.lookup(key)
	if !ok {
		return nil
	}
	b, ok := coerceBool(v)
	if !ok {
		o.d.fail(o.at(key), "must be a boolean", v)
		return nil
	}
	return &b
}

func coerceBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, ok := boolTokens[strings.ToLower(strings.TrimSpace(x))]
		return b, ok
	case json.Number:
		b, ok := boolTokens[x.String()]
		return b, ok
	}
	f, err := toFloat(v)
	if err != nil {
		return false, false
	}
	switch f {
	case 0:
		return false, true
	case 1:
		return true, true
	}
	return false, false
}

func (o *object) timestamp(key string, required bool) *time.Time {
	v, ok := o.lookup(key)
	if !ok {
		if required {
			o.missing(key)
		}
		return nil
	}
	switch t := v.(type) {
	case time.Time:
		u := t.UTC()
		return &u
	case *time.Time:
		if t == nil {
			if required {
				o.missing(key)
			}
			return nil
		}
		u := t.UTC()
		return &u
	case string:
		parsed, err := ParseTimestamp(t)
		if err != nil {
			o.d.fail(o.at(key), fmt.Sprintf("invalid ISO-8601 datetime %q", t), v)
			return nil
		}
		return &parsed
	default:
		o.d.fail(o.at(key), "must be a datetime or ISO-8601 string", v)
		return nil
	}
}

func (o *object) requiredTime(key string) time.Time {
	if t := o.timestamp(key, true); t != nil {
		return *t
	}
	return time.Time{}
}

func (o *object) optionalTime(key string) *time.Time { return o.timestamp(key, false) }

// optionalStringList accepts a list of strings or a comma separated string.
func (o *object) optionalStringList(key string) []string {
	v, ok := o.lookup(key)
	if !ok {
		return nil
	}
	switch x := v.(type) {
	case string:
		return splitFlags(x)
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for i, item := range x {
			s, ok := item.(string)
			if !ok {
				o.d.fail(fmt.Sprintf("%s.%d", o.at(key), i), "must be a string", item)
				continue
			}
			out = append(out, s)
		}
		return out
	default:
		o.d.fail(o.at(key), "must be a list of strings", v)
		return nil
	}
}

func splitFlags(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (o *object) requiredBase64(key string) string {
	s := o.str(key, true)
	if s == nil {
		return ""
	}
	if strings.TrimSpace(*s) == "" {
		o.d.fail(o.at(key), "must not be empty", *s)
		return ""
	}
	if !isBase64(*s) {
		o.d.fail(o.at(key), "must be valid base64", truncate(*s, 32))
		return ""
	}
	return *s
}

func isBase64(s string) bool {
	if _, err := base64.StdEncoding.DecodeString(s); err == nil {
		return true
	}
	_, err := base64.RawStdEncoding.DecodeString(s)
	return err == nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
