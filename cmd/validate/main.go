// Command validate checks a JSON array of sensor submissions offline. Flat
// payloads are normalized and assembled; nested records go straight to the
// validator. Every failing field is printed and the exit status is non-zero
// when any phase fails.
//
// Usage:
//
//	go run ./cmd/validate -input data/mock/sensor_payloads.json [-strict]
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/weather-station-ingest/internal/domain"
	"github.com/couchcryptid/weather-station-ingest/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	input := flag.String("input", "", "path to a JSON array of payloads or records")
	strict := flag.Bool("strict", false, "reject unknown and unregistered fields")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}
	os.Exit(run(*input, *strict))
}

func run(path string, strict bool) int {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.May, 1, 13, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	fmt.Println("=== Sensor Submission Validation ===")
	fmt.Println()

	items, err := loadJSON(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	fmt.Printf("Loaded %d submissions from %s\n\n", len(items), path)

	validator := domain.NewValidator(strict)
	records := make([]domain.SensorRecord, 0, len(items))
	normalization := &phase{name: "Normalization"}
	schema := &phase{name: "Schema validation"}

	for i, item := range items {
		label := submissionLabel(i, item)
		var (
			rec domain.SensorRecord
			err error
		)
		if pipeline.IsStructured(item) {
			rec, err = validator.Validate(item)
		} else {
			raw := domain.RawPayload(item)
			if strict {
				for _, field := range unregisteredFields(raw) {
					normalization.errorf("%s: no rule for field %q", label, field)
				}
			}
			for _, res := range domain.NormalizeFields(raw) {
				if res.Status == domain.Unparsable {
					normalization.errorf("%s: %s not convertible: %v", label, res.Rule.Raw, res.Err)
				}
			}
			rec, _, err = domain.BuildRecord(validator, raw, domain.Attachment{Source: "validate"})
		}

		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			for _, fe := range verr.Errors {
				schema.errorf("%s: %s", label, fe.Error())
			}
		case err != nil:
			schema.errorf("%s: %v", label, err)
		default:
			records = append(records, rec)
		}
	}

	phases := []*phase{normalization, schema, validateUniqueness(records)}

	allPassed := true
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS  %s\n", p.name)
			continue
		}
		allPassed = false
		fmt.Printf("FAIL  %s (%d issues)\n", p.name, len(p.errors))
		for _, e := range p.errors {
			fmt.Printf("      - %s\n", e)
		}
	}

	fmt.Println()
	fmt.Printf("Valid records: %d/%d\n", len(records), len(items))
	if !allPassed {
		return 1
	}
	return 0
}

// unregisteredFields lists, in sorted order, the flat fields normalization
// would drop.
func unregisteredFields(raw domain.RawPayload) []string {
	var out []string
	for k := range raw {
		if _, ok := domain.LookupRule(k); !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// validateUniqueness flags submissions sharing a sensor id and timestamp;
// the store would keep both.
func validateUniqueness(records []domain.SensorRecord) *phase {
	p := &phase{name: "Uniqueness"}
	seen := make(map[string]int, len(records))
	for _, r := range records {
		key := r.SensorID + "@" + r.Timestamp.Format(time.RFC3339Nano)
		seen[key]++
		if seen[key] == 2 {
			p.errorf("duplicate reading %s", key)
		}
	}
	return p
}

func submissionLabel(i int, item map[string]any) string {
	if id, ok := item["sensor_id"].(string); ok && id != "" {
		return fmt.Sprintf("#%d (%s)", i, id)
	}
	return fmt.Sprintf("#%d", i)
}

func loadJSON(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return items, nil
}
