// Command genmock generates flat sensor payload fixtures for three weather
// stations and, optionally, the canonical records the domain package builds
// from them. Records are produced under a fixed clock with deterministic
// upload ids so the output is reproducible.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -payloads-out data/mock/sensor_payloads.json \
//	  -records-out /tmp/sensor_records.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/couchcryptid/weather-station-ingest/internal/domain"
	"github.com/jonboulle/clockwork"
)

var (
	baseTime   = time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	receivedAt = baseTime.Add(time.Hour)
)

const readingsPerStation = 4

type station struct {
	id           string
	lat, lon     string
	altitude     string
	location     string
	sensorType   string
	manufacturer string
	model        string
	firmware     string
	tempC        float64
	humidity     int
	pressureHPa  float64
	windMPS      float64
}

var stations = []station{
	{
		id: "WS-AUS-001", lat: "30.2672", lon: "-97.7431", altitude: "149", location: "Austin rooftop",
		sensorType: "BME280", manufacturer: "Bosch", model: "BME280", firmware: "1.4.2",
		tempC: 24.0, humidity: 55, pressureHPa: 1012.0, windMPS: 3.0,
	},
	{
		id: "WS-SEA-002", lat: "47.6062", lon: "-122.3321", altitude: "52", location: "Seattle pier",
		sensorType: "SHT31", manufacturer: "Sensirion", model: "SHT31-D", firmware: "2.0.1",
		tempC: 12.5, humidity: 78, pressureHPa: 1018.5, windMPS: 5.5,
	},
	{
		id: "WS-DEN-003", lat: "39.7392", lon: "-104.9903", altitude: "1609", location: "Denver mesa",
		sensorType: "ESP32-WROOM", manufacturer: "Espressif", model: "ESP32-CAM", firmware: "1.2.3",
		tempC: 8.0, humidity: 30, pressureHPa: 838.0, windMPS: 7.0,
	},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	payloadsOut := flag.String("payloads-out", "data/mock/sensor_payloads.json", "output path for raw payload fixture")
	recordsOut := flag.String("records-out", "", "optional output path for canonical records")
	flag.Parse()

	domain.SetClock(clockwork.NewFakeClockAt(receivedAt))
	defer domain.SetClock(nil)

	payloads := generatePayloads()
	if err := writeJSON(*payloadsOut, payloads); err != nil {
		return fmt.Errorf("writing payload fixture: %w", err)
	}
	log.Printf("wrote %d payloads: %s", len(payloads), *payloadsOut)

	records, unparsable, err := buildRecords(payloads)
	if err != nil {
		return err
	}
	if *recordsOut != "" {
		if err := writeJSON(*recordsOut, records); err != nil {
			return fmt.Errorf("writing record fixture: %w", err)
		}
		log.Printf("wrote %d records: %s", len(records), *recordsOut)
	}

	printStats(records, unparsable)
	return nil
}

// generatePayloads emits readingsPerStation payloads per station, 15 minutes
// apart, with values drifting deterministically. The last reading of each
// station is flagged as bad quality.
func generatePayloads() []map[string]string {
	out := make([]map[string]string, 0, len(stations)*readingsPerStation)
	for si, s := range stations {
		for i := range readingsPerStation {
			temp := s.tempC + 0.5*float64(i)
			quality := "good"
			if i == readingsPerStation-1 {
				quality = "bad"
			}
			out = append(out, map[string]string{
				"sensor_id":           s.id,
				"timestamp":           baseTime.Add(time.Duration(i) * 15 * time.Minute).Format(time.RFC3339),
				"lat":                 s.lat,
				"lon":                 s.lon,
				"altitude":            s.altitude,
				"location":            s.location,
				"location_accuracy_m": "5",
				"sensor_type":         s.sensorType,
				"manufacturer":        s.manufacturer,
				"model":               s.model,
				"firmware_version":    s.firmware,
				"temperature_c":       fmt.Sprintf("%.1f", temp),
				"dew_point_c":         fmt.Sprintf("%.1f", temp-6),
				"humidity":            strconv.Itoa(s.humidity + 2*i),
				"wind_speed_mps":      fmt.Sprintf("%.1f", s.windMPS+0.4*float64(i)),
				"wind_direction":      strconv.Itoa((90*i + 45) % 360),
				"pressure_hpa":        fmt.Sprintf("%.1f", s.pressureHPa-0.3*float64(i)),
				"battery_level":       strconv.Itoa(100 - 3*i - 10*si),
				"signal_strength":     strconv.Itoa(-60 - 2*i - 5*si),
				"data_quality":        quality,
				"data_source":         "genmock",
				"upload_status":       "received",
			})
		}
	}
	return out
}

// buildRecords runs each payload through normalization, assembly, and
// validation exactly as the service does.
func buildRecords(payloads []map[string]string) ([]domain.SensorRecord, map[string]int, error) {
	validator := domain.NewValidator(true)
	records := make([]domain.SensorRecord, 0, len(payloads))
	unparsable := map[string]int{}

	for n, p := range payloads {
		raw := make(domain.RawPayload, len(p))
		for k, v := range p {
			raw[k] = v
		}
		for _, res := range domain.NormalizeFields(raw) {
			if res.Status == domain.Unparsable {
				unparsable[res.Rule.Raw]++
			}
		}

		rec, _, err := domain.BuildRecord(validator, raw, domain.Attachment{
			Source:     "genmock",
			UploadID:   fmt.Sprintf("genmock-%02d", n),
			ReceivedAt: receivedAt,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("payload %d (%s): %w", n, p["sensor_id"], err)
		}
		records = append(records, rec)
	}
	return records, unparsable, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(records []domain.SensorRecord, unparsable map[string]int) {
	perStation := map[string]int{}
	var badQuality int
	var minK, maxK float64
	for i := range records {
		r := &records[i]
		perStation[r.SensorID]++
		if r.Upload != nil && r.Upload.DataQuality != nil && !*r.Upload.DataQuality {
			badQuality++
		}
		if t := r.Readings.TemperatureK; t != nil {
			if minK == 0 || *t < minK {
				minK = *t
			}
			if *t > maxK {
				maxK = *t
			}
		}
	}

	ids := make([]string, 0, len(perStation))
	for id := range perStation {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(records))
	for _, id := range ids {
		fmt.Printf("  %s: %d\n", id, perStation[id])
	}
	fmt.Printf("Bad quality: %d\n", badQuality)
	fmt.Printf("Temperature range: %.2f K .. %.2f K\n", minK, maxK)
	fmt.Printf("Unparsable fields: %d\n", len(unparsable))
	for field, n := range unparsable {
		fmt.Printf("  %s=%d\n", field, n)
	}
}
