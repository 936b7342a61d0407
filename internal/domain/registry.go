package domain

// ConversionKind tags how a raw field is converted to its clean form.
type ConversionKind int

const (
	// LinearScale parses a number and applies value*Scale + Offset.
	LinearScale ConversionKind = iota
	// NumericCast parses a number with no unit conversion.
	NumericCast
	// BooleanToken matches the value against the recognized truthy tokens.
	BooleanToken
	// TrimString trims whitespace; an empty result is missing.
	TrimString
)

func (k ConversionKind) String() string {
	switch k {
	case LinearScale:
		return "linear_scale"
	case NumericCast:
		return "numeric_cast"
	case BooleanToken:
		return "boolean_token"
	case TrimString:
		return "trim_string"
	default:
		return "unknown"
	}
}

// FieldRule maps one raw field to one clean field through one conversion.
type FieldRule struct {
	Raw    string
	Clean  string
	Kind   ConversionKind
	Scale  float64
	Offset float64
}

const kelvinOffset = 273.15

func celsiusToKelvin(raw, clean string) FieldRule {
	return FieldRule{Raw: raw, Clean: clean, Kind: LinearScale, Scale: 1, Offset: kelvinOffset}
}

func numeric(name string) FieldRule {
	return FieldRule{Raw: name, Clean: name, Kind: NumericCast}
}

func boolean(name string) FieldRule {
	return FieldRule{Raw: name, Clean: name, Kind: BooleanToken}
}

func text(name string) FieldRule {
	return FieldRule{Raw: name, Clean: name, Kind: TrimString}
}

// registry is the fixed rule set. Order is the order fields are processed
// and reported in.
var registry = []FieldRule{
	celsiusToKelvin("temperature_c", "temperature_k"),
	celsiusToKelvin("dew_point_c", "dew_point_k"),
	celsiusToKelvin("heat_index_c", "heat_index_k"),
	{Raw: "wind_speed_mps", Clean: "wind_speed_kph", Kind: LinearScale, Scale: 3.6},
	{Raw: "pressure_hpa", Clean: "pressure_pa", Kind: LinearScale, Scale: 100},

	numeric("humidity"),
	numeric("wind_direction"),
	numeric("battery_level"),
	numeric("signal_strength"),
	numeric("lat"),
	numeric("lon"),
	numeric("altitude"),
	numeric("location_accuracy_m"),

	boolean("data_quality"),
	boolean("anomaly_detected"),

	text("sensor_id"),
	text("timestamp"),
	text("location"),
	text("comments"),
	text("sensor_type"),
	text("manufacturer"),
	text("model"),
	text("firmware_version"),
	text("calibration_data"),
	text("raw_data"),
	text("data_source"),
	text("upload_time"),
	text("upload_status"),
	text("processing_notes"),
	text("quality_flags"),
	text("anomaly_type"),
	text("anomaly_severity"),
	text("anomaly_timestamp"),
	text("anomaly_resolution"),
	text("anomaly_comments"),
	text("sensor_status"),
	text("sensor_location"),
	text("sensor_calibration"),
	text("sensor_accuracy"),
	text("sensor_precision"),
}

// rulesByRaw indexes the registry by raw field name. Built once at init and
// never written afterwards, so concurrent reads need no locking.
var rulesByRaw = indexRules(registry)

func indexRules(rules []FieldRule) map[string]FieldRule {
	idx := make(map[string]FieldRule, len(rules))
	for _, r := range rules {
		if _, dup := idx[r.Raw]; dup {
			panic("domain: duplicate field rule for " + r.Raw)
		}
		idx[r.Raw] = r
	}
	return idx
}

// LookupRule returns the rule for a raw field name. Flat fields without a
// rule are dropped during normalization.
func LookupRule(raw string) (FieldRule, bool) {
	r, ok := rulesByRaw[raw]
	return r, ok
}

// isCleanField reports whether name is the clean name of some registry rule.
func isCleanField(name string) bool {
	for _, r := range registry {
		if r.Clean == name {
			return true
		}
	}
	return false
}
