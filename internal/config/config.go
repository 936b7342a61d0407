package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// SchemaStrict rejects candidate records carrying unknown fields.
	SchemaStrict bool

	MongoURI              string
	MongoDatabase         string
	MongoSensorCollection string
	MongoImageCollection  string
	MongoTimeout          time.Duration

	UploadDir               string
	UploadAllowedExtensions []string
	UploadMaxBytes          int64
	UploadRateLimit         float64 // requests per second per client
	UploadRateBurst         int

	// Kafka pipeline is optional; the HTTP API works without it.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration

	// MQTT subscription is enabled when MQTTBroker is set.
	MQTTBroker         string
	MQTTClientID       string
	MQTTTopic          string
	MQTTQoS            byte
	MQTTUsername       string
	MQTTPassword       string
	MQTTConnectTimeout time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	mongoTimeout, err := parsePositiveDuration("MONGO_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	mqttConnectTimeout, err := parsePositiveDuration("MQTT_CONNECT_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	maxBytes, err := parsePositiveInt("UPLOAD_MAX_BYTES", 10<<20)
	if err != nil {
		return nil, err
	}
	rateBurst, err := parsePositiveInt("UPLOAD_RATE_BURST", 10)
	if err != nil {
		return nil, err
	}
	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("UPLOAD_RATE_LIMIT", "5"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, errors.New("invalid UPLOAD_RATE_LIMIT")
	}

	qos, err := strconv.Atoi(sharedcfg.EnvOrDefault("MQTT_QOS", "1"))
	if err != nil || qos < 0 || qos > 2 {
		return nil, errors.New("invalid MQTT_QOS: must be 0, 1, or 2")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		SchemaStrict:    os.Getenv("SCHEMA_STRICT") == "true",

		MongoURI:              sharedcfg.EnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:         sharedcfg.EnvOrDefault("MONGO_DATABASE", "weather"),
		MongoSensorCollection: sharedcfg.EnvOrDefault("MONGO_SENSOR_COLLECTION", "sensor_data"),
		MongoImageCollection:  sharedcfg.EnvOrDefault("MONGO_IMAGE_COLLECTION", "cloud_images"),
		MongoTimeout:          mongoTimeout,

		UploadDir:               sharedcfg.EnvOrDefault("UPLOAD_DIR", "uploads"),
		UploadAllowedExtensions: parseExtensions(sharedcfg.EnvOrDefault("UPLOAD_ALLOWED_EXTENSIONS", "jpg,jpeg,png,gif")),
		UploadMaxBytes:          int64(maxBytes),
		UploadRateLimit:         rateLimit,
		UploadRateBurst:         rateBurst,

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-sensor-payloads"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "validated-sensor-records"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "weather-station-ingest"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		MQTTBroker:         os.Getenv("MQTT_BROKER"),
		MQTTClientID:       sharedcfg.EnvOrDefault("MQTT_CLIENT_ID", "weather-station-ingest"),
		MQTTTopic:          sharedcfg.EnvOrDefault("MQTT_TOPIC", "weather/+/telemetry"),
		MQTTQoS:            byte(qos),
		MQTTUsername:       os.Getenv("MQTT_USERNAME"),
		MQTTPassword:       os.Getenv("MQTT_PASSWORD"),
		MQTTConnectTimeout: mqttConnectTimeout,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if cfg.MongoURI == "" {
		return nil, errors.New("MONGO_URI is required")
	}
	if len(cfg.UploadAllowedExtensions) == 0 {
		return nil, errors.New("UPLOAD_ALLOWED_EXTENSIONS must list at least one extension")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

// parseExtensions lowercases the comma separated list and strips leading dots.
func parseExtensions(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(p), "."))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
