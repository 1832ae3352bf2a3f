package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultPropertyID = "64a2977f-a48b-4ec6-8bd1-f8e11db5b40a"

// maxTokenParts bounds HOSPITABLE_TOKEN_1..N. Some hosting panels cap the
// length of a single variable, so the token may be split across several.
const maxTokenParts = 5

type Hospitable struct {
	BaseURL    string
	PropertyID string
	Token      string
	Timeout    time.Duration
}

type Config struct {
	Env                     string
	HTTPAddr                string
	LogFile                 string
	CORSOrigins             []string
	Hospitable              Hospitable
	AdminUsername           string
	AdminPassword           string
	AdminPasswordHash       string
	SessionTTL              time.Duration
	IdempotencyTTL          time.Duration
	MongoURI                string
	MongoDB                 string
	KafkaBrokers            []string
	KafkaTopicPrefix        string
	DefaultNightlyRate      int64
	Currency                string
	AvailabilityHorizonDays int
}

// Production reports whether the service runs with production defaults
// (JSON logs, secure cookies).
func (c Config) Production() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	default:
		return false
	}
}

// Load reads the environment, falling back to the YAML file named by
// CONFIG_FILE for keys the environment leaves unset.
func Load() (Config, error) {
	src, err := newSource(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}
	return load(src)
}

func load(src source) (Config, error) {
	cfg := Config{
		Env:               src.get("APP_ENV", "dev"),
		HTTPAddr:          src.get("HTTP_ADDR", ":8080"),
		LogFile:           src.get("LOG_FILE", ""),
		AdminUsername:     src.get("ADMIN_USERNAME", "admin"),
		AdminPassword:     src.get("ADMIN_PASSWORD", ""),
		AdminPasswordHash: src.get("ADMIN_PASSWORD_HASH", ""),
		MongoURI:          src.get("MONGO_URI", ""),
		MongoDB:           src.get("MONGO_DB", "lajuana"),
		KafkaTopicPrefix:  src.get("KAFKA_TOPIC_PREFIX", ""),
		Currency:          strings.ToUpper(src.get("CURRENCY", "COP")),
		Hospitable: Hospitable{
			BaseURL:    src.get("HOSPITABLE_BASE_URL", "https://public.api.hospitable.com/v2"),
			PropertyID: src.get("HOSPITABLE_PROPERTY_ID", defaultPropertyID),
			Token:      resolveToken(src),
		},
	}
	cfg.KafkaBrokers = splitList(src.get("KAFKA_BROKERS", ""))
	cfg.CORSOrigins = splitList(src.get("CORS_ORIGINS", "http://localhost:3000"))

	var err error
	if cfg.Hospitable.Timeout, err = src.duration("HOSPITABLE_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = src.duration("SESSION_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = src.duration("IDEMP_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	rate, err := src.integer("DEFAULT_NIGHTLY_RATE", 0)
	if err != nil {
		return Config{}, err
	}
	cfg.DefaultNightlyRate = rate
	horizon, err := src.integer("AVAILABILITY_HORIZON_DAYS", 365)
	if err != nil {
		return Config{}, err
	}
	cfg.AvailabilityHorizonDays = int(horizon)

	if cfg.Hospitable.PropertyID == "" {
		return Config{}, fmt.Errorf("HOSPITABLE_PROPERTY_ID is required")
	}
	if cfg.DefaultNightlyRate < 0 {
		return Config{}, fmt.Errorf("DEFAULT_NIGHTLY_RATE must not be negative")
	}
	if cfg.AvailabilityHorizonDays < 1 {
		return Config{}, fmt.Errorf("AVAILABILITY_HORIZON_DAYS must be positive")
	}
	for _, origin := range cfg.CORSOrigins {
		if origin == "*" {
			return Config{}, fmt.Errorf("CORS_ORIGINS must list explicit origins, credentials are allowed")
		}
	}
	return cfg, nil
}

// resolveToken prefers HOSPITABLE_API_TOKEN, else concatenates the numbered
// parts in order, stopping at the first missing one.
func resolveToken(src source) string {
	if token := strings.TrimSpace(src.get("HOSPITABLE_API_TOKEN", "")); token != "" {
		return token
	}
	var b strings.Builder
	for i := 1; i <= maxTokenParts; i++ {
		part := strings.TrimSpace(src.get("HOSPITABLE_TOKEN_"+strconv.Itoa(i), ""))
		if part == "" {
			break
		}
		b.WriteString(part)
	}
	return b.String()
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// source resolves a key from the environment first, then the config file.
type source struct {
	env  func(string) string
	file map[string]string
}

func newSource(path string) (source, error) {
	src := source{env: os.Getenv, file: map[string]string{}}
	if strings.TrimSpace(path) == "" {
		return src, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return source{}, fmt.Errorf("read config file: %w", err)
	}
	file, err := parseFile(data)
	if err != nil {
		return source{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	src.file = file
	return src, nil
}

// parseFile accepts a flat YAML mapping whose keys are the environment names,
// in any case. Scalar values of any YAML type are taken as text.
func parseFile(data []byte) (map[string]string, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for key, node := range raw {
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("key %s: expected a scalar value", key)
		}
		out[strings.ToUpper(strings.TrimSpace(key))] = node.Value
	}
	return out, nil
}

func (s source) get(key, def string) string {
	if s.env != nil {
		if v := s.env(key); v != "" {
			return v
		}
	}
	if v, ok := s.file[key]; ok && v != "" {
		return v
	}
	return def
}

func (s source) duration(key string, def time.Duration) (time.Duration, error) {
	raw := s.get(key, "")
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func (s source) integer(key string, def int64) (int64, error) {
	raw := strings.TrimSpace(s.get(key, ""))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}
