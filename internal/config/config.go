// Package config loads and validates kvstored's startup configuration: a
// JSON file checked against an embedded JSON Schema, with values
// overridable by environment variables loaded from an optional .env file
// (§6, ambient enrichment — grounded on the teacher's own config loader).
package config

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaFS embed.FS

// Config holds every startup-time knob. Zero value is not valid; use
// Defaults() and then Load() to overlay a file and environment.
type Config struct {
	ListenAddress string `json:"listen_address"`
	AdminAddress  string `json:"admin_address"` // empty disables the admin HTTP surface

	AOLPath   string `json:"aol_path"`
	AOLPolicy string `json:"aol_policy"` // "always" | "everysec" | "no"

	LogLevel string `json:"log_level"`
	LogDate  bool   `json:"log_date"`

	RunAsUser  string `json:"run_as_user"`
	RunAsGroup string `json:"run_as_group"`

	// NATSBridgeURL, when non-empty, forwards every PUBLISH to this NATS
	// server under NATSBridgeSubjectPrefix+channel (§2 domain stack).
	NATSBridgeURL           string `json:"nats_bridge_url"`
	NATSBridgeSubjectPrefix string `json:"nats_bridge_subject_prefix"`

	// LedgerPath, when non-empty, enables the diagnostic SQLite ledger of
	// AOL segment rotations and periodic DBSIZE snapshots.
	LedgerPath string `json:"ledger_path"`

	// ArchiveS3Bucket, when non-empty, enables uploading rotated AOL
	// segments to S3 under ArchiveS3Prefix.
	ArchiveS3Bucket string `json:"archive_s3_bucket"`
	ArchiveS3Prefix string `json:"archive_s3_prefix"`

	AOLRotateInterval time.Duration `json:"-"`
}

// Defaults returns the built-in configuration used when no file overrides
// a field.
func Defaults() Config {
	return Config{
		ListenAddress:     "127.0.0.1:6379",
		AdminAddress:      "127.0.0.1:6380",
		AOLPath:           "appendonly.aof",
		AOLPolicy:         "everysec",
		LogLevel:          "info",
		AOLRotateInterval: 24 * time.Hour,

		NATSBridgeSubjectPrefix: "kvstore.",
	}
}

// Load reads envFile (if non-empty) into the process environment, then
// reads path as JSON, validates it against the embedded schema, and
// overlays it onto Defaults(). A missing path is not an error: Defaults()
// plus the environment overrides is returned (environment-only
// deployments are expected).
func Load(path, envFile string) (Config, error) {
	cfg := Defaults()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: loading env file: %w", err)
		}
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No config file: defaults + environment only.
		case err != nil:
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		default:
			if err := validate(raw); err != nil {
				return Config{}, fmt.Errorf("config: %s failed schema validation: %w", path, err)
			}
			if err := json.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: decoding %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func validate(raw []byte) error {
	compiler := jsonschema.NewCompiler()
	schemaBytes, err := schemaFS.ReadFile("schema.json")
	if err != nil {
		return err
	}
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaBytes)); err != nil {
		return err
	}
	sch, err := compiler.Compile("schema.json")
	if err != nil {
		return err
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return sch.Validate(doc)
}

// applyEnvOverrides lets individual fields be overridden without a config
// file at all, matching how operators commonly deploy single-process
// servers in containers.
func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("KVSTORED_LISTEN_ADDRESS"); ok {
		cfg.ListenAddress = v
	}
	if v, ok := os.LookupEnv("KVSTORED_ADMIN_ADDRESS"); ok {
		cfg.AdminAddress = v
	}
	if v, ok := os.LookupEnv("KVSTORED_AOL_PATH"); ok {
		cfg.AOLPath = v
	}
	if v, ok := os.LookupEnv("KVSTORED_AOL_POLICY"); ok {
		cfg.AOLPolicy = v
	}
	if v, ok := os.LookupEnv("KVSTORED_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("KVSTORED_LOG_DATE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LogDate = b
		}
	}
	if v, ok := os.LookupEnv("KVSTORED_NATS_BRIDGE_URL"); ok {
		cfg.NATSBridgeURL = v
	}
	if v, ok := os.LookupEnv("KVSTORED_LEDGER_PATH"); ok {
		cfg.LedgerPath = v
	}
	if v, ok := os.LookupEnv("KVSTORED_ARCHIVE_S3_BUCKET"); ok {
		cfg.ArchiveS3Bucket = v
	}
}
