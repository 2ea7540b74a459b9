// Package config loads the service configuration.
//
// Config is YAML on disk, validated against an embedded CUE schema before
// use so an invalid backend name or missing connection setting fails at
// startup with a schema error instead of surfacing later as a store failure.
package config

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

// Backend names accepted by store.backend.
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// schema is the CUE contract the decoded YAML must satisfy.
const schema = `
#Config: {
	store: {
		backend: "sqlite" | "mongo"
		sqlite: {
			path: string | *"auditlog.db"
		}
		mongo: {
			uri:        string | *""
			database:   string | *""
			collection: string | *"audit_logs"
		}
	}
	query: {
		recentLimit: int & >0 & <=1000 | *50
	}
}
`

// Config is the full service configuration.
type Config struct {
	Store StoreConfig `yaml:"store" json:"store"`
	Query QueryConfig `yaml:"query" json:"query"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend string       `yaml:"backend" json:"backend"`
	SQLite  SQLiteConfig `yaml:"sqlite" json:"sqlite"`
	Mongo   MongoConfig  `yaml:"mongo" json:"mongo"`
}

// SQLiteConfig configures the default file-backed store.
type SQLiteConfig struct {
	Path string `yaml:"path" json:"path"`
}

// MongoConfig configures the hosted document-store backend.
type MongoConfig struct {
	URI        string `yaml:"uri" json:"uri"`
	Database   string `yaml:"database" json:"database"`
	Collection string `yaml:"collection" json:"collection"`
}

// QueryConfig tunes the read surface.
type QueryConfig struct {
	// RecentLimit is the default result cap for recent-activity queries
	// when the caller does not pass one.
	RecentLimit int `yaml:"recentLimit" json:"recentLimit"`
}

// Default returns the configuration used when no file is present:
// SQLite next to the working directory, recent limit 50.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend: BackendSQLite,
			SQLite:  SQLiteConfig{Path: "auditlog.db"},
			Mongo:   MongoConfig{Collection: "audit_logs"},
		},
		Query: QueryConfig{RecentLimit: 50},
	}
}

// Load reads and validates a YAML config file.
// An empty path yields Default(). Env var AUDIT_MONGO_URI, when set,
// overrides the configured Mongo URI so credentials can stay out of the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if uri := os.Getenv("AUDIT_MONGO_URI"); uri != "" {
		cfg.Store.Mongo.URI = uri
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks a Config against the embedded CUE schema, plus the
// cross-field constraint CUE cannot see: a selected backend must be
// reachable with the settings given.
func Validate(cfg Config) error {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(schema).LookupPath(cue.ParsePath("#Config"))
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("internal config schema: %w", err)
	}

	unified := schemaVal.Unify(ctx.Encode(cfg))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %s", cueerrors.Details(err, nil))
	}

	if cfg.Store.Backend == BackendMongo {
		if cfg.Store.Mongo.URI == "" {
			return fmt.Errorf("invalid config: store.mongo.uri is required for the mongo backend")
		}
		if cfg.Store.Mongo.Database == "" {
			return fmt.Errorf("invalid config: store.mongo.database is required for the mongo backend")
		}
	}

	return nil
}
