package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// Webhook is one outbound call made after a full refresh completes.
type Webhook struct {
	Method  string            `koanf:"method" json:"method"`
	URL     string            `koanf:"url" json:"url"`
	Headers map[string]string `koanf:"headers" json:"headers"`
}

// Config holds all process-wide settings. It is built once in main and
// never mutated afterwards.
type Config struct {
	Environment string `koanf:"environment"`
	Hostname    string `koanf:"-"`

	ServerHost string `koanf:"server_host"`
	ServerPort int    `koanf:"server_port"`

	APIKey string `koanf:"api_key"`

	// Normalized store.
	PostgresHost     string `koanf:"postgres_host"`
	PostgresPort     int    `koanf:"postgres_port"`
	PostgresUser     string `koanf:"postgres_user"`
	PostgresPassword string `koanf:"postgres_password"`
	PostgresDatabase string `koanf:"postgres_database"`

	// Staging store, also the target of the bulk loader.
	MySQLHost     string `koanf:"mysql_host"`
	MySQLPort     int    `koanf:"mysql_port"`
	MySQLUser     string `koanf:"mysql_user"`
	MySQLPassword string `koanf:"mysql_password"`
	MySQLDatabase string `koanf:"mysql_database"`

	// Remote dump endpoint, e.g. https://example.org. Dumps are fetched
	// from {RemoteBaseURL}/sql/{name}.gz and annotation pictures are
	// linked under {RemoteBaseURL}/i/ and /ia/.
	RemoteBaseURL string `koanf:"remote_base_url"`

	// Name of the sources row all imported entities hang off of.
	SourceName string `koanf:"source_name"`

	Webhooks []Webhook `koanf:"webhooks"`

	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay"`

	WorkerProcesses    int           `koanf:"worker_processes"`
	WorkerMaxAttempts  int           `koanf:"worker_max_attempts"`
	WorkerPollInterval time.Duration `koanf:"worker_poll_interval"`
	JobTimeout         time.Duration `koanf:"job_timeout"`

	// Hour (UTC) of the daily scheduled refresh.
	UpdateHour int `koanf:"update_hour"`
}

const (
	environmentENV = "ENVIRONMENT"
	configFileENV  = "CONFIG_FILE"
)

// New loads the configuration: defaults first, then an optional YAML
// file pointed at by CONFIG_FILE (this is where the webhook list lives),
// then environment variables, which win.
func New() (*Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{
		Environment:               "development",
		Hostname:                  hostname,
		ServerHost:                "0.0.0.0",
		ServerPort:                8080,
		PostgresPort:              5432,
		MySQLPort:                 3306,
		SourceName:                "flibusta",
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		WorkerProcesses:           2,
		WorkerMaxAttempts:         30,
		WorkerPollInterval:        5 * time.Second,
		JobTimeout:                10 * time.Minute,
		UpdateHour:                5,
	}

	k := koanf.New(".")

	if path := os.Getenv(configFileENV); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	err = k.Load(env.Provider("", ".", strings.ToLower), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	err = k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if e := os.Getenv(environmentENV); e != "" {
		cfg.Environment = e
	}

	return cfg, nil
}
