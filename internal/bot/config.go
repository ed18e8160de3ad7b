package bot

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/ordersbot/core/config"
	coredatabase "github.com/m3rciful/ordersbot/core/database"
	"github.com/m3rciful/ordersbot/internal/domain"
)

// Storage backend selectors for the order ledger.
const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

// defaultHourlyLimit applies when orders.hourly_limit is omitted.
const defaultHourlyLimit = 10

// OrdersConfig holds settings specific to the purchase workflow.
type OrdersConfig struct {
	// Storage selects the ledger backend: "file" or "postgres".
	Storage string `yaml:"storage" envconfig:"ORDERS_STORAGE"`
	// DataFile is the ledger path when storage is "file".
	DataFile string `yaml:"data_file" envconfig:"ORDERS_DATA_FILE"`
	// OperatorChatID receives order forwards and issues /send_req and /confirm.
	OperatorChatID int64 `yaml:"operator_chat_id" envconfig:"ORDERS_OPERATOR_CHAT_ID"`
	// HourlyLimit caps new requests per rolling hour. Omitted defaults
	// to 10; an explicit 0 disables the cap.
	HourlyLimit *int `yaml:"hourly_limit" envconfig:"ORDERS_HOURLY_LIMIT"`
	// Requisites is the payment details text sent verbatim by /send_req
	// when the operator omits a custom message.
	Requisites string `yaml:"requisites" envconfig:"ORDERS_REQUISITES"`
	// Timezone is the IANA zone used for record timestamps.
	Timezone string          `yaml:"timezone" envconfig:"ORDERS_TIMEZONE"`
	Tariffs  []domain.Tariff `yaml:"tariffs"`
}

// Config aggregates the core configuration with bot-specific sections.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Orders   OrdersConfig        `yaml:"orders"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}

// LoadConfig reads configuration from a YAML file and environment variables.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if err := normalizeOrders(&cfg.Orders); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalizeOrders(o *OrdersConfig) error {
	o.Storage = strings.ToLower(strings.TrimSpace(o.Storage))
	switch o.Storage {
	case "":
		o.Storage = StorageFile
	case StorageFile, StoragePostgres:
	default:
		return fmt.Errorf("orders.storage must be %q or %q, got %q", StorageFile, StoragePostgres, o.Storage)
	}

	if o.DataFile == "" {
		o.DataFile = "orders_data.json"
	}
	if o.OperatorChatID == 0 {
		return fmt.Errorf("orders.operator_chat_id is required")
	}
	if o.HourlyLimit == nil {
		def := defaultHourlyLimit
		o.HourlyLimit = &def
	}
	if *o.HourlyLimit < 0 {
		return fmt.Errorf("orders.hourly_limit must be >= 0")
	}
	if o.Timezone == "" {
		o.Timezone = "Europe/Kyiv"
	}
	if _, err := time.LoadLocation(o.Timezone); err != nil {
		return fmt.Errorf("orders.timezone: %w", err)
	}
	if len(o.Tariffs) == 0 {
		o.Tariffs = domain.DefaultCatalog()
	}
	for i, t := range o.Tariffs {
		if strings.TrimSpace(t.Key) == "" || strings.TrimSpace(t.Text) == "" {
			return fmt.Errorf("orders.tariffs[%d]: key and text are required", i)
		}
	}
	return nil
}
