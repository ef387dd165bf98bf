// =============================================================================
// OC Harvester - Configuration Module
// =============================================================================
//
// This module loads the harvester configuration. There are two kinds:
//
//   1. MainConfig (config.yaml): API identity, endpoints, retry timings,
//      output location and the optional ledger/metrics/XLSX outputs.
//   2. RunConfig: what to harvest on this invocation (a single day or a
//      range, and whether pharmaceutical orders are included). It is built
//      once at the CLI boundary and passed down as plain values.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global harvester configuration.
type MainConfig struct {
	// =========================================================================
	// API IDENTITY
	// =========================================================================

	// OrganizationCode is the buyer organization ("CodigoOrganismo").
	OrganizationCode string `yaml:"organization_code"`

	// Ticket is the Mercado Público access ticket.
	// The MP_TICKET environment variable overrides it.
	Ticket string `yaml:"ticket"`

	// API holds endpoint and transport settings.
	API APISettings `yaml:"api"`

	// Retry holds attempt counts and pauses.
	Retry RetrySettings `yaml:"retry"`

	// =========================================================================
	// CLASSIFICATION
	// =========================================================================

	// SpecialPrefix marks pharmaceutical orders by order-code prefix.
	// Default: "1063535"
	SpecialPrefix string `yaml:"special_prefix"`

	// SupplierDispatchFallback fills the supplier dispatch date with the
	// dispatch date when the API omits it.
	// Default: true
	SupplierDispatchFallback *bool `yaml:"supplier_dispatch_fallback"`

	// StatusLabels maps "CodigoEstado" values to readable labels. Entries
	// given here are merged over the built-in table.
	StatusLabels map[string]string `yaml:"status_labels"`

	// =========================================================================
	// OUTPUT
	// =========================================================================

	// OutputDir is where the daily files are written.
	// Default: "./output/DIARIO"
	OutputDir string `yaml:"output_dir"`

	// FilePrefix prefixes every output file name.
	// Default: "OC_HBSJO"
	FilePrefix string `yaml:"file_prefix"`

	// Export controls optional extra output formats.
	Export ExportSettings `yaml:"export"`

	// LedgerPath is the SQLite file recording harvested days. Empty disables it.
	LedgerPath string `yaml:"ledger_path"`

	// MetricsTextfile is a Prometheus textfile written at the end of a run.
	// Empty disables it.
	MetricsTextfile string `yaml:"metrics_textfile"`

	// =========================================================================
	// LOGGING
	// =========================================================================

	// LogFile is appended to in addition to stdout. Empty means stdout only.
	LogFile string `yaml:"log_file"`

	// LogLevel is one of "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`
}

// APISettings contains endpoint and HTTP transport settings.
type APISettings struct {
	// ListingURL is queried with fecha + CodigoOrganismo.
	ListingURL string `yaml:"listing_url"`

	// DetailURL is the primary detail endpoint (queried with codigo).
	DetailURL string `yaml:"detail_url"`

	// LegacyDetailURL is tried when DetailURL returns nothing.
	LegacyDetailURL string `yaml:"legacy_detail_url"`

	// Timeout bounds a single HTTP request.
	// Default: 30s
	Timeout Duration `yaml:"timeout"`

	// InsecureSkipVerify disables TLS certificate verification.
	// Only for environments that cannot validate the portal's chain.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	// UserAgent is sent on every request.
	UserAgent string `yaml:"user_agent"`
}

// RetrySettings contains the fixed retry policy.
type RetrySettings struct {
	ListingAttempts int      `yaml:"listing_attempts"`
	ListingDelay    Duration `yaml:"listing_delay"`
	DetailAttempts  int      `yaml:"detail_attempts"`
	DetailDelay     Duration `yaml:"detail_delay"`
	OrderPacing     Duration `yaml:"order_pacing"`
}

// ExportSettings toggles extra output formats.
type ExportSettings struct {
	// XLSX also writes each day's detail rows as an .xlsx workbook.
	XLSX bool `yaml:"xlsx"`
}

// Duration is a time.Duration that reads Go duration strings ("2s", "200ms")
// from YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	DefaultListingURL      = "https://api.mercadopublico.cl/servicios/v1/publico/ordenesdecompra.json"
	DefaultDetailURL       = "https://api.mercadopublico.cl/servicios/v1/publico/ordenesdecompra.json"
	DefaultLegacyDetailURL = "https://api.mercadopublico.cl/servicios/v1/publico/OrdenCompra.json"
	DefaultSpecialPrefix   = "1063535"
	DefaultFilePrefix      = "OC_HBSJO"
	DefaultConfigFile      = "config.yaml"
)

// DefaultStatusLabels is the built-in "CodigoEstado" table.
func DefaultStatusLabels() map[string]string {
	return map[string]string{
		"4":  "Enviada a Proveedor",
		"5":  "En proceso",
		"6":  "Aceptada",
		"9":  "Cancelada",
		"12": "Recepción Conforme",
		"13": "Pendiente de Recepcionar",
		"14": "Recepcionada Parcialmente",
		"15": "Recepción Conforme Incompleta",
	}
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the configuration file. A missing file is
//     accepted only when it is the default "config.yaml"; the harvester then
//     runs on defaults plus environment overrides.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && configPath == DefaultConfigFile:
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnvOverrides(&config)
	ApplyMainConfigDefaults(&config)

	if err := ValidateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyEnvOverrides(config *MainConfig) {
	if v := os.Getenv("MP_TICKET"); v != "" {
		config.Ticket = v
	}
	if v := os.Getenv("MP_ORGANIZATION_CODE"); v != "" {
		config.OrganizationCode = v
	}
}

// ApplyMainConfigDefaults sets default values for any unset option.
func ApplyMainConfigDefaults(config *MainConfig) {
	if config.API.ListingURL == "" {
		config.API.ListingURL = DefaultListingURL
	}
	if config.API.DetailURL == "" {
		config.API.DetailURL = DefaultDetailURL
	}
	if config.API.LegacyDetailURL == "" {
		config.API.LegacyDetailURL = DefaultLegacyDetailURL
	}
	if config.API.Timeout == 0 {
		config.API.Timeout = Duration(30 * time.Second)
	}
	if config.API.UserAgent == "" {
		config.API.UserAgent = "oc-harvester/1.0"
	}

	if config.Retry.ListingAttempts == 0 {
		config.Retry.ListingAttempts = 3
	}
	if config.Retry.ListingDelay == 0 {
		config.Retry.ListingDelay = Duration(2 * time.Second)
	}
	if config.Retry.DetailAttempts == 0 {
		config.Retry.DetailAttempts = 3
	}
	if config.Retry.DetailDelay == 0 {
		config.Retry.DetailDelay = Duration(time.Second)
	}
	if config.Retry.OrderPacing == 0 {
		config.Retry.OrderPacing = Duration(200 * time.Millisecond)
	}

	if config.SpecialPrefix == "" {
		config.SpecialPrefix = DefaultSpecialPrefix
	}
	if config.SupplierDispatchFallback == nil {
		fallback := true
		config.SupplierDispatchFallback = &fallback
	}

	labels := DefaultStatusLabels()
	for code, label := range config.StatusLabels {
		labels[code] = label
	}
	config.StatusLabels = labels

	if config.OutputDir == "" {
		config.OutputDir = "./output/DIARIO"
	}
	if config.FilePrefix == "" {
		config.FilePrefix = DefaultFilePrefix
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
}

// ValidateMainConfig checks the fields the harvester cannot run without.
func ValidateMainConfig(config *MainConfig) error {
	if strings.TrimSpace(config.OrganizationCode) == "" {
		return fmt.Errorf("organization_code is required")
	}
	if strings.TrimSpace(config.Ticket) == "" {
		return fmt.Errorf("ticket is required (set it in the config file or MP_TICKET)")
	}
	if config.Retry.ListingAttempts < 1 || config.Retry.DetailAttempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1")
	}
	if config.Retry.ListingDelay < 0 || config.Retry.DetailDelay < 0 || config.Retry.OrderPacing < 0 {
		return fmt.Errorf("retry delays must not be negative")
	}
	return nil
}
