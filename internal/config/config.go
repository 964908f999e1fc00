// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"printer-service/internal/connection"
	"printer-service/internal/layout"
	"printer-service/internal/protocol"
	"printer-service/internal/receipt"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Security  SecurityConfig  `mapstructure:"security"`
	App       AppConfig       `mapstructure:"app"`
	Printer   PrinterConfig   `mapstructure:"printer"`
	Bluetooth BluetoothConfig `mapstructure:"bluetooth"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// PrinterConfig controls receipt rendering and the print retry policy
type PrinterConfig struct {
	PaperWidth             string        `mapstructure:"paper_width"`
	RenderMode             string        `mapstructure:"render_mode"`
	Charset                string        `mapstructure:"charset"`
	Header                 string        `mapstructure:"header"`
	Footer                 string        `mapstructure:"footer"`
	DescPerLine            int           `mapstructure:"desc_per_line"`
	KeepDescriptorOverflow bool          `mapstructure:"keep_descriptor_overflow"`
	MaxRetries             int           `mapstructure:"max_retries"`
	RetryDelay             time.Duration `mapstructure:"retry_delay"`
	ScanDuration           time.Duration `mapstructure:"scan_duration"`
}

// BluetoothConfig groups both transports
type BluetoothConfig struct {
	BLE     BLEConfig     `mapstructure:"ble"`
	Classic ClassicConfig `mapstructure:"classic"`
}

// BLEConfig represents the BLE connect and write policy
type BLEConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	ConnectAttempts int           `mapstructure:"connect_attempts"`
	BackoffBase     time.Duration `mapstructure:"backoff_base"`
	BackoffStep     time.Duration `mapstructure:"backoff_step"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	StabilizeDelay  time.Duration `mapstructure:"stabilize_delay"`
	ChunkSize       int           `mapstructure:"chunk_size"`
	ChunkDelay      time.Duration `mapstructure:"chunk_delay"`
}

// ClassicConfig represents the RFCOMM serial link
type ClassicConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Adapter         string        `mapstructure:"adapter"`
	Channel         int           `mapstructure:"channel"`
	BaudRate        int           `mapstructure:"baud_rate"`
	DataBits        int           `mapstructure:"data_bits"`
	StopBits        int           `mapstructure:"stop_bits"`
	Parity          string        `mapstructure:"parity"`
	ConnectAttempts int           `mapstructure:"connect_attempts"`
	RetryStep       time.Duration `mapstructure:"retry_step"`
	RetryMin        time.Duration `mapstructure:"retry_min"`
	RFCOMMCommand   string        `mapstructure:"rfcomm_command"`
	PrivilegeHelper string        `mapstructure:"privilege_helper"`
}

// StorageConfig represents the saved-printer store
type StorageConfig struct {
	Dir string `mapstructure:"dir"`
}

// DatabaseConfig represents the optional job history database
type DatabaseConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	DBName       string        `mapstructure:"dbname"`
	SSLMode      string        `mapstructure:"sslmode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
	AutoMigrate  bool          `mapstructure:"auto_migrate"`
}

// Load loads configuration from file and environment variables. A missing
// config file leaves the defaults in place.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config", "/etc/printer-service"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Environment variable support
	v.SetEnvPrefix("PRINTER_SERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8085")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// Security defaults
	v.SetDefault("security.allowed_origins", []string{"*"})

	// App defaults
	v.SetDefault("app.name", "printer-service")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)

	// Printer defaults
	opts := receipt.DefaultOptions()
	v.SetDefault("printer.paper_width", layout.Width80)
	v.SetDefault("printer.render_mode", receipt.RenderModeText)
	v.SetDefault("printer.charset", "utf8")
	v.SetDefault("printer.header", opts.Header)
	v.SetDefault("printer.footer", opts.Footer)
	v.SetDefault("printer.desc_per_line", layout.DefaultDescPerLine)
	v.SetDefault("printer.keep_descriptor_overflow", false)
	v.SetDefault("printer.max_retries", connection.DefaultMaxRetries)
	v.SetDefault("printer.retry_delay", "1s")
	v.SetDefault("printer.scan_duration", "5s")

	// Bluetooth defaults
	ble := protocol.DefaultBLEConfig()
	v.SetDefault("bluetooth.ble.enabled", true)
	v.SetDefault("bluetooth.ble.connect_attempts", ble.ConnectAttempts)
	v.SetDefault("bluetooth.ble.backoff_base", ble.BackoffBase)
	v.SetDefault("bluetooth.ble.backoff_step", ble.BackoffStep)
	v.SetDefault("bluetooth.ble.connect_timeout", ble.ConnectTimeout)
	v.SetDefault("bluetooth.ble.stabilize_delay", ble.StabilizeDelay)
	v.SetDefault("bluetooth.ble.chunk_size", ble.ChunkSize)
	v.SetDefault("bluetooth.ble.chunk_delay", ble.ChunkDelay)

	classic := protocol.DefaultClassicConfig()
	v.SetDefault("bluetooth.classic.enabled", true)
	v.SetDefault("bluetooth.classic.adapter", classic.Adapter)
	v.SetDefault("bluetooth.classic.channel", classic.Channel)
	v.SetDefault("bluetooth.classic.baud_rate", classic.BaudRate)
	v.SetDefault("bluetooth.classic.data_bits", classic.DataBits)
	v.SetDefault("bluetooth.classic.stop_bits", classic.StopBits)
	v.SetDefault("bluetooth.classic.parity", classic.Parity)
	v.SetDefault("bluetooth.classic.connect_attempts", classic.ConnectAttempts)
	v.SetDefault("bluetooth.classic.retry_step", classic.RetryStep)
	v.SetDefault("bluetooth.classic.retry_min", classic.RetryMin)
	v.SetDefault("bluetooth.classic.rfcomm_command", classic.RFCOMMCommand)
	v.SetDefault("bluetooth.classic.privilege_helper", "")

	// Storage defaults
	v.SetDefault("storage.dir", "./data/printer")

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "printer_service")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_lifetime", "5m")
	v.SetDefault("database.auto_migrate", true)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	if _, err := layout.ParsePaperWidth(config.Printer.PaperWidth); err != nil {
		return fmt.Errorf("printer.paper_width: %w", err)
	}

	switch config.Printer.RenderMode {
	case receipt.RenderModeText, receipt.RenderModeRaster:
	default:
		return fmt.Errorf("printer.render_mode must be one of: [%s %s]", receipt.RenderModeText, receipt.RenderModeRaster)
	}

	if config.Printer.MaxRetries < 0 {
		return fmt.Errorf("printer.max_retries must not be negative")
	}
	if config.Printer.DescPerLine < 1 {
		return fmt.Errorf("printer.desc_per_line must be at least 1")
	}
	if config.Bluetooth.BLE.ChunkSize < 1 {
		return fmt.Errorf("bluetooth.ble.chunk_size must be at least 1")
	}
	if !config.Bluetooth.BLE.Enabled && !config.Bluetooth.Classic.Enabled {
		return fmt.Errorf("at least one bluetooth transport must be enabled")
	}
	if config.Database.Enabled && config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}

	// Validate environment
	validEnvs := []string{"development", "staging", "production", "test"}
	isValidEnv := false
	for _, env := range validEnvs {
		if config.App.Environment == env {
			isValidEnv = true
			break
		}
	}
	if !isValidEnv {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	// Validate logging level
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	isValidLevel := false
	for _, level := range validLevels {
		if config.Logging.Level == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.DBName, c.Database.SSLMode)
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.IsDevelopment()
}

// Paper returns the configured text paper profile
func (c *Config) Paper() layout.PaperProfile {
	return layout.Profile(c.Printer.PaperWidth, false)
}

// ReceiptOptions returns the composer options
func (c *Config) ReceiptOptions() receipt.Options {
	return receipt.Options{
		Header: c.Printer.Header,
		Footer: c.Printer.Footer,
		Desc: layout.DescOptions{
			PerLine:      c.Printer.DescPerLine,
			KeepOverflow: c.Printer.KeepDescriptorOverflow,
		},
	}
}

// ConnectionConfig returns the manager retry policy
func (c *Config) ConnectionConfig() connection.Config {
	return connection.Config{
		MaxRetries: c.Printer.MaxRetries,
		RetryDelay: c.Printer.RetryDelay,
	}
}

// BLE returns the BLE transport policy
func (c *Config) BLE() protocol.BLEConfig {
	b := c.Bluetooth.BLE
	return protocol.BLEConfig{
		ConnectAttempts: b.ConnectAttempts,
		BackoffBase:     b.BackoffBase,
		BackoffStep:     b.BackoffStep,
		ConnectTimeout:  b.ConnectTimeout,
		StabilizeDelay:  b.StabilizeDelay,
		ChunkSize:       b.ChunkSize,
		ChunkDelay:      b.ChunkDelay,
	}
}

// Classic returns the Classic transport policy
func (c *Config) Classic() protocol.ClassicConfig {
	b := c.Bluetooth.Classic
	return protocol.ClassicConfig{
		Adapter:         b.Adapter,
		Channel:         b.Channel,
		BaudRate:        b.BaudRate,
		DataBits:        b.DataBits,
		StopBits:        b.StopBits,
		Parity:          b.Parity,
		ConnectAttempts: b.ConnectAttempts,
		RetryStep:       b.RetryStep,
		RetryMin:        b.RetryMin,
		RFCOMMCommand:   b.RFCOMMCommand,
		PrivilegeHelper: b.PrivilegeHelper,
	}
}
