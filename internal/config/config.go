// Package config assembles the service configuration from, in increasing
// priority: built-in defaults, a JSON file, the environment (with .env
// support) and command line flags.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" json:"server_address" validate:"hostname_port"`
	LogLevel            string        `env:"LOG_LEVEL" json:"log_level" validate:"loglevel"`
	MongoURI            string        `env:"MONGO_URI" json:"mongo_uri" validate:"omitempty,uri"`
	MongoDatabase       string        `env:"MONGO_DATABASE" json:"mongo_database" validate:"required"`
	DatabaseDSN         string        `env:"DATABASE_DSN" json:"database_dsn"`
	MigrationsDir       string        `env:"MIGRATIONS_DIR" json:"migrations_dir" validate:"required"`
	DBFileName          string        `env:"FILE_STORAGE_PATH" json:"file_storage_path" validate:"filepath"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT" json:"-" validate:"gt=0"`
	TrustedSubnet       string        `env:"TRUSTED_SUBNET" json:"trusted_subnet" validate:"omitempty,cidr"`
	GRPCAddr            string        `env:"GRPC_ADDRESS" json:"grpc_address" validate:"omitempty,hostname_port"`
	CORSAllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," json:"cors_allowed_origins" validate:"min=1"`
	EnableMetrics       bool          `env:"ENABLE_METRICS" json:"enable_metrics"`
	EmptyListIsError    bool          `env:"EMPTY_LIST_IS_ERROR" json:"empty_list_is_error"`
	ConfigFile          string        `env:"CONFIG" json:"-"`
}

// jsonConfig is the file format. Pointers tell an absent key from a zero value.
type jsonConfig struct {
	Config
	DBConnectionTimeout string `json:"db_connection_timeout"`
	EnableMetrics       *bool  `json:"enable_metrics"`
	EmptyListIsError    *bool  `json:"empty_list_is_error"`
}

var defaultConfig = Config{
	RunAddr:             ":4000",
	LogLevel:            "info",
	MongoURI:            "",
	MongoDatabase:       "usrinfo",
	DatabaseDSN:         "",
	MigrationsDir:       "cmd/usrinfo/migrations",
	DBFileName:          "",
	DBConnectionTimeout: 10 * time.Second,
	TrustedSubnet:       "",
	GRPCAddr:            "",
	CORSAllowedOrigins:  []string{"*"},
	EnableMetrics:       true,
	EmptyListIsError:    true,
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
	values.CORSAllowedOrigins = append([]string(nil), defaults.CORSAllowedOrigins...)
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	if path == "" {
		return true
	}
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug":  true,
		"info":   true,
		"warn":   true,
		"error":  true,
		"dpanic": true,
		"panic":  true,
		"fatal":  true,
	}

	return allowedLogLevels[value]
}

func (cfg *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	return validate.Struct(cfg)
}

// configPathFromArgs finds -c/-config before the flag set exists, because the
// file it names must be applied before the flags.
func configPathFromArgs(args []string) string {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || (name != "c" && name != "config") {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}

	return ""
}

func (cfg *Config) loadJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("in internal/config/config.go/loadJSON(): error while `os.ReadFile()` calling: %w", err)
	}

	fromFile := jsonConfig{Config: *cfg}
	if err := json.Unmarshal(data, &fromFile); err != nil {
		return fmt.Errorf("in internal/config/config.go/loadJSON(): error while `json.Unmarshal()` calling: %w", err)
	}

	timeout := cfg.DBConnectionTimeout
	if fromFile.DBConnectionTimeout != "" {
		timeout, err = time.ParseDuration(fromFile.DBConnectionTimeout)
		if err != nil {
			return fmt.Errorf("in internal/config/config.go/loadJSON(): error while `time.ParseDuration()` calling: %w", err)
		}
	}

	configFile := cfg.ConfigFile
	*cfg = fromFile.Config
	cfg.ConfigFile = configFile
	cfg.DBConnectionTimeout = timeout
	if fromFile.EnableMetrics != nil {
		cfg.EnableMetrics = *fromFile.EnableMetrics
	}
	if fromFile.EmptyListIsError != nil {
		cfg.EmptyListIsError = *fromFile.EmptyListIsError
	}

	return nil
}

func (cfg *Config) parseFlags(args []string) error {
	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)

	flags.StringVar(&cfg.ConfigFile, "c", cfg.ConfigFile, "JSON configuration file")
	flags.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "JSON configuration file")
	flags.StringVar(&cfg.RunAddr, "a", cfg.RunAddr, "address and port to run server")
	flags.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "logger level")
	flags.StringVar(&cfg.MongoURI, "m", cfg.MongoURI, "MongoDB connection URI")
	flags.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "A string with the database connection details")
	flags.StringVar(&cfg.DBFileName, "f", cfg.DBFileName, "JSON file name with database")
	flags.StringVar(&cfg.TrustedSubnet, "t", cfg.TrustedSubnet, "CIDR allowed to read /api/internal/stats")
	flags.StringVar(&cfg.GRPCAddr, "g", cfg.GRPCAddr, "address and port of the gRPC health service")

	return flags.Parse(args)
}

// New builds the configuration. Flags are read from os.Args unless disabled.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Unable to load .env file: %v", err)
	}

	cfg := &Config{}
	applyDefaults(cfg, defaultConfig)

	cfg.ConfigFile = os.Getenv("CONFIG")
	if !options.disableFlagsParsing {
		if path := configPathFromArgs(os.Args[1:]); path != "" {
			cfg.ConfigFile = path
		}
	}
	if cfg.ConfigFile != "" {
		if err := cfg.loadJSON(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("in internal/config/config.go/New(): error while `env.Parse()` calling: %w", err)
	}

	if !options.disableFlagsParsing {
		if err := cfg.parseFlags(os.Args[1:]); err != nil {
			return nil, fmt.Errorf("in internal/config/config.go/New(): error while `cfg.parseFlags()` calling: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
