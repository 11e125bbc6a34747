package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/cgpacalc/internal/scoring"
)

type GSheetConfig struct {
	SheetID         string `toml:"sheet_id"`
	SheetName       string `toml:"sheet_name"`
	CredentialsPath string `toml:"credentials_path"`
	Schedule        string `toml:"schedule"`
	StartCell       string `toml:"start_cell"`
}

type Config struct {
	Server struct {
		Port string `toml:"port"`
	} `toml:"server"`

	Auth struct {
		RedisURL      string `toml:"redis_url"`
		TokenHeader   string `toml:"token_header"`
		TokenTTLHours int    `toml:"token_ttl_hours"`
	} `toml:"auth"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Display struct {
		TimestampFormat string `toml:"timestamp_format"`
	} `toml:"display"`

	Scoring scoring.Grader `toml:"scoring"`

	Report struct {
		Title string `toml:"title"`
	} `toml:"report"`

	Bot struct {
		Token string `toml:"token"`
	} `toml:"bot"`

	GSheet []GSheetConfig `toml:"gsheet"`
}

// env overrides, usually coming from a .env file next to config.toml
const (
	envDatabaseDSN = "CGPA_DATABASE_DSN"
	envRedisURL    = "CGPA_AUTH_REDIS_URL"
	envBotToken    = "CGPA_BOT_TOKEN"
)

func DefaultConfig() *Config {
	var config Config
	config.Server.Port = ":8080"
	config.Auth.TokenHeader = "Authorization"
	config.Auth.TokenTTLHours = 24
	config.Database.DSN = "file://saved_gpa_data"
	config.Database.MigrationsDir = "./migrations"
	config.Display.TimestampFormat = "2006-01-02 15:04"
	config.Scoring = scoring.Grader{MinCreditUnit: 1, MaxCreditUnit: 16}
	config.Report.Title = "Student cGPA Report"
	return &config
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger.Debug.Printf("Loaded scoring config: %+v", config.Scoring)

	return config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envDatabaseDSN); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(envRedisURL); v != "" {
		c.Auth.RedisURL = v
	}
	if v := os.Getenv(envBotToken); v != "" {
		c.Bot.Token = v
	}
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}
	if c.Scoring.MinCreditUnit < 1 || c.Scoring.MaxCreditUnit < c.Scoring.MinCreditUnit {
		return fmt.Errorf(
			"invalid credit unit range [%d, %d] in scoring config",
			c.Scoring.MinCreditUnit,
			c.Scoring.MaxCreditUnit,
		)
	}
	return nil
}
