package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/xaenox/cladari/internal/models"
)

type Config struct {
	Models    ModelsConfig    `mapstructure:"models"`
	Inference InferenceConfig `mapstructure:"inference"`
	PlantDB   PlantDBConfig   `mapstructure:"plantdb"`
	Router    RouterConfig    `mapstructure:"router"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
}

type ModelsConfig struct {
	Primary    ModelConfig `mapstructure:"primary"`
	Specialist ModelConfig `mapstructure:"specialist"`
	Test       ModelConfig `mapstructure:"test"`
}

type ModelConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	Family       string        `mapstructure:"family"`
	Model        string        `mapstructure:"model"`
	Purpose      string        `mapstructure:"purpose"`
	API          string        `mapstructure:"api"`
	Persona      string        `mapstructure:"persona"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	Temperature  float64       `mapstructure:"temperature"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Stop         []string      `mapstructure:"stop"`
	StripBeliefs bool          `mapstructure:"strip_beliefs"`
}

type InferenceConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type PlantDBConfig struct {
	APIEndpoint      string        `mapstructure:"api_endpoint"`
	FallbackEndpoint string        `mapstructure:"fallback_endpoint"`
	Timeout          time.Duration `mapstructure:"timeout"`
	QuickTimeout     time.Duration `mapstructure:"quick_timeout"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
}

type RouterConfig struct {
	Mode                string  `mapstructure:"mode"`
	DatabaseTemperature float64 `mapstructure:"database_temperature"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Endpoints converts the model section into immutable endpoint descriptors.
func (c *Config) Endpoints() []models.Endpoint {
	return []models.Endpoint{
		c.Models.Primary.endpoint("primary"),
		c.Models.Specialist.endpoint("specialist"),
		c.Models.Test.endpoint("test"),
	}
}

func (m ModelConfig) endpoint(name string) models.Endpoint {
	stop := make([]string, len(m.Stop))
	copy(stop, m.Stop)
	return models.Endpoint{
		Name:         name,
		Family:       m.Family,
		BaseURL:      m.Endpoint,
		Model:        m.Model,
		Purpose:      m.Purpose,
		API:          models.API(m.API),
		Persona:      models.Persona(m.Persona),
		MaxTokens:    m.MaxTokens,
		Temperature:  m.Temperature,
		Timeout:      m.Timeout,
		Stop:         stop,
		StripBeliefs: m.StripBeliefs,
	}
}

// PlantDBURLs lists the inventory base URLs in the order they are tried.
func (c *Config) PlantDBURLs() []string {
	urls := []string{c.PlantDB.APIEndpoint}
	if c.PlantDB.FallbackEndpoint != "" {
		urls = append(urls, c.PlantDB.FallbackEndpoint)
	}
	return urls
}

// PlantDBTimeout is shorter in quick-test mode.
func (c *Config) PlantDBTimeout() time.Duration {
	if c.Router.Mode == "quick" && c.PlantDB.QuickTimeout > 0 {
		return c.PlantDB.QuickTimeout
	}
	return c.PlantDB.Timeout
}

func (c *Config) Validate() error {
	switch c.Router.Mode {
	case "standard", "quick":
	default:
		return fmt.Errorf("router.mode must be standard or quick, got %q", c.Router.Mode)
	}
	if c.PlantDB.APIEndpoint == "" {
		return errors.New("plantdb.api_endpoint is required")
	}
	// A zero temperature is omitted from the request body and the server
	// would fall back to its own default.
	if c.Router.DatabaseTemperature <= 0 {
		return fmt.Errorf("router.database_temperature must be positive, got %v", c.Router.DatabaseTemperature)
	}

	byName := map[string]ModelConfig{
		"primary":    c.Models.Primary,
		"specialist": c.Models.Specialist,
		"test":       c.Models.Test,
	}
	for name, m := range byName {
		if m.Endpoint == "" {
			return fmt.Errorf("models.%s.endpoint is required", name)
		}
		if m.Model == "" {
			return fmt.Errorf("models.%s.model is required", name)
		}
		if m.API != "completions" && m.API != "chat" {
			return fmt.Errorf("models.%s.api must be completions or chat, got %q", name, m.API)
		}
		if m.Persona != "assistant" && m.Persona != "scientist" {
			return fmt.Errorf("models.%s.persona must be assistant or scientist, got %q", name, m.Persona)
		}
		if m.Temperature <= 0 {
			return fmt.Errorf("models.%s.temperature must be positive, got %v", name, m.Temperature)
		}
	}
	return nil
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}, nil
}

func setDefaults(v *viper.Viper) {
	stop := []string{"User:", "\n\n\n"}

	v.SetDefault("models.primary.endpoint", "http://localhost:8080")
	v.SetDefault("models.primary.family", "Mistral")
	v.SetDefault("models.primary.model", "mistral-nemo-12b")
	v.SetDefault("models.primary.purpose", "general")
	v.SetDefault("models.primary.api", "completions")
	v.SetDefault("models.primary.persona", "assistant")
	v.SetDefault("models.primary.max_tokens", 1500)
	v.SetDefault("models.primary.temperature", 0.3)
	v.SetDefault("models.primary.timeout", 10*time.Second)
	v.SetDefault("models.primary.stop", stop)

	v.SetDefault("models.specialist.endpoint", "http://localhost:8081")
	v.SetDefault("models.specialist.family", "PLLaMa")
	v.SetDefault("models.specialist.model", "pllama-7b")
	v.SetDefault("models.specialist.purpose", "science")
	v.SetDefault("models.specialist.api", "completions")
	v.SetDefault("models.specialist.persona", "scientist")
	v.SetDefault("models.specialist.max_tokens", 1000)
	v.SetDefault("models.specialist.temperature", 0.4)
	v.SetDefault("models.specialist.timeout", 10*time.Second)
	v.SetDefault("models.specialist.stop", stop)

	v.SetDefault("models.test.endpoint", "http://localhost:8000")
	v.SetDefault("models.test.family", "Sovria")
	v.SetDefault("models.test.model", "sovria-test")
	v.SetDefault("models.test.purpose", "test")
	v.SetDefault("models.test.api", "chat")
	v.SetDefault("models.test.persona", "assistant")
	v.SetDefault("models.test.max_tokens", 500)
	v.SetDefault("models.test.temperature", 0.7)
	v.SetDefault("models.test.timeout", 5*time.Second)
	v.SetDefault("models.test.strip_beliefs", true)

	v.SetDefault("plantdb.api_endpoint", "http://localhost:3000/api")
	v.SetDefault("plantdb.timeout", 5*time.Second)
	v.SetDefault("plantdb.quick_timeout", 2*time.Second)
	v.SetDefault("plantdb.cache_ttl", time.Duration(0))

	v.SetDefault("router.mode", "standard")
	v.SetDefault("router.database_temperature", 0.2)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "cladari")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", true)

	v.SetDefault("server.addr", ":8090")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// LoadConfig reads path on top of the defaults. A missing file is not an
// error. Environment variables (CLADARI_ROUTER_MODE, ...) override the
// file and flags (when given) override both.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Enable environment variable support
	v.SetEnvPrefix("CLADARI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, flag := range map[string]string{
			"router.mode": "mode",
			"log.level":   "log-level",
		} {
			if f := flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", flag, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Check for DATABASE_URL environment variable
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		config.Database = dbConfig
	}

	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Inference.APIKey = apiKey
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
