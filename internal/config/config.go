package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the configuration for the application.
type Config struct {
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`

	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`

	DB struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"db"`

	Scoring struct {
		PrimaryURL     string  `mapstructure:"primary_url"`
		SecondaryURL   string  `mapstructure:"secondary_url"`
		TimeoutSeconds int     `mapstructure:"timeout_seconds"`
		MaxAttempts    int     `mapstructure:"max_attempts"`
		BackoffSeconds int     `mapstructure:"backoff_seconds"`
		RatePerSecond  float64 `mapstructure:"rate_per_second"`
		RateBurst      int     `mapstructure:"rate_burst"`
	} `mapstructure:"scoring"`

	Routing struct {
		AssignThreshold float64 `mapstructure:"assign_threshold"`
		ReviewThreshold float64 `mapstructure:"review_threshold"`
	} `mapstructure:"routing"`

	Matcher struct {
		ConfidenceMargin float64 `mapstructure:"confidence_margin"`
	} `mapstructure:"matcher"`

	Engine struct {
		BatchConcurrency int `mapstructure:"batch_concurrency"`
	} `mapstructure:"engine"`

	Auth struct {
		Enable       bool   `mapstructure:"enable"`
		Issuer       string `mapstructure:"issuer"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
		RedirectURL  string `mapstructure:"redirect_url"`
	} `mapstructure:"auth"`

	TLS struct {
		Enable    bool     `mapstructure:"enable"`
		CertFile  string   `mapstructure:"cert_file"`
		KeyFile   string   `mapstructure:"key_file"`
		Hostnames []string `mapstructure:"hostnames"`
	} `mapstructure:"tls"`
}

// LoadConfig loads the configuration from a file and the environment.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine; defaults plus environment carry a dev setup.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("environment", "dev")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", 5432)
	viper.SetDefault("db.sslmode", "disable")
	viper.SetDefault("scoring.timeout_seconds", 30)
	viper.SetDefault("scoring.max_attempts", 3)
	viper.SetDefault("scoring.backoff_seconds", 2)
	viper.SetDefault("scoring.rate_per_second", 5.0)
	viper.SetDefault("scoring.rate_burst", 5)
	viper.SetDefault("routing.assign_threshold", 8.0)
	viper.SetDefault("routing.review_threshold", 5.0)
	viper.SetDefault("matcher.confidence_margin", 1.0)
	viper.SetDefault("engine.batch_concurrency", 4)
}

func (c *Config) validate() error {
	if c.Routing.ReviewThreshold > c.Routing.AssignThreshold {
		return fmt.Errorf("routing: review_threshold (%.1f) must not exceed assign_threshold (%.1f)",
			c.Routing.ReviewThreshold, c.Routing.AssignThreshold)
	}
	if c.Scoring.MaxAttempts < 1 {
		return fmt.Errorf("scoring: max_attempts must be at least 1")
	}
	return nil
}
