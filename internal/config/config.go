package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OpenAI struct {
		APIKey    string `yaml:"apiKey"`
		Model     string `yaml:"model"`
		MaxTokens int    `yaml:"maxTokens"`
	} `yaml:"openai"`

	Uploads struct {
		Dir               string `yaml:"dir"`
		MaxPortfolioFiles int    `yaml:"maxPortfolioFiles"`
	} `yaml:"uploads"`

	Analysis struct {
		TimeoutSeconds      int `yaml:"timeoutSeconds"`
		MaxAttempts         int `yaml:"maxAttempts"`
		RetryBackoffSeconds int `yaml:"retryBackoffSeconds"`
	} `yaml:"analysis"`

	Sessions struct {
		TTLHours             int `yaml:"ttlHours"`
		SweepIntervalMinutes int `yaml:"sweepIntervalMinutes"`
	} `yaml:"sessions"`
}

// Load reads the yaml config file and applies defaults plus env overrides
// (OPENAI_API_KEY wins over the file so keys stay out of committed configs).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "uploads"
	}
	if c.Uploads.MaxPortfolioFiles == 0 {
		c.Uploads.MaxPortfolioFiles = 10
	}
	if c.Analysis.TimeoutSeconds == 0 {
		c.Analysis.TimeoutSeconds = 120
	}
	if c.Analysis.MaxAttempts == 0 {
		c.Analysis.MaxAttempts = 1
	}
	if c.Analysis.RetryBackoffSeconds == 0 {
		c.Analysis.RetryBackoffSeconds = 5
	}
	if c.Sessions.TTLHours == 0 {
		c.Sessions.TTLHours = 24
	}
	if c.Sessions.SweepIntervalMinutes == 0 {
		c.Sessions.SweepIntervalMinutes = 30
	}
}

// MySQLDSN builds the DSN for the mysql driver.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds the DSN for the pq driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) AnalysisTimeout() time.Duration {
	return time.Duration(c.Analysis.TimeoutSeconds) * time.Second
}

func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Analysis.RetryBackoffSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Sessions.TTLHours) * time.Hour
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Sessions.SweepIntervalMinutes) * time.Minute
}
