package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Discord  DiscordConfig  `yaml:"discord"`
	Recorder RecorderConfig `yaml:"recorder"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Health   HealthConfig   `yaml:"health"`
	S3       S3Config       `yaml:"s3"`
	Uploader UploaderConfig `yaml:"uploader"`
	LogLevel string         `yaml:"log_level"`
}

// DiscordConfig holds the bot credential and the monitored guild
type DiscordConfig struct {
	Token           string `yaml:"token"`
	GuildID         string `yaml:"guild_id"`
	LogChannelID    string `yaml:"log_channel_id"`
	MessageCacheMax int    `yaml:"message_cache_max"` // cached messages for edit/delete content
}

// RecorderConfig holds recorder configuration
type RecorderConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// PipelineConfig bounds the blocking calls of one event
type PipelineConfig struct {
	LookupTimeoutSeconds int `yaml:"lookup_timeout_seconds"`
	SendTimeoutSeconds   int `yaml:"send_timeout_seconds"`
}

// HealthConfig holds the liveness endpoint address
type HealthConfig struct {
	Addr string `yaml:"addr"`
}

// S3Config holds archive upload configuration. An empty bucket disables archiving.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Prefix          string `yaml:"prefix"`
	RoleARN         string `yaml:"role_arn"`          // IAM role ARN for OIDC authentication
	AccessKeyID     string `yaml:"access_key_id"`     // Legacy: static credentials
	SecretAccessKey string `yaml:"secret_access_key"` // Legacy: static credentials
	Endpoint        string `yaml:"endpoint"`          // For S3-compatible services
}

// UploaderConfig holds uploader configuration
type UploaderConfig struct {
	CheckIntervalSeconds int `yaml:"check_interval_seconds"`
	MaxRetries           int `yaml:"max_retries"`
}

// LookupTimeout bounds one audit log query
func (p PipelineConfig) LookupTimeout() time.Duration {
	return time.Duration(p.LookupTimeoutSeconds) * time.Second
}

// SendTimeout bounds one log channel send
func (p PipelineConfig) SendTimeout() time.Duration {
	return time.Duration(p.SendTimeoutSeconds) * time.Second
}

// CheckInterval is the time between archive scans
func (u UploaderConfig) CheckInterval() time.Duration {
	return time.Duration(u.CheckIntervalSeconds) * time.Second
}

// ArchiveEnabled reports whether closed day files go to S3
func (c *Config) ArchiveEnabled() bool {
	return c.S3.Bucket != ""
}

// Load loads configuration from a file. A missing file is not an error so
// the bot can run from environment variables alone.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"TOKEN", &cfg.Discord.Token},
		{"DISCORD_TOKEN", &cfg.Discord.Token},
		{"MONITOR_GUILD_ID", &cfg.Discord.GuildID},
		{"LOG_CHANNEL_ID", &cfg.Discord.LogChannelID},
		{"LOG_DIR", &cfg.Recorder.OutputDir},
		{"AWS_ROLE_ARN", &cfg.S3.RoleARN},
		{"S3_ACCESS_KEY_ID", &cfg.S3.AccessKeyID},
		{"S3_SECRET_ACCESS_KEY", &cfg.S3.SecretAccessKey},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Health.Addr = "0.0.0.0:" + port
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Recorder.OutputDir == "" {
		cfg.Recorder.OutputDir = "./logs"
	}
	if cfg.Discord.MessageCacheMax == 0 {
		cfg.Discord.MessageCacheMax = 1000
	}
	if cfg.Pipeline.LookupTimeoutSeconds == 0 {
		cfg.Pipeline.LookupTimeoutSeconds = 5
	}
	if cfg.Pipeline.SendTimeoutSeconds == 0 {
		cfg.Pipeline.SendTimeoutSeconds = 10
	}
	if cfg.Health.Addr == "" {
		cfg.Health.Addr = "0.0.0.0:10000"
	}
	if cfg.Uploader.CheckIntervalSeconds == 0 {
		cfg.Uploader.CheckIntervalSeconds = 3600
	}
	if cfg.Uploader.MaxRetries == 0 {
		cfg.Uploader.MaxRetries = 3
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord.token is required (or set TOKEN env var)")
	}
	if c.Discord.GuildID == "" {
		return fmt.Errorf("discord.guild_id is required (or set MONITOR_GUILD_ID env var)")
	}
	if c.Discord.LogChannelID == "" {
		return fmt.Errorf("discord.log_channel_id is required (or set LOG_CHANNEL_ID env var)")
	}
	if c.Pipeline.LookupTimeoutSeconds < 0 || c.Pipeline.SendTimeoutSeconds < 0 {
		return fmt.Errorf("pipeline timeouts must be positive")
	}

	if !c.ArchiveEnabled() {
		return nil
	}
	if c.S3.Region == "" {
		return fmt.Errorf("s3.region is required when s3.bucket is set")
	}
	// Either OIDC role or static credentials required
	if c.S3.RoleARN == "" && c.S3.AccessKeyID == "" {
		return fmt.Errorf("either s3.role_arn (OIDC) or s3.access_key_id (legacy) is required")
	}
	// If using static credentials, both key and secret are required
	if c.S3.AccessKeyID != "" && c.S3.SecretAccessKey == "" {
		return fmt.Errorf("s3.secret_access_key is required when using access_key_id")
	}
	return nil
}
