package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/spigell/strengths-agent/internal/agent"
	"github.com/spigell/strengths-agent/internal/profiles"
)

type Config struct {
	AWS      *AWSConfig      `mapstructure:"aws"`
	DynamoDB *DynamoDBConfig `mapstructure:"dynamodb"`
	AI       *AIConfig       `mapstructure:"ai"`
	Agent    *AgentConfig    `mapstructure:"agent"`
}

type AWSConfig struct {
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
}

type DynamoDBConfig struct {
	Table     string `mapstructure:"table"`
	NameIndex string `mapstructure:"name-index"`
	Endpoint  string `mapstructure:"endpoint"`
}

type AIConfig struct {
	Gemini *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key" json:"-"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type AgentConfig struct {
	MaxSteps int `mapstructure:"max-steps"`
}

var envBindings = map[string]string{
	"aws.region":             "AWS_REGION",
	"aws.profile":            "AWS_PROFILE",
	"dynamodb.table":         "DYNAMODB_TABLE_NAME",
	"dynamodb.name-index":    "DYNAMODB_NAME_INDEX",
	"dynamodb.endpoint":      "DYNAMODB_ENDPOINT",
	"ai.gemini.api-key":      "GEMINI_API_KEY",
	"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	"ai.gemini.model":        "GEMINI_MODEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("aws.region", profiles.DefaultRegion)
	v.SetDefault("aws.profile", "")
	v.SetDefault("dynamodb.table", profiles.DefaultTable)
	v.SetDefault("dynamodb.name-index", profiles.DefaultNameIndex)
	v.SetDefault("dynamodb.endpoint", "")
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("agent.max-steps", agent.DefaultMaxSteps)
}

func bindEnv(v *viper.Viper) error {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("binding %s environment variable: %w", env, err)
		}
	}
	return nil
}

// loadDotEnv reads path into the process environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// readConfig reads the config file. Without an explicit file the default one is optional.
func readConfig(v *viper.Viper, file string) error {
	if file = strings.TrimSpace(file); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %q: %w", file, err)
		}
		return nil
	}

	v.AddConfigPath(".")
	v.SetConfigName(app)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func getConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if config == nil {
		config = &Config{}
	}
	if config.AWS == nil {
		config.AWS = &AWSConfig{}
	}
	if config.DynamoDB == nil {
		config.DynamoDB = &DynamoDBConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Agent == nil {
		config.Agent = &AgentConfig{}
	}
	return config, nil
}

func (c *Config) storeConfig() profiles.Config {
	return profiles.Config{
		Region:    c.AWS.Region,
		Profile:   c.AWS.Profile,
		Table:     c.DynamoDB.Table,
		NameIndex: c.DynamoDB.NameIndex,
		Endpoint:  c.DynamoDB.Endpoint,
	}
}
