package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "job-tailor"
)

type Config struct {
	DataDir      string         `mapstructure:"data-dir"`
	CriteriaFile string         `mapstructure:"criteria-file"`
	AI           *AIConfig      `mapstructure:"ai"`
	Cache        *CacheConfig   `mapstructure:"cache"`
	Scoring      *ScoringConfig `mapstructure:"scoring"`
	Sources      *SourcesConfig `mapstructure:"sources"`
}

type AIConfig struct {
	Provider  string           `mapstructure:"provider"`
	Gemini    *GeminiConfig    `mapstructure:"gemini"`
	Anthropic *AnthropicConfig `mapstructure:"anthropic"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type AnthropicConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxTokens    int    `mapstructure:"max-tokens"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type CacheConfig struct {
	// Backend is "file" or "redis".
	Backend string       `mapstructure:"backend"`
	Dir     string       `mapstructure:"dir"`
	Redis   *RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	URL    string `mapstructure:"url"`
	Prefix string `mapstructure:"prefix"`
}

type ScoringConfig struct {
	GenerateThreshold int  `mapstructure:"generate-threshold"`
	AutoGenerate      bool `mapstructure:"auto-generate"`
}

type SourcesConfig struct {
	Resume      string `mapstructure:"resume"`
	CoverLetter string `mapstructure:"cover-letter"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-tailor scores saved job postings against your criteria and tailors resumes and cover letters for the best ones",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"ai.gemini.api-key-file":    "JOB_TAILOR_GEMINI_API_KEY_FILE",
		"ai.anthropic.api-key-file": "JOB_TAILOR_ANTHROPIC_API_KEY_FILE",
		"cache.redis.url":           "JOB_TAILOR_REDIS_URL",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("data-dir", "data")
	viper.SetDefault("criteria-file", "criteria.yaml")
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("cache.backend", "file")
	viper.SetDefault("scoring.generate-threshold", 80)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-tailor.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// The version command works without any config.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	err := viper.ReadInConfig()

	// Without an explicit --config the defaults and environment are enough.
	var notFound viper.ConfigFileNotFoundError
	if cfgFile == "" && errors.As(err, &notFound) {
		return
	}

	// We can't proceed if the config file parsed with error.
	if err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
