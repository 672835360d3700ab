package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from config files,
// environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Data layout
	DataDir string

	// Registry credentials
	GitHubToken string

	// Search
	GeminiAPIKey string
	SearchModel  string

	// Neo4j connection
	Neo4jURI      string
	Neo4jUsername string
	Neo4jPassword string
	Neo4jDatabase string

	// Logging configuration
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (handled by cobra)
//  2. Environment variables
//  3. .env files
//  4. Config file (~/.servermap.yaml)
//  5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	bindEnvKeys()

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".servermap")
		}
	}

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),

		ConfigFile: viper.ConfigFileUsed(),

		DataDir: viper.GetString("data_dir"),

		GitHubToken: firstNonEmpty(viper.GetString("GITHUB_TOKEN"), viper.GetString("github_token")),

		GeminiAPIKey: firstNonEmpty(viper.GetString("GEMINI_API_KEY"), viper.GetString("gemini_api_key")),
		SearchModel:  viper.GetString("search_model"),

		Neo4jURI:      firstNonEmpty(viper.GetString("NEO4J_URI"), viper.GetString("neo4j_uri")),
		Neo4jUsername: firstNonEmpty(viper.GetString("NEO4J_USERNAME"), viper.GetString("neo4j_username")),
		Neo4jPassword: firstNonEmpty(viper.GetString("NEO4J_PASSWORD"), viper.GetString("neo4j_password")),
		Neo4jDatabase: viper.GetString("neo4j_database"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
	}

	// Defaults
	if config.DataDir == "" {
		config.DataDir = "data"
	}
	if config.Neo4jURI == "" {
		config.Neo4jURI = "bolt://localhost:7687"
	}
	if config.Neo4jUsername == "" {
		config.Neo4jUsername = "neo4j"
	}

	return config, nil
}

// UpdateFromFlags updates config values from parsed command flags. Called
// after cobra parses flags so flag values take precedence over config file
// and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	envFiles := []string{
		".env",
		".env.local",
	}

	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// bindEnvKeys explicitly binds credential environment variables to Viper.
func bindEnvKeys() {
	keys := []string{
		"GITHUB_TOKEN",
		"GEMINI_API_KEY",
		"NEO4J_URI",
		"NEO4J_USERNAME",
		"NEO4J_PASSWORD",
	}

	for _, key := range keys {
		if err := viper.BindEnv(key); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind environment variable %s: %v\n", key, err)
		}
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
