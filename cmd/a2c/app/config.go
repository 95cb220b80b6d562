package app

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/slink-ws/asciidoc2confluence/pkg/constants"
	"github.com/slink-ws/asciidoc2confluence/pkg/convert"
	"github.com/slink-ws/asciidoc2confluence/pkg/document"
	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool   `json:"verbose"`
	Quiet   bool   `json:"quiet"`
	NoColor bool   `json:"no_color"`
	Format  string `json:"format"`

	// Config file
	ConfigFile string `json:"config"`

	// Logging configuration
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
	LogOutput string `json:"log_output"`

	// Sources
	Input string   `json:"input"`
	Dir   string   `json:"dir"`
	Clean []string `json:"clean"`
	Force bool     `json:"force"`

	// Wiki connection
	URL      string        `json:"url"`
	User     string        `json:"user"`
	Pass     string        `json:"pass"`
	Token    string        `json:"token"`
	Space    string        `json:"space"`
	Retries  int           `json:"retries"`
	Timeout  time.Duration `json:"timeout"`
	Dry      bool          `json:"dry"`
	Debug    bool          `json:"dbg"`
	Parallel int           `json:"parallel"`

	ProtectedLabels []string         `json:"protected_labels"`
	Markers         document.Markers `json:"markers"`
	Convert         ConvertConfig    `json:"convert"`
}

// ConvertConfig selects the conversion backends and transforms.
type ConvertConfig struct {
	Asciidoctor     string        `json:"asciidoctor"`
	Timeout         time.Duration `json:"timeout"`
	Pre             []string      `json:"pre"`
	Post            []string      `json:"post"`
	DefaultLanguage string        `json:"default_language"`
	Markdown        []string      `json:"markdown"`
}

// Pipeline returns the converter configuration.
func (c ConvertConfig) Pipeline() convert.Config {
	return convert.Config{
		Asciidoctor:     c.Asciidoctor,
		Timeout:         c.Timeout,
		Pre:             c.Pre,
		Post:            c.Post,
		DefaultLanguage: c.DefaultLanguage,
		Markdown:        c.Markdown,
	}
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (A2C_ prefix)
// 3. .env files
// 4. Config file (~/.a2c.yaml or ./.a2c.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return LoadConfigFile("")
}

// LoadConfigFile is LoadConfig with an explicit config file. An empty path
// falls back to A2C_CONFIG and then the default search paths.
func LoadConfigFile(path string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	configFile := path
	if configFile == "" {
		configFile = v.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(constants.ConfigFileName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "cannot read "+v.ConfigFileUsed(), err)
		}
	}

	config := &Config{
		Verbose:    v.GetBool("verbose"),
		Quiet:      v.GetBool("quiet"),
		NoColor:    v.GetBool("no-color"),
		Format:     v.GetString("format"),
		ConfigFile: v.ConfigFileUsed(),

		LogLevel:  v.GetString("log-level"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),

		Input: v.GetString("input"),
		Dir:   v.GetString("dir"),
		Clean: splitList(v.GetStringSlice("clean")),
		Force: v.GetBool("force"),

		URL:      v.GetString("url"),
		User:     v.GetString("user"),
		Pass:     v.GetString("pass"),
		Token:    v.GetString("token"),
		Space:    v.GetString("space"),
		Retries:  v.GetInt("retries"),
		Timeout:  v.GetDuration("timeout"),
		Dry:      v.GetBool("dry"),
		Debug:    v.GetBool("dbg"),
		Parallel: v.GetInt("parallel"),

		ProtectedLabels: splitList(v.GetStringSlice("protected_labels")),
	}

	// Nested keys are read one by one so file values merge with defaults.
	config.Markers = document.Markers{
		Space:    v.GetString("markers.space"),
		Title:    v.GetString("markers.title"),
		OldTitle: v.GetString("markers.old_title"),
		Parent:   v.GetString("markers.parent"),
		Tags:     v.GetString("markers.tags"),
		Hidden:   v.GetString("markers.hidden"),
	}
	config.Convert = ConvertConfig{
		Asciidoctor:     v.GetString("convert.asciidoctor"),
		Timeout:         v.GetDuration("convert.timeout"),
		Pre:             splitList(v.GetStringSlice("convert.pre")),
		Post:            splitList(v.GetStringSlice("convert.post")),
		DefaultLanguage: v.GetString("convert.default_language"),
		Markdown:        splitList(v.GetStringSlice("convert.markdown")),
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	markers := document.DefaultMarkers()
	pipeline := convert.DefaultConfig()

	v.SetDefault("retries", constants.MaxRetries)
	v.SetDefault("timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("parallel", constants.DefaultParallelism)

	v.SetDefault("markers.space", markers.Space)
	v.SetDefault("markers.title", markers.Title)
	v.SetDefault("markers.old_title", markers.OldTitle)
	v.SetDefault("markers.parent", markers.Parent)
	v.SetDefault("markers.tags", markers.Tags)
	v.SetDefault("markers.hidden", markers.Hidden)

	v.SetDefault("convert.asciidoctor", pipeline.Asciidoctor)
	v.SetDefault("convert.timeout", pipeline.Timeout)
	v.SetDefault("convert.pre", pipeline.Pre)
	v.SetDefault("convert.post", pipeline.Post)
	v.SetDefault("convert.default_language", pipeline.DefaultLanguage)
	v.SetDefault("convert.markdown", []string{})
}

// Validate checks the combination of settings before anything is published.
func (c *Config) Validate() error {
	needCredentials := c.URL != "" && c.Token == ""
	err := validation.ValidateStruct(c,
		validation.Field(&c.URL,
			is.URL,
			validation.When(c.User != "" || c.Pass != "" || c.Token != "",
				validation.Required.Error("url, user and pass must be set together"))),
		validation.Field(&c.User,
			validation.When(needCredentials || c.Pass != "",
				validation.Required.Error("url, user and pass must be set together"))),
		validation.Field(&c.Pass,
			validation.When(needCredentials || c.User != "",
				validation.Required.Error("url, user and pass must be set together"))),
		validation.Field(&c.Dir,
			validation.When(c.Input != "", validation.Empty.Error("input and dir are mutually exclusive"))),
		validation.Field(&c.Input,
			validation.When(c.Dir == "" && len(c.Clean) == 0,
				validation.Required.Error("one of input, dir or clean is required"))),
		validation.Field(&c.Clean,
			validation.When(c.URL == "" && !c.Dry, validation.Empty.Error("clean requires a wiki url"))),
		validation.Field(&c.Format, validation.In("", "table", "json", "yaml")),
		validation.Field(&c.Parallel, validation.Min(0)),
		validation.Field(&c.Retries, validation.Min(0)),
	)
	if err != nil {
		return errors.NewConfigError("cli", err.Error(), err)
	}
	return nil
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// .env.local overrides .env
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// splitList flattens comma separated entries and drops blanks.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// absolute resolves a user supplied path against the working directory.
func absolute(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
