// Package config handles the XDG configuration directory and the settings
// file inside it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"tasklist/internal/backend/rest"
	"tasklist/internal/store"
)

const (
	// AppName is the application directory name.
	AppName = "tasklist"

	// EnvPrefix prefixes environment overrides, e.g. TASKLIST_API_URL.
	EnvPrefix = "TASKLIST"

	// SettingsFile is the settings filename inside the config directory.
	SettingsFile = "config.yaml"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"
)

// Backends.
const (
	BackendREST        = "rest"
	BackendGoogleTasks = "googletasks"
)

// ErrSettingsExist is returned by WriteDefault when the file is already there.
var ErrSettingsExist = errors.New("settings file already exists")

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Settings are read from the settings file and the environment.
	Settings Settings
}

// Settings is the contents of config.yaml.
type Settings struct {
	Backend string        `mapstructure:"backend" validate:"required,oneof=rest googletasks"`
	API     APISettings   `mapstructure:"api"`
	Store   StoreSettings `mapstructure:"store"`
	UI      UISettings    `mapstructure:"ui"`
	Log     LogSettings   `mapstructure:"log"`
}

// APISettings configures the remote task API.
type APISettings struct {
	URL     string        `mapstructure:"url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// StoreSettings configures the task store.
type StoreSettings struct {
	// ClearOnLoadFailure empties the list when a load fails instead of
	// keeping what was shown before.
	ClearOnLoadFailure bool `mapstructure:"clear_on_load_failure"`
}

// UISettings configures presentation.
type UISettings struct {
	NotificationTimeout time.Duration `mapstructure:"notification_timeout" validate:"gte=0"`
	Format              string        `mapstructure:"format" validate:"oneof=text json yaml"`
}

// LogSettings configures logging.
type LogSettings struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Backend: BackendREST,
		API: APISettings{
			URL:     rest.DefaultBaseURL,
			Timeout: rest.DefaultTimeout,
		},
		UI: UISettings{
			NotificationTimeout: store.DefaultNotificationTimeout,
			Format:              "text",
		},
		Log: LogSettings{Level: "warn"},
	}
}

type entry struct {
	key   string
	value any
}

// entries lists every settings key with its value, in file order.
// Durations are rendered as strings so they round-trip through YAML.
func (s Settings) entries() []entry {
	return []entry{
		{"backend", s.Backend},
		{"api.url", s.API.URL},
		{"api.timeout", s.API.Timeout.String()},
		{"store.clear_on_load_failure", s.Store.ClearOnLoadFailure},
		{"ui.notification_timeout", s.UI.NotificationTimeout.String()},
		{"ui.format", s.UI.Format},
		{"log.level", s.Log.Level},
	}
}

// YAML renders the settings in config.yaml form.
func (s Settings) YAML() ([]byte, error) {
	root := map[string]any{}
	for _, e := range s.entries() {
		parts := strings.Split(e.key, ".")
		m := root
		for _, p := range parts[:len(parts)-1] {
			next, ok := m[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				m[p] = next
			}
			m = next
		}
		m[parts[len(parts)-1]] = e.value
	}
	return yaml.Marshal(root)
}

// New creates a new Config with the default or specified config directory
// and default settings. If configDir is empty, uses XDG_CONFIG_HOME/tasklist
// or $HOME/.config/tasklist.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{Dir: dir, Settings: DefaultSettings()}, nil
}

// Load creates a Config like New and then reads the settings file and
// TASKLIST_* environment variables over the defaults.
func Load(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	c := &Config{Dir: dir}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) load() error {
	v := viper.New()
	for _, e := range DefaultSettings().entries() {
		v.SetDefault(e.key, e.value)
	}

	v.SetConfigName(strings.TrimSuffix(SettingsFile, filepath.Ext(SettingsFile)))
	v.SetConfigType("yaml")
	v.AddConfigPath(c.Dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading %s: %w", c.SettingsPath(), err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return fmt.Errorf("decoding settings: %w", err)
	}
	c.Settings = s
	return c.Validate()
}

// Validate checks the settings.
func (c *Config) Validate() error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})
	if err := v.Struct(&c.Settings); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				key := strings.TrimPrefix(fe.Namespace(), "Settings.")
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", key, fe.Tag()))
			}
			return fmt.Errorf("invalid settings: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SettingsPath returns the path to the settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// WriteDefault writes the default settings file. An existing file is kept
// unless force is set.
func (c *Config) WriteDefault(force bool) error {
	if err := c.EnsureDir(); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if _, err := os.Stat(c.SettingsPath()); err == nil && !force {
		return ErrSettingsExist
	}
	data, err := DefaultSettings().YAML()
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(c.SettingsPath(), data, 0600); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
