package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	rerrors "github.com/sylph-dev/sylph/internal/errors"
)

const (
	// ConfigName is the configuration file name without extension. Any
	// format viper reads is accepted (sylph.json, sylph.yaml, sylph.toml).
	ConfigName = "sylph"

	// EnvPrefix prefixes environment overrides (SYLPH_PORT, SYLPH_APIBASE).
	EnvPrefix = "SYLPH"

	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultBasePath is the default module directory.
	DefaultBasePath = "server"

	// DefaultPublic is the default static file directory.
	DefaultPublic = "server/public"
)

// Config is the server configuration.
type Config struct {
	// BasePath is the directory scanned for handler modules.
	BasePath string `mapstructure:"basePath" json:"basePath,omitempty"`

	// APIBase prefixes every route pattern ("api" → /api/...).
	APIBase string `mapstructure:"apiBase" json:"apiBase,omitempty"`

	// Port is the listen port.
	Port int `mapstructure:"port" json:"port,omitempty"`

	// Origins lists allowed CORS origins. Empty disables CORS.
	Origins []string `mapstructure:"origins" json:"origins,omitempty"`

	// Silent discards route logging.
	Silent bool `mapstructure:"silent" json:"silent,omitempty"`

	// Verbose enables debug logging.
	Verbose bool `mapstructure:"verbose" json:"verbose,omitempty"`

	// HistoryMode serves index.html for unmatched HTML GET requests.
	HistoryMode bool `mapstructure:"historyMode" json:"historyMode,omitempty"`

	// Watch enables live discovery of added and changed modules.
	Watch bool `mapstructure:"watch" json:"watch,omitempty"`

	// Public is the static file directory.
	Public string `mapstructure:"public" json:"public,omitempty"`

	// Extensions lists module extensions. Empty uses the router defaults.
	Extensions []string `mapstructure:"extensions" json:"extensions,omitempty"`

	// Exclude lists directory names skipped during discovery.
	Exclude []string `mapstructure:"exclude" json:"exclude,omitempty"`

	// Static configures an S3 bucket as the static file source.
	Static StaticConfig `mapstructure:"static" json:"static,omitempty"`

	configPath string
}

// StaticConfig selects an S3 bucket for static files. An empty Bucket
// serves Public from disk.
type StaticConfig struct {
	Bucket   string `mapstructure:"bucket" json:"bucket,omitempty"`
	Region   string `mapstructure:"region" json:"region,omitempty"`
	Endpoint string `mapstructure:"endpoint" json:"endpoint,omitempty"`
	Prefix   string `mapstructure:"prefix" json:"prefix,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		BasePath: DefaultBasePath,
		Port:     DefaultPort,
		Public:   DefaultPublic,
	}
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("basePath", DefaultBasePath)
	v.SetDefault("apiBase", "")
	v.SetDefault("port", DefaultPort)
	v.SetDefault("origins", []string{})
	v.SetDefault("silent", false)
	v.SetDefault("verbose", false)
	v.SetDefault("historyMode", false)
	v.SetDefault("watch", false)
	v.SetDefault("public", "")
	v.SetDefault("extensions", []string{})
	v.SetDefault("exclude", []string{})
	v.SetDefault("static.bucket", "")
	v.SetDefault("static.region", "")
	v.SetDefault("static.endpoint", "")
	v.SetDefault("static.prefix", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("port", EnvPrefix+"_PORT", "PORT")

	return v
}

// Load reads sylph.{json,yaml,toml} from dir. A missing file is not an
// error: defaults and environment overrides still apply.
func Load(dir string) (*Config, error) {
	v := newViper()
	v.SetConfigName(ConfigName)
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, rerrors.New(rerrors.CodeConfigInvalid).
				WithDetail("Failed to parse the configuration in " + dir + ": " + err.Error()).
				Wrap(err)
		}
	}
	return decode(v)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, rerrors.New(rerrors.CodeConfigNotFound).
				WithFile(path).
				WithSuggestion("Check the --config path or remove the flag to use defaults")
		}
		return nil, rerrors.New(rerrors.CodeConfigInvalid).Wrap(err)
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, rerrors.New(rerrors.CodeConfigInvalid).
			WithFile(path).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			Wrap(err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := New()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, rerrors.New(rerrors.CodeConfigInvalid).Wrap(err)
	}
	cfg.configPath = v.ConfigFileUsed()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.Public == "" {
		c.Public = filepath.Join(c.BasePath, "public")
	}
	c.APIBase = strings.Trim(c.APIBase, "/")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return rerrors.New(rerrors.CodeInvalidPort).
			WithDetail("Port must be between 0 and 65535, got " + strconv.Itoa(c.Port))
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return rerrors.New(rerrors.CodeConfigInvalid).
				WithDetail("Extension " + strconv.Quote(ext) + " must start with a dot")
		}
	}
	return nil
}

// Path returns the file the config was loaded from, or "".
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory relative paths resolve against: the config
// file's directory, or the working directory.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return "."
	}
	return filepath.Dir(c.configPath)
}

// BaseDir returns the module directory.
func (c *Config) BaseDir() string {
	return c.resolve(c.BasePath)
}

// PublicDir returns the static file directory.
func (c *Config) PublicDir() string {
	return c.resolve(c.Public)
}

// DiscoveryExclude returns the directory names and base-relative paths
// skipped during discovery: the configured Exclude list (or the provider
// defaults) plus the public directory when it lies inside the base path.
func (c *Config) DiscoveryExclude(defaults []string) []string {
	exclude := c.Exclude
	if len(exclude) == 0 {
		exclude = defaults
	}
	out := append([]string(nil), exclude...)

	rel, err := filepath.Rel(c.BaseDir(), c.PublicDir())
	if err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

// Address returns the listen address for port, or for Port when port is 0.
func (c *Config) Address(port int) string {
	if port == 0 {
		port = c.Port
	}
	if port == 0 {
		port = DefaultPort
	}
	return ":" + strconv.Itoa(port)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir(), p)
}
