package sigkv

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

var sep = string(os.PathSeparator)

// Config says where to listen and where to keep
// the records. Zero values are replaced by defaults
// in FinishConfig.
type Config struct {

	// ListenAddr host:port for the websocket server.
	ListenAddr string `toml:"listen_addr"`

	// WSPath is the http path that upgrades to a websocket.
	WSPath string `toml:"ws_path"`

	// DBPath of the bbolt file. See DefaultDBPath.
	DBPath string `toml:"db_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// LogFormat is "console" (human) or "json".
	LogFormat string `toml:"log_format"`

	// PrefixScheme is "digest" (default) or "base58".
	// Changing it on an existing database orphans the
	// records written under the other scheme, since
	// their identifiers no longer derive the same.
	PrefixScheme string `toml:"prefix_scheme"`

	// MaxMessageBytes caps the size of an inbound
	// message. 0 means no limit.
	MaxMessageBytes int64 `toml:"max_message_bytes"`

	// MetricsPath serves prometheus metrics on the
	// same listener. Set to "-" to turn them off.
	MetricsPath string `toml:"metrics_path"`
}

const (
	DefaultListenAddr  = "127.0.0.1:8080"
	DefaultWSPath      = "/"
	DefaultMetricsPath = "/metrics"
	DefaultDBName      = "experiment.db"
)

func NewConfig() *Config {
	return &Config{}
}

// LoadConfig reads a TOML file into a new Config. It does
// not apply defaults; call FinishConfig after any flag
// overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("config parse failed (%s): unknown keys %v", path, undec)
	}
	return cfg, nil
}

// SetFlags lets command line flags override the file.
func (c *Config) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ListenAddr, "addr", c.ListenAddr, "host:port to listen on (default "+DefaultListenAddr+")")
	fs.StringVar(&c.WSPath, "path", c.WSPath, "http path that accepts websocket upgrades (default "+DefaultWSPath+")")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "path to the bbolt database file")
	fs.StringVar(&c.LogLevel, "log", c.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&c.LogFormat, "logfmt", c.LogFormat, "log format: console or json")
	fs.StringVar(&c.PrefixScheme, "prefix", c.PrefixScheme, "signer prefix scheme: digest or base58")
	fs.Int64Var(&c.MaxMessageBytes, "max", c.MaxMessageBytes, "max inbound message size in bytes; 0 means unlimited")
	fs.StringVar(&c.MetricsPath, "metrics", c.MetricsPath, "http path for prometheus metrics; - to disable")
}

// FinishConfig fills in defaults and validates.
func (c *Config) FinishConfig() (err error) {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.WSPath == "" {
		c.WSPath = DefaultWSPath
	}
	if !strings.HasPrefix(c.WSPath, "/") {
		c.WSPath = "/" + c.WSPath
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "console"
	}
	if c.MetricsPath == "" {
		c.MetricsPath = DefaultMetricsPath
	}
	if c.MetricsPath != "-" && !strings.HasPrefix(c.MetricsPath, "/") {
		c.MetricsPath = "/" + c.MetricsPath
	}
	if c.MetricsPath == c.WSPath {
		return fmt.Errorf("metrics_path and ws_path must differ; both are '%v'", c.WSPath)
	}
	if c.MaxMessageBytes < 0 {
		return fmt.Errorf("max_message_bytes must be >= 0; got %v", c.MaxMessageBytes)
	}
	scheme, err := ParsePrefixScheme(c.PrefixScheme)
	if err != nil {
		return err
	}
	c.PrefixScheme = string(scheme)

	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json; got '%v'", c.LogFormat)
	}
	if _, err = parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// DefaultDBPath is GetConfigDir()/experiment.db. FinishConfig
// does not apply it; the server binary does when DBPath is empty.
func DefaultDBPath() string {
	return GetConfigDir() + sep + DefaultDBName
}

// MetricsEnabled is false when MetricsPath is "-".
func (c *Config) MetricsEnabled() bool {
	return c.MetricsPath != "" && c.MetricsPath != "-"
}

// GetConfigDir tells us where to keep the database and
// client keys by default. It also creates the directory if it
// does not exist, and panics if it cannot.
//
// Use $XDG_CONFIG_HOME/sigkv if XDG_CONFIG_HOME is
// set, else $HOME/.config/sigkv. If we cannot find
// either of those, we use the current working directory.
func GetConfigDir() (path string) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	home := os.Getenv("HOME")
	switch {
	case dir != "":
		path = dir + sep + "sigkv"
	case home != "":
		path = home + sep + ".config" + sep + "sigkv"
	default:
		path = "."
	}
	err := os.MkdirAll(path, 0700)
	panicOn(err)
	return path
}
