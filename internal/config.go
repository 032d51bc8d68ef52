package internal

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// DefaultScanDir is the directory scanned for bare repositories when
	// nothing else is configured.
	DefaultScanDir = "/var/www/git"

	// DefaultMaxDepth bounds how many directory levels below the scan
	// directory are inspected, symlinked directories included.
	DefaultMaxDepth = 3

	// DefaultNameMax is the longest repository name, relative to the scan
	// directory, that is served.
	DefaultNameMax = 64

	// DefaultLogPageSize is the number of commits shown per log page.
	DefaultLogPageSize = 1000

	// DefaultSummaryLogSize is the number of commits shown on a summary page.
	DefaultSummaryLogSize = 3

	// DefaultStylesheet is the path every page links its stylesheet from.
	DefaultStylesheet = "/gitoff.css"

	// DefaultHighlightStyle is the chroma style used when highlighting is on.
	DefaultHighlightStyle = "github"

	// DefaultListen is the address the serve command binds to.
	DefaultListen = "127.0.0.1:8080"

	envPrefix = "GITOFF_"
)

// Config holds every setting gitoff reads at startup.
type Config struct {
	ScanDir        string `mapstructure:"scan_dir"`
	MaxDepth       int    `mapstructure:"max_depth"`
	NameMax        int    `mapstructure:"name_max"`
	LogPageSize    int    `mapstructure:"log_page_size"`
	SummaryLogSize int    `mapstructure:"summary_log_size"`
	Stylesheet     string `mapstructure:"stylesheet"`
	Highlight      bool   `mapstructure:"highlight"`
	HighlightStyle string `mapstructure:"highlight_style"`
	Listen         string `mapstructure:"listen"`
	TraceFile      string `mapstructure:"trace_file"`
}

// flagKeys maps configuration keys to the command line flags that set them.
var flagKeys = map[string]string{
	"scan_dir":         "scan-dir",
	"max_depth":        "max-depth",
	"name_max":         "name-max",
	"log_page_size":    "log-page-size",
	"summary_log_size": "summary-log-size",
	"stylesheet":       "stylesheet",
	"highlight":        "highlight",
	"highlight_style":  "highlight-style",
	"listen":           "listen",
	"trace_file":       "trace-file",
}

// InitFlags registers the flags shared by every command.
func InitFlags(flags *pflag.FlagSet) {
	flags.StringP("config", "c", "", "path to a configuration file (YAML or JSON)")
	flags.String("scan-dir", DefaultScanDir, "directory scanned for bare repositories")
	flags.Int("max-depth", DefaultMaxDepth, "directory levels below the scan directory to inspect")
	flags.Int("name-max", DefaultNameMax, "longest repository name that is served")
	flags.Int("log-page-size", DefaultLogPageSize, "commits shown per log page")
	flags.Int("summary-log-size", DefaultSummaryLogSize, "commits shown on the summary page")
	flags.String("stylesheet", DefaultStylesheet, "path of the stylesheet linked from every page")
	flags.Bool("highlight", false, "syntax highlight blob contents")
	flags.String("highlight-style", DefaultHighlightStyle, "chroma style used for highlighting")
	flags.String("trace-file", "", "write OpenTelemetry spans to this file")
}

// LoadConfig builds a Config from, in increasing order of precedence,
// built-in defaults, a configuration file, GITOFF_* variables in env and
// the given flags. The configuration file is taken from the --config flag
// or GITOFF_CONFIG; without either, gitoff.{yaml,json} in /etc is used
// when present. Only env is consulted, never the process environment.
func LoadConfig(flags *pflag.FlagSet, env []string) (Config, error) {
	v := viper.New()

	v.SetDefault("scan_dir", DefaultScanDir)
	v.SetDefault("max_depth", DefaultMaxDepth)
	v.SetDefault("name_max", DefaultNameMax)
	v.SetDefault("log_page_size", DefaultLogPageSize)
	v.SetDefault("summary_log_size", DefaultSummaryLogSize)
	v.SetDefault("stylesheet", DefaultStylesheet)
	v.SetDefault("highlight", false)
	v.SetDefault("highlight_style", DefaultHighlightStyle)
	v.SetDefault("listen", DefaultListen)
	v.SetDefault("trace_file", "")

	if flags != nil {
		for key, name := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("failed to bind flag %q: %w", name, err)
			}
		}
	}

	vars := envVars(env)

	// Set outranks flags in viper, so a variable only applies when its
	// flag was not given.
	for key, name := range flagKeys {
		value, ok := vars[envName(key)]
		if !ok || flagChanged(flags, name) {
			continue
		}
		v.Set(key, value)
	}

	path := vars[envName("config")]
	if flagChanged(flags, "config") {
		path = flags.Lookup("config").Value.String()
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %q: %w\nCheck that the file exists and is valid YAML or JSON", path, err)
		}
	} else {
		v.SetConfigName("gitoff")
		v.AddConfigPath("/etc")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// envVars indexes KEY=value pairs. Later pairs win.
func envVars(env []string) map[string]string {
	vars := make(map[string]string, len(env))
	for _, kv := range env {
		if key, value, ok := strings.Cut(kv, "="); ok {
			vars[key] = value
		}
	}
	return vars
}

func envName(key string) string {
	return envPrefix + strings.ToUpper(key)
}

func flagChanged(flags *pflag.FlagSet, name string) bool {
	if flags == nil {
		return false
	}
	f := flags.Lookup(name)
	return f != nil && f.Changed
}

func (c *Config) validate() error {
	if c.ScanDir == "" {
		return fmt.Errorf("scan_dir must not be empty\nSet --scan-dir or GITOFF_SCAN_DIR to the directory holding your repositories")
	}

	dir, err := filepath.Abs(c.ScanDir)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path for scan_dir %q: %w", c.ScanDir, err)
	}
	c.ScanDir = dir

	for name, value := range map[string]int{
		"max_depth":        c.MaxDepth,
		"name_max":         c.NameMax,
		"log_page_size":    c.LogPageSize,
		"summary_log_size": c.SummaryLogSize,
	} {
		if value < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", name, value)
		}
	}

	return nil
}
