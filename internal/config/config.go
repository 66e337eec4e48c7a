package config

import (
	"io/fs"
	"path/filepath"
	"strings"

	"codeberg.org/mutker/thermlog/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultConfigFile     = "/etc/thermlog/thermlog.ini"
	DefaultEnvPrefix      = "THERMLOG"
	DefaultDataDir        = "/var/lib/thermlog"
	DefaultPollInterval   = 5
	DefaultExportInterval = 60
	DefaultLogLevel       = LogLevelInfo
	DefaultBootConfig     = "/boot/config.txt"
	DefaultModules        = "/proc/modules"
	DefaultDevices        = "/sys/bus/w1/devices"
)

// Config carries every path and interval the collector needs. Nothing in the
// collector reads a path that did not come from here.
type Config struct {
	ConfigFile string          `mapstructure:"-"`
	Collector  CollectorConfig `mapstructure:"collector"`
	OneWire    OneWireConfig   `mapstructure:"onewire"`
}

type CollectorConfig struct {
	DataDir          string `mapstructure:"data_dir"`
	CSVPrefix        string `mapstructure:"csv_prefix"`
	LogDir           string `mapstructure:"log_dir"`
	SQLitePath       string `mapstructure:"sqlite_path"`
	TextfilePath     string `mapstructure:"textfile_path"`
	PIDDir           string `mapstructure:"pid_dir"`
	PollInterval     int    `mapstructure:"poll_interval"`
	ExportInterval   int    `mapstructure:"export_interval"`
	ResetAfterExport bool   `mapstructure:"reset_after_export"`
	LogLevel         string `mapstructure:"log_level"`
}

type OneWireConfig struct {
	BootConfig string `mapstructure:"boot_config"`
	Modules    string `mapstructure:"modules"`
	Devices    string `mapstructure:"devices"`
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"data-dir":           "collector.data_dir",
	"csv-prefix":         "collector.csv_prefix",
	"log-dir":            "collector.log_dir",
	"sqlite-path":        "collector.sqlite_path",
	"textfile-path":      "collector.textfile_path",
	"pid-dir":            "collector.pid_dir",
	"interval":           "collector.poll_interval",
	"export-interval":    "collector.export_interval",
	"reset-after-export": "collector.reset_after_export",
	"log-level":          "collector.log_level",
	"w1-devices":         "onewire.devices",
}

// BindFlags registers the flags Load understands.
func BindFlags(flags *pflag.FlagSet) {
	flags.String("config", DefaultConfigFile, "Path to the configuration file")
	flags.String("data-dir", "", "Directory for exports (default "+DefaultDataDir+")")
	flags.String("csv-prefix", "", "Path prefix of the CSV export file")
	flags.String("log-dir", "", "Directory of the log file")
	flags.String("sqlite-path", "", "Path of the SQLite history database")
	flags.String("textfile-path", "", "Path of the Prometheus textfile")
	flags.String("pid-dir", "", "Directory of the PID file")
	flags.Int("interval", DefaultPollInterval, "Seconds between probe reads")
	flags.Int("export-interval", DefaultExportInterval, "Seconds between exports")
	flags.Bool("reset-after-export", false, "Reset all readings after each export")
	flags.String("log-level", string(DefaultLogLevel), "Console log level (debug, info, warning, error)")
	flags.String("w1-devices", DefaultDevices, "1-Wire devices directory")
}

// Load reads the configuration file and overlays environment and flags.
// A missing file is not an error; defaults apply.
func Load(flags *pflag.FlagSet, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := options{
		configPath: DefaultConfigFile,
		envPrefix:  DefaultEnvPrefix,
	}
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			o.configPath = f.Value.String()
		}
	}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, errFactory.Wrap(ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(o.configPath)
	v.SetConfigType("ini")
	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
		return nil, errFactory.Wrap(ErrReadConfig, err)
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errFactory.Wrap(ErrBindFlags, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}
	cfg.ConfigFile = o.configPath
	cfg.fillDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("collector.data_dir", DefaultDataDir)
	v.SetDefault("collector.poll_interval", DefaultPollInterval)
	v.SetDefault("collector.export_interval", DefaultExportInterval)
	v.SetDefault("collector.reset_after_export", false)
	v.SetDefault("collector.log_level", string(DefaultLogLevel))
	v.SetDefault("onewire.boot_config", DefaultBootConfig)
	v.SetDefault("onewire.modules", DefaultModules)
	v.SetDefault("onewire.devices", DefaultDevices)
}

// fillDerived places every unset path under the data directory.
func (c *Config) fillDerived() {
	dir := c.Collector.DataDir
	if c.Collector.CSVPrefix == "" {
		c.Collector.CSVPrefix = dir + string(filepath.Separator)
	}
	if c.Collector.LogDir == "" {
		c.Collector.LogDir = dir
	}
	if c.Collector.SQLitePath == "" {
		c.Collector.SQLitePath = filepath.Join(dir, "history.db")
	}
	if c.Collector.TextfilePath == "" {
		c.Collector.TextfilePath = filepath.Join(dir, "thermlog.prom")
	}
	if c.Collector.PIDDir == "" {
		c.Collector.PIDDir = dir
	}
}

// Validate checks intervals, paths and the log level.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Collector.PollInterval <= 0 {
		return errFactory.WithData(ErrInvalidInterval, struct {
			Field string
			Value int
		}{
			Field: "poll_interval",
			Value: c.Collector.PollInterval,
		})
	}
	if c.Collector.ExportInterval <= 0 {
		return errFactory.WithData(ErrInvalidInterval, struct {
			Field string
			Value int
		}{
			Field: "export_interval",
			Value: c.Collector.ExportInterval,
		})
	}
	if !LogLevel(c.Collector.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.Collector.LogLevel)
	}
	if c.Collector.DataDir == "" {
		return errFactory.WithMessage(ErrInvalidConfig, "data_dir must not be empty")
	}
	if c.OneWire.Devices == "" {
		return errFactory.WithMessage(ErrInvalidConfig, "onewire devices directory must not be empty")
	}

	return nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}

	return errors.Is(err, fs.ErrNotExist)
}
