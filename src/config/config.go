package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/mosaicnetworks/synapse/src/common"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default filenames.
const (
	// DefaultBadgerFile is the default name of the folder containing the Badger
	// database
	DefaultBadgerFile = "badger_db"

	// DefaultEnvFile is the name of the optional file of environment variables
	// read from the data directory.
	DefaultEnvFile = ".env"
)

// Default configuration values.
const (
	DefaultLogLevel        = "info"
	DefaultNetworkSize     = 5
	DefaultSpeedScale      = 1.0
	DefaultTracerScale     = 1.0
	DefaultWidth           = 1280
	DefaultHeight          = 720
	DefaultCycleInterval   = 20 * time.Millisecond
	DefaultFadeDuration    = 1000 * time.Millisecond
	DefaultFadeStep        = 16 * time.Millisecond
	DefaultStep            = 0.02
	DefaultSeed            = 0
	DefaultStore           = false
	DefaultCacheSize       = 500
	DefaultNoService       = false
	DefaultServiceAddr     = "127.0.0.1:8000"
	DefaultNoBroadcast     = false
	DefaultBroadcastAddr   = "127.0.0.1:8001"
	DefaultBroadcastRealm  = "synapse"
	DefaultEnvVarPrefix    = "SYNAPSE"
	DefaultConfigName      = "synapse"
)

// Config contains all the configuration properties of a synapse process.
type Config struct {
	// DataDir is the top-level directory containing the configuration file,
	// the optional .env file and the database.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// LogFile, when set, receives a copy of every log entry.
	LogFile string `mapstructure:"log-file"`

	// Attributes are the user-facing parameters of the effect, in the raw
	// string form they take in markup. They are only validated when turned
	// into Settings.
	Attributes `mapstructure:",squash"`

	// Width and Height give the initial surface size in device pixels.
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`

	// CycleInterval is the period of the cycle timer.
	CycleInterval time.Duration `mapstructure:"cycle-interval"`

	// FadeDuration is the time it takes a layer to go from fully transparent
	// to fully opaque, or the reverse.
	FadeDuration time.Duration `mapstructure:"fade-duration"`

	// FadeStep is the period of the fade stepper. It should be well below
	// FadeDuration.
	FadeStep time.Duration `mapstructure:"fade-step"`

	// Step is the progress a signal with a speed scale of 1 makes along a
	// segment at every cycle.
	Step float64 `mapstructure:"step"`

	// Seed feeds node placement. 0 picks a time-based seed.
	Seed int64 `mapstructure:"seed"`

	// Store activates persistent storage of the generation history.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing database files.
	DatabaseDir string `mapstructure:"db"`

	// CacheSize is the number of generations kept in memory.
	CacheSize int `mapstructure:"cache-size"`

	// NoService disables the HTTP API service.
	NoService bool `mapstructure:"no-service"`

	// ServiceAddr is the address:port of the HTTP service.
	ServiceAddr string `mapstructure:"service-listen"`

	// NoBroadcast disables the WAMP broadcast of frames.
	NoBroadcast bool `mapstructure:"no-broadcast"`

	// BroadcastAddr is the address:port of the WAMP websocket server.
	BroadcastAddr string `mapstructure:"broadcast-listen"`

	// Realm is the WAMP realm on which frames are published.
	Realm string `mapstructure:"realm"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:       DefaultDataDir(),
		LogLevel:      DefaultLogLevel,
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		CycleInterval: DefaultCycleInterval,
		FadeDuration:  DefaultFadeDuration,
		FadeStep:      DefaultFadeStep,
		Step:          DefaultStep,
		Seed:          DefaultSeed,
		Store:         DefaultStore,
		DatabaseDir:   DefaultDatabaseDir(),
		CacheSize:     DefaultCacheSize,
		NoService:     DefaultNoService,
		ServiceAddr:   DefaultServiceAddr,
		NoBroadcast:   DefaultNoBroadcast,
		BroadcastAddr: DefaultBroadcastAddr,
		Realm:         DefaultBroadcastRealm,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests. Timings are shortened so that a whole generation
// fits in a test.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.CycleInterval = time.Millisecond
	config.FadeDuration = 20 * time.Millisecond
	config.FadeStep = 2 * time.Millisecond
	config.Seed = 1
	config.NoService = true
	config.NoBroadcast = true
	config.logger = common.NewTestLogger(t, level)
	return config
}

// SetDataDir sets the top-level directory, and updates the database
// directory if it is currently set to the default value.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
}

// EnvFile returns the full path of the optional .env file.
func (c *Config) EnvFile() string {
	return filepath.Join(c.DataDir, DefaultEnvFile)
}

// Settings validates the attributes. Invalid attributes are reported as
// warnings and replaced by their defaults.
func (c *Config) Settings() Settings {
	return ParseAttributes(c.Attributes, c.Logger())
}

// Normalize replaces non-positive timings and sizes with their defaults.
func (c *Config) Normalize() {
	logger := c.Logger()

	if c.Width <= 0 || c.Height <= 0 {
		logger.WithFields(logrus.Fields{
			"width":  c.Width,
			"height": c.Height,
		}).Warn("Invalid surface size, using default")
		c.Width, c.Height = DefaultWidth, DefaultHeight
	}
	if c.CycleInterval <= 0 {
		logger.WithField("cycle-interval", c.CycleInterval).Warn("Invalid cycle interval, using default")
		c.CycleInterval = DefaultCycleInterval
	}
	if c.FadeDuration <= 0 {
		logger.WithField("fade-duration", c.FadeDuration).Warn("Invalid fade duration, using default")
		c.FadeDuration = DefaultFadeDuration
	}
	if c.FadeStep <= 0 {
		logger.WithField("fade-step", c.FadeStep).Warn("Invalid fade step, using default")
		c.FadeStep = DefaultFadeStep
	}
	if c.Step <= 0 {
		logger.WithField("step", c.Step).Warn("Invalid step, using default")
		c.Step = DefaultStep
	}
	if c.CacheSize <= 0 {
		logger.WithField("cache-size", c.CacheSize).Warn("Invalid cache size, using default")
		c.CacheSize = DefaultCacheSize
	}
}

// Logger returns a formatted logrus Entry, with prefix set to "synapse". When
// LogFile is set, every entry is also written to that file.
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
		if c.LogFile != "" {
			c.logger.Hooks.Add(newFileHook(c.LogFile))
		}
	}
	return c.logger.WithField("prefix", "synapse")
}

func newFileHook(path string) *lfshook.LfsHook {
	pathMap := lfshook.PathMap{}
	for _, l := range logrus.AllLevels {
		pathMap[l] = path
	}
	return lfshook.NewHook(pathMap, &logrus.TextFormatter{})
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultDataDir return the default directory name for top-level synapse
// config based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Synapse")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Synapse")
		} else {
			return filepath.Join(home, ".synapse")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}
