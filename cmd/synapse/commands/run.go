package commands

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mosaicnetworks/synapse/src/broadcast"
	"github.com/mosaicnetworks/synapse/src/config"
	"github.com/mosaicnetworks/synapse/src/engine"
	"github.com/mosaicnetworks/synapse/src/history"
	"github.com/mosaicnetworks/synapse/src/service"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//NewRunCmd returns the command that starts the effect
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run the effect",
		PreRunE: loadConfig,
		RunE:    runSynapse,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runSynapse(cmd *cobra.Command, args []string) error {
	logger := _config.Logger()

	store, err := newStore(_config)
	if err != nil {
		logger.WithError(err).Error("Cannot open history store")
		return err
	}
	defer store.Close()

	var publisher engine.Publisher
	if !_config.NoBroadcast {
		server, err := broadcast.NewServer(_config.BroadcastAddr,
			_config.Realm,
			logger.WithField("prefix", "broadcast"))
		if err != nil {
			logger.WithError(err).Error("Cannot create broadcast server")
			return err
		}
		go server.Run()
		defer server.Shutdown()
		publisher = server
	}

	eng := engine.NewEngine(_config, store, publisher)

	if !_config.NoService {
		svc := service.NewService(_config.ServiceAddr, eng, logger.WithField("prefix", "service"))
		go svc.Serve()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			svc.Shutdown(ctx)
		}()
	}

	eng.RunAsync()

	//Prepare sigCh to relay SIGINT and SIGTERM system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh

	logger.Info("Shutting down")

	eng.Shutdown()

	return nil
}

func newStore(conf *config.Config) (history.Store, error) {
	if !conf.Store {
		return history.NewInmemStore(conf.CacheSize), nil
	}
	return history.LoadOrCreateBadgerStore(conf.CacheSize,
		conf.DatabaseDir,
		conf.Logger().WithField("prefix", "history"))
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {

	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.LogFile, "Also write logs to this file")

	// Effect attributes
	cmd.Flags().String("color", _config.Color, "Color of nodes, links and signal (any CSS color)")
	cmd.Flags().String("nodes", _config.Nodes, "Number of nodes in the network (at least 2)")
	cmd.Flags().String("speed-scale", _config.SpeedScale, "Signal speed multiplier")
	cmd.Flags().String("tracer-scale", _config.TracerScale, "Tracer size multiplier")

	// Surface and timings
	cmd.Flags().Float64("width", _config.Width, "Surface width in pixels")
	cmd.Flags().Float64("height", _config.Height, "Surface height in pixels")
	cmd.Flags().Duration("cycle-interval", _config.CycleInterval, "Time between cycles")
	cmd.Flags().Duration("fade-duration", _config.FadeDuration, "Duration of a full fade")
	cmd.Flags().Duration("fade-step", _config.FadeStep, "Time between fade steps")
	cmd.Flags().Float64("step", _config.Step, "Signal progress per cycle at speed scale 1")
	cmd.Flags().Int64("seed", _config.Seed, "Random seed for node placement (0 = time based)")

	// Store
	cmd.Flags().Bool("store", _config.Store, "Use badgerDB instead of in-mem DB")
	cmd.Flags().String("db", _config.DatabaseDir, "Dabatabase directory")
	cmd.Flags().Int("cache-size", _config.CacheSize, "Number of generations kept in memory")

	// Service
	cmd.Flags().Bool("no-service", _config.NoService, "Disable HTTP service")
	cmd.Flags().StringP("service-listen", "s", _config.ServiceAddr, "Listen IP:Port for HTTP service")

	// Broadcast
	cmd.Flags().Bool("no-broadcast", _config.NoBroadcast, "Disable WAMP broadcast")
	cmd.Flags().StringP("broadcast-listen", "b", _config.BroadcastAddr, "Listen IP:Port for WAMP websocket server")
	cmd.Flags().String("realm", _config.Realm, "WAMP realm")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	notes, err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// the logger is only created once the log level and log file are known
	for _, n := range notes {
		_config.Logger().Debug(n)
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.SetDataDir(_config.DataDir)

	logFields := logrus.Fields{
		"DataDir":       _config.DataDir,
		"LogLevel":      _config.LogLevel,
		"LogFile":       _config.LogFile,
		"Color":         _config.Color,
		"Nodes":         _config.Nodes,
		"SpeedScale":    _config.SpeedScale,
		"TracerScale":   _config.TracerScale,
		"Width":         _config.Width,
		"Height":        _config.Height,
		"CycleInterval": _config.CycleInterval,
		"FadeDuration":  _config.FadeDuration,
		"FadeStep":      _config.FadeStep,
		"Step":          _config.Step,
		"Seed":          _config.Seed,
		"Store":         _config.Store,
		"CacheSize":     _config.CacheSize,
		"NoService":     _config.NoService,
		"ServiceAddr":   _config.ServiceAddr,
		"NoBroadcast":   _config.NoBroadcast,
		"BroadcastAddr": _config.BroadcastAddr,
		"Realm":         _config.Realm,
	}

	if _config.Store {
		logFields["DatabaseDir"] = _config.DatabaseDir
	}

	_config.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper. It returns notes about the
// files that were found, to be logged by the caller.
func bindFlagsLoadViper(cmd *cobra.Command) ([]string, error) {
	var notes []string

	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return notes, err
	}

	// SYNAPSE_SPEED_SCALE overrides --speed-scale, and so on
	viper.SetEnvPrefix(config.DefaultEnvVarPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// first unmarshal to read from CLI flags and environment
	if err := viper.Unmarshal(_config); err != nil {
		return notes, err
	}

	// [datadir]/.env does not override variables that are already set
	if err := godotenv.Load(_config.EnvFile()); err == nil {
		notes = append(notes, "Using env file: "+_config.EnvFile())
	} else if !os.IsNotExist(err) {
		return notes, err
	}

	// look for config file in [datadir]/synapse.toml (.json, .yaml also work)
	viper.SetConfigName(config.DefaultConfigName) // name of config file (without extension)
	viper.AddConfigPath(_config.DataDir)           // search root directory

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		notes = append(notes, "Using config file: "+viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		notes = append(notes, "No config file found in: "+_config.DataDir)
	} else {
		return notes, err
	}

	// second unmarshal to read from config file
	return notes, viper.Unmarshal(_config)
}
