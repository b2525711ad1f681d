package application

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/externalizor-go/internal/serializer"
	"github.com/lk2023060901/externalizor-go/pkg/codec"
	"github.com/lk2023060901/externalizor-go/pkg/externalizer"
	zlog "github.com/lk2023060901/externalizor-go/pkg/log"
	"github.com/lk2023060901/externalizor-go/pkg/metrics"
	zviper "github.com/lk2023060901/externalizor-go/pkg/util/viper"
)

const (
	defaultConfigPath = "./config.yaml"
	configPathEnv     = "EXTERNALIZOR_CONFIG_FILE_PATH"
	// envPrefix lets EXTERNALIZOR_<SECTION>_<KEY> override keys present in the config file.
	envPrefix = "EXTERNALIZOR"
)

// Application is the runtime container of an externalizor process.
// It owns the configuration, the loggers, the externalizer Registry and the frame Codec.
type Application struct {
	cfg      *zviper.Config
	loggers  map[string]*zlog.MLogger
	registry *externalizer.Registry
	codec    *codec.Codec
}

// New creates a new Application instance.
func New() *Application {
	return &Application{}
}

// Run parses os.Args and loads the configuration file using the following priority:
//  1. Default: ./config.yaml
//  2. Env: EXTERNALIZOR_CONFIG_FILE_PATH
//  3. CLI: --config <path> or --config=<path>
//
// It then initializes logging, registers metrics and builds the Registry and Codec
// from the "externalizer" and "codec" sections.
func (a *Application) Run() error {
	return a.run(os.Args[1:])
}

func (a *Application) run(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.initLogging(); err != nil {
		return err
	}
	metrics.Register(metrics.GetRegisterer())

	return a.initCodec()
}

// Config returns the loaded configuration, if any.
func (a *Application) Config() *zviper.Config {
	return a.cfg
}

// Registry returns the Registry built by Run, or the process-wide default before Run.
func (a *Application) Registry() *externalizer.Registry {
	if a.registry == nil {
		return externalizer.Default()
	}
	return a.registry
}

// Codec returns the frame Codec built by Run.
func (a *Application) Codec() *codec.Codec {
	return a.codec
}

// Logger returns a named logger created from configuration.
// If the name is unknown, it falls back to the global logger.
func (a *Application) Logger(name string) *zlog.MLogger {
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return &zlog.MLogger{Logger: zlog.L()}
}

// Close releases the worker pool and compressors and flushes the logs.
func (a *Application) Close() {
	if a.codec != nil {
		a.codec.Close()
	}
	if a.registry != nil {
		a.registry.Close()
	}
	_ = zlog.Sync()
}

// loadConfig resolves the config file path and loads it via the viper wrapper.
func loadConfig(args []string) (*zviper.Config, error) {
	configPath := defaultConfigPath
	if envPath := os.Getenv(configPathEnv); envPath != "" {
		configPath = envPath
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" {
			if i+1 >= len(args) {
				return nil, errors.New("missing value after --config")
			}
			configPath = args[i+1]
			i++
			continue
		}
		if val, ok := strings.CutPrefix(arg, "--config="); ok && val != "" {
			configPath = val
		}
	}

	cfg := zviper.New(zviper.WithEnvPrefix(envPrefix))
	if err := cfg.LoadFile(configPath); err != nil {
		return nil, errors.Wrapf(err, "load config file %q", configPath)
	}
	return cfg, nil
}

// initCodec builds the Registry and the Codec; missing sections keep their defaults.
func (a *Application) initCodec() error {
	extCfg := externalizer.DefaultConfig()
	if err := a.cfg.UnmarshalKey(externalizer.ConfigKey, &extCfg); err != nil {
		return errors.Wrap(err, "unmarshal externalizer config")
	}
	a.registry = externalizer.NewRegistry(
		externalizer.WithConfig(extCfg),
		externalizer.WithLogger(a.Logger("externalizer")),
	)

	codecCfg := codec.DefaultConfig()
	if err := a.cfg.UnmarshalKey(codec.ConfigKey, &codecCfg); err != nil {
		return errors.Wrap(err, "unmarshal codec config")
	}
	c, err := codec.New(
		codec.WithConfig(codecCfg),
		codec.WithSerializer(serializer.NewExternSerializer(a.registry)),
		codec.WithLogger(a.Logger("codec")),
	)
	if err != nil {
		return errors.Wrap(err, "create codec")
	}
	a.codec = c

	zlog.Info("externalizor initialized",
		zlog.FieldComponent("application"))
	return nil
}

// initLogging initializes global and module-level loggers.
func (a *Application) initLogging() error {
	if err := initGlobalLoggerFromEnv(); err != nil {
		return err
	}
	return a.initModuleLoggersFromConfig()
}

// initGlobalLoggerFromEnv configures the process-wide logger based on EXTERNALIZOR_LOG_* env vars.
//
//   - EXTERNALIZOR_LOG_ENABLE: "1"/"true" to enable outputs; others treated as disabled.
//   - EXTERNALIZOR_LOG_LEVEL: log level (default "info").
//   - EXTERNALIZOR_LOG_STDOUT: whether to log to stdout (default false).
//   - EXTERNALIZOR_LOG_FILE_DIR: log directory.
//   - EXTERNALIZOR_LOG_FILE: log file name (empty means no file).
//   - EXTERNALIZOR_LOG_FORMAT: log format ("text" or "json", default "text").
func initGlobalLoggerFromEnv() error {
	enabled := getenvBool("EXTERNALIZOR_LOG_ENABLE", false)

	cfg := &zlog.Config{
		Level:               getenvDefault("EXTERNALIZOR_LOG_LEVEL", "info"),
		Format:              getenvDefault("EXTERNALIZOR_LOG_FORMAT", "text"),
		Stdout:              getenvBool("EXTERNALIZOR_LOG_STDOUT", false),
		DisableErrorVerbose: true,
		File: zlog.FileLogConfig{
			RootPath: getenvDefault("EXTERNALIZOR_LOG_FILE_DIR", ""),
			Filename: getenvDefault("EXTERNALIZOR_LOG_FILE", ""),
		},
	}

	// When not enabled, direct all outputs to a discarded sink.
	if !enabled {
		cfg.Stdout = false
		cfg.File.Filename = ""
	}

	logger, props, err := zlog.InitLogger(cfg)
	if err != nil {
		return errors.Wrap(err, "init global logger from env")
	}
	zlog.ReplaceGlobals(logger, props)
	return nil
}

// initModuleLoggersFromConfig creates named loggers from the "logging" section.
//
// Example:
//
//	logging:
//	  externalizer:
//	    level: debug
//	    stdout: true
//	    file:
//	      rootpath: ./logs
//	      filename: externalizer.log
func (a *Application) initModuleLoggersFromConfig() error {
	if a.cfg == nil {
		return nil
	}

	raw := make(map[string]zlog.Config)
	if err := a.cfg.UnmarshalKey("logging", &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	a.loggers = make(map[string]*zlog.MLogger, len(raw))
	for name, lc := range raw {
		logger, _, err := zlog.InitLogger(&lc)
		if err != nil {
			return errors.Wrapf(err, "init module logger %q", name)
		}
		a.loggers[name] = &zlog.MLogger{Logger: logger}
	}
	return nil
}

func getenvDefault(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func getenvBool(key string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
