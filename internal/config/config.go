package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"go.uber.org/multierr"
)

type Config struct {
	ListenAddr      string
	DataPath        string
	SchemaPath      string
	CacheSize       int
	ShutdownTimeout time.Duration
	Verbose         bool
}

// Load parses args (without the program name). Values from the environment,
// optionally seeded from envFile, override flag defaults but not flags given
// explicitly on the command line.
func Load(args []string, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	flags := flag.NewFlagSet("pivotd", flag.ContinueOnError)
	flags.StringVar(&cfg.ListenAddr, "listen-addr", ":8080", "HTTP listen address (or set PIVOTD_LISTEN_ADDR env var)")
	flags.StringVar(&cfg.DataPath, "data", "", "CSV dataset path (or set PIVOTD_DATA env var)")
	flags.StringVar(&cfg.SchemaPath, "schema", "", "YAML schema binding CSV columns to attributes and measures (or set PIVOTD_SCHEMA env var)")
	flags.IntVar(&cfg.CacheSize, "cache-size", 256, "Query results kept in the LRU cache (or set PIVOTD_CACHE_SIZE env var)")
	flags.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")
	flags.BoolVar(&cfg.Verbose, "verbose", false, "enable verbose (debug) logging")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	var err error
	override := func(flagName, env string, apply func(string) error) {
		v := os.Getenv(env)
		if v == "" || flags.Changed(flagName) {
			return
		}
		if e := apply(v); e != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", env, e))
		}
	}
	override("listen-addr", "PIVOTD_LISTEN_ADDR", func(v string) error { cfg.ListenAddr = v; return nil })
	override("data", "PIVOTD_DATA", func(v string) error { cfg.DataPath = v; return nil })
	override("schema", "PIVOTD_SCHEMA", func(v string) error { cfg.SchemaPath = v; return nil })
	override("cache-size", "PIVOTD_CACHE_SIZE", func(v string) (e error) { cfg.CacheSize, e = strconv.Atoi(v); return })
	override("verbose", "PIVOTD_VERBOSE", func(v string) (e error) { cfg.Verbose, e = strconv.ParseBool(v); return })
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	var err error
	if cfg.ListenAddr == "" {
		err = multierr.Append(err, errors.New("listen addr is required"))
	}
	if cfg.DataPath == "" {
		err = multierr.Append(err, errors.New("--data is required"))
	}
	if cfg.SchemaPath == "" {
		err = multierr.Append(err, errors.New("--schema is required"))
	}
	if cfg.CacheSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("cache size must be positive, got %d", cfg.CacheSize))
	}
	return err
}
