package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/greedsolver/greed/game"
)

const (
	ConfigMax            = "max"
	ConfigSides          = "sides"
	ConfigSearch         = "search"
	ConfigThreads        = "threads"
	ConfigDebug          = "debug"
	ConfigDataPath       = "data-path"
	ConfigNatsURL        = "nats-url"
	ConfigCPUProfile     = "cpu-profile"
	ConfigMemProfile     = "mem-profile"
	ConfigMemoryFraction = "memory-fraction"
	ConfigLambdaFunction = "lambda-function"
	ConfigConfigFile     = "config"
)

// Config layers, lowest priority first: defaults, an optional YAML file,
// GREED_* environment variables, and command-line flags.
type Config struct {
	*viper.Viper
}

func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.SetDefault(ConfigMax, game.DefaultMax)
	c.SetDefault(ConfigSides, game.DefaultSides)
	c.SetDefault(ConfigSearch, "exhaustive")
	c.SetDefault(ConfigThreads, 0)
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigDataPath, "./data")
	c.SetDefault(ConfigNatsURL, "nats://127.0.0.1:4222")
	c.SetDefault(ConfigMemoryFraction, 0.5)
	c.SetDefault(ConfigLambdaFunction, "greed-lookup")
	return c
}

func (c *Config) flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("greed", pflag.ContinueOnError)
	// Everything after the first bare word belongs to the shell command.
	fs.SetInterspersed(false)
	fs.Int(ConfigMax, game.DefaultMax, "maximum score before busting")
	fs.Int(ConfigSides, game.DefaultSides, "number of sides on each die")
	fs.String(ConfigSearch, "exhaustive", "action search: exhaustive, bounded or pruned")
	fs.Int(ConfigThreads, 0, "solver threads; 0 uses all but one CPU")
	fs.Bool(ConfigDebug, false, "debug logging")
	fs.String(ConfigDataPath, "./data", "directory for exported tables")
	fs.String(ConfigNatsURL, "nats://127.0.0.1:4222", "NATS server for the lookup worker")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")
	fs.String(ConfigMemProfile, "", "write a heap profile to this file")
	fs.Float64(ConfigMemoryFraction, 0.5, "share of system memory a solve may use; 0 disables the check")
	fs.String(ConfigLambdaFunction, "greed-lookup", "lambda function for remote lookups")
	fs.String(ConfigConfigFile, "", "YAML config file")
	return fs
}

// Load parses args (without the program name) and merges every source.
// The arguments from the first non-flag on are returned.
func (c *Config) Load(args []string) ([]string, error) {
	fs := c.flagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	c.SetEnvPrefix("GREED")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()
	if err := c.BindPFlags(fs); err != nil {
		return nil, err
	}
	if path := c.GetString(ConfigConfigFile); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		c.SetConfigFile(path)
		c.SetConfigType("yaml")
		if err := c.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}
	return fs.Args(), nil
}

// Ruleset returns the configured, validated ruleset.
func (c *Config) Ruleset() (game.Ruleset, error) {
	return game.NewRuleset(c.GetInt(ConfigMax), c.GetInt(ConfigSides))
}

var ErrBadFraction = errors.New("memory fraction must be in [0, 1]")

func (c *Config) MemoryFraction() (float64, error) {
	f := c.GetFloat64(ConfigMemoryFraction)
	if f < 0 || f > 1 {
		return 0, fmt.Errorf("%w: got %v", ErrBadFraction, f)
	}
	return f, nil
}
