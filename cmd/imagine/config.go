// ABOUTME: CLI configuration assembled from defaults, a YAML file, IMAGINE_* variables and flags.
// ABOUTME: Later sources win: flags > environment > config file > defaults.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/2389-research/imagine/imagine"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors config.yaml. Pointers distinguish "absent" from zero.
type fileConfig struct {
	BaseDir   string            `yaml:"basedir"`
	Verbosity *int              `yaml:"verbosity"`
	Encoding  string            `yaml:"encoding"`
	Programs  map[string]string `yaml:"programs"`
	Ledger    *string           `yaml:"ledger"`
	Server    struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

// config is the resolved CLI configuration.
type config struct {
	baseDir   string
	verbosity int
	encoding  string
	programs  map[string]string
	ledger    string // empty disables the ledger
	addr      string
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	baseDir    string
	verbosity  int
	encoding   string
	ledger     string
	noLedger   bool
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&g.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/imagine/config.yaml)")
	fs.StringVar(&g.baseDir, "basedir", "", "cache directory prefix; images go to <basedir>-images (default: pd)")
	fs.IntVarP(&g.verbosity, "verbosity", "v", int(imagine.DefaultLevel), "0 error, 1 warn, 2 info, 3 verbose, 4 debug")
	fs.StringVar(&g.encoding, "encoding", "", "text encoding for cached input files (default: utf-8)")
	fs.StringVar(&g.ledger, "ledger", "", "invocation ledger database (default: $XDG_DATA_HOME/imagine/ledger.db)")
	fs.BoolVar(&g.noLedger, "no-ledger", false, "do not record tool invocations")
}

func defaultConfig() (config, error) {
	cfg := config{
		baseDir:   imagine.DefaultBaseDir,
		verbosity: int(imagine.DefaultLevel),
		addr:      "127.0.0.1:2390",
	}
	dir, err := defaultDataDir()
	if err != nil {
		return cfg, err
	}
	cfg.ledger = filepath.Join(dir, "ledger.db")
	return cfg, nil
}

// loadConfig resolves the configuration for one command invocation.
func loadConfig(g *globalFlags, fs *pflag.FlagSet) (config, error) {
	cfg, err := defaultConfig()
	if err != nil {
		return cfg, err
	}

	path, explicit := g.configPath, g.configPath != ""
	if !explicit {
		if env := os.Getenv("IMAGINE_CONFIG"); env != "" {
			path, explicit = env, true
		} else if dir, err := defaultConfigDir(); err == nil {
			path = filepath.Join(dir, "config.yaml")
		}
	}
	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return cfg, err
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	applyFlags(&cfg, g, fs)

	if cfg.verbosity < int(imagine.LevelError) || cfg.verbosity > int(imagine.LevelDebug) {
		return cfg, fmt.Errorf("verbosity must be between %d and %d, got %d", imagine.LevelError, imagine.LevelDebug, cfg.verbosity)
	}
	return cfg, nil
}

func applyFile(cfg *config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.BaseDir != "" {
		cfg.baseDir = fc.BaseDir
	}
	if fc.Verbosity != nil {
		cfg.verbosity = *fc.Verbosity
	}
	if fc.Encoding != "" {
		cfg.encoding = fc.Encoding
	}
	if len(fc.Programs) > 0 {
		cfg.programs = fc.Programs
	}
	if fc.Ledger != nil {
		cfg.ledger = *fc.Ledger
	}
	if fc.Server.Addr != "" {
		cfg.addr = fc.Server.Addr
	}
	return nil
}

func applyEnv(cfg *config) error {
	if v := os.Getenv("IMAGINE_BASEDIR"); v != "" {
		cfg.baseDir = v
	}
	if v := os.Getenv("IMAGINE_VERBOSITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("IMAGINE_VERBOSITY: %w", err)
		}
		cfg.verbosity = n
	}
	if v := os.Getenv("IMAGINE_ENCODING"); v != "" {
		cfg.encoding = v
	}
	if v, ok := os.LookupEnv("IMAGINE_LEDGER"); ok {
		cfg.ledger = v
	}
	if v := os.Getenv("IMAGINE_ADDR"); v != "" {
		cfg.addr = v
	}
	return nil
}

func applyFlags(cfg *config, g *globalFlags, fs *pflag.FlagSet) {
	if fs.Changed("basedir") {
		cfg.baseDir = g.baseDir
	}
	if fs.Changed("verbosity") {
		cfg.verbosity = g.verbosity
	}
	if fs.Changed("encoding") {
		cfg.encoding = g.encoding
	}
	if fs.Changed("ledger") {
		cfg.ledger = g.ledger
	}
	if g.noLedger {
		cfg.ledger = ""
	}
}
