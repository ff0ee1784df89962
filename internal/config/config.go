// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bootkit/bootkit/internal/issue"
	"github.com/bootkit/bootkit/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "bootkit"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides: lock.redis.addr is read
	// from BOOTKIT_LOCK_REDIS_ADDR.
	EnvPrefix = "BOOTKIT"
)

//go:embed config_schema.cue
var configSchema []byte

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// ConfigDirPath overrides the config directory lookup when set.
	ConfigDirPath string
	// EnvFile is a dotenv file supplying BOOTKIT_* variables. A missing
	// file is ignored.
	EnvFile string
}

// ConfigDir returns the bootkit configuration directory inside the
// platform's user config directory.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load reads the configuration. It returns the path of the file that was
// loaded, or "" when only defaults and environment overrides apply.
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := resolvePath(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Use 'bootkit config show' to see the effective configuration").
				Wrap(fmt.Errorf("%w: %w", issue.ErrConfig, err)).
				BuildError()
		}
	}

	if opts.EnvFile != "" {
		if err := applyEnvFile(v, opts.EnvFile); err != nil {
			return nil, "", issue.WrapWithContext(fmt.Errorf("%w: %w", issue.ErrConfig, err), "read environment file", opts.EnvFile)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", issue.WrapWithContext(fmt.Errorf("%w: %w", issue.ErrConfig, err), "decode configuration", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Set the field in the config file or through its " + EnvPrefix + "_* variable").
			Wrap(fmt.Errorf("%w: %w", issue.ErrConfig, err)).
			BuildError()
	}
	return &cfg, path, nil
}

func resolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				Wrap(fmt.Errorf("%w: config file not found", issue.ErrConfig)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	name := ConfigFileName + "." + ConfigFileExt
	for _, candidate := range []string{filepath.Join(dir, name), name} {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("manifest", d.Manifest)
	v.SetDefault("scope_id", d.ScopeID)
	v.SetDefault("prune_disabled", d.PruneDisabled)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("lock.backend", string(d.Lock.Backend))
	v.SetDefault("lock.key", d.Lock.Key)
	v.SetDefault("lock.timeout", d.Lock.Timeout)
	v.SetDefault("lock.redis.addr", d.Lock.Redis.Addr)
	v.SetDefault("lock.redis.password", d.Lock.Redis.Password)
	v.SetDefault("lock.redis.db", d.Lock.Redis.DB)
	v.SetDefault("lock.redis.ttl", d.Lock.Redis.TTL)
	v.SetDefault("lock.postgres.dsn", d.Lock.Postgres.DSN)
}

func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	settings, err := cueutil.Decode[map[string]any](configSchema, data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false))
	if err != nil {
		return err
	}
	if err := v.MergeConfigMap(*settings); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// applyEnvFile sets every BOOTKIT_* value from a dotenv file whose variable
// is not already present in the process environment.
func applyEnvFile(v *viper.Viper, path string) error {
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, key := range v.AllKeys() {
		name := EnvName(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if value, ok := values[name]; ok {
			v.Set(key, value)
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// GenerateCUE renders cfg as a config file accepted by Load.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder
	sb.WriteString("// bootkit configuration\n\n")
	if cfg.Manifest != "" {
		fmt.Fprintf(&sb, "manifest: %q\n", cfg.Manifest)
	}
	if cfg.ScopeID != "" {
		fmt.Fprintf(&sb, "scope_id: %q\n", cfg.ScopeID)
	}
	fmt.Fprintf(&sb, "prune_disabled: %v\n", cfg.PruneDisabled)

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tlevel:  %q\n", cfg.Log.Level)
	fmt.Fprintf(&sb, "\tformat: %q\n", cfg.Log.Format)
	sb.WriteString("}\n")

	sb.WriteString("\nmetrics: {\n")
	fmt.Fprintf(&sb, "\tenabled:   %v\n", cfg.Metrics.Enabled)
	fmt.Fprintf(&sb, "\tnamespace: %q\n", cfg.Metrics.Namespace)
	sb.WriteString("}\n")

	sb.WriteString("\nlock: {\n")
	fmt.Fprintf(&sb, "\tbackend: %q\n", cfg.Lock.Backend)
	fmt.Fprintf(&sb, "\tkey:     %q\n", cfg.Lock.Key)
	fmt.Fprintf(&sb, "\ttimeout: %q\n", cfg.Lock.Timeout.String())
	sb.WriteString("\tredis: {\n")
	fmt.Fprintf(&sb, "\t\taddr: %q\n", cfg.Lock.Redis.Addr)
	fmt.Fprintf(&sb, "\t\tdb:   %d\n", cfg.Lock.Redis.DB)
	fmt.Fprintf(&sb, "\t\tttl:  %q\n", cfg.Lock.Redis.TTL.String())
	sb.WriteString("\t}\n")
	if cfg.Lock.Postgres.DSN != "" {
		fmt.Fprintf(&sb, "\tpostgres: dsn: %q\n", cfg.Lock.Postgres.DSN)
	}
	sb.WriteString("}\n")
	return sb.String()
}
