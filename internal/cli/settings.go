package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/vvka-141/credprobe/internal/config"
	"github.com/vvka-141/credprobe/internal/vault"
	"github.com/vvka-141/credprobe/pkg/credprobe"
)

// envPrefix namespaces the environment variables mirroring run flags:
// --auth-error-code is $CREDPROBE_AUTH_ERROR_CODE.
const envPrefix = "CREDPROBE_"

// defaultEnvFile is read when no --env-file is given. Its absence is not an error.
const defaultEnvFile = ".env"

// layeredFlags are the run flags that fall back to the environment and the
// config file when not given explicitly.
var layeredFlags = []string{
	"url", "rolepath", "authdb", "db", "coll", "driver",
	"attempts", "wait", "timeout", "auth-error-code", "show-password",
}

func envKey(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// loadProjectConfig loads credprobe.yaml from the working directory, or the
// file at path when explicit. Returns nil config if the default file does
// not exist (not an error).
func loadProjectConfig(path string, explicit bool) (*config.ProjectConfig, error) {
	if !explicit {
		cfg, err := config.Load(".")
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", config.FileName, err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadFile(path)
	if errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmt.Errorf("%w: --config %s does not exist", credprobe.ErrInvalidConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// loadEnvFiles reads KEY=VALUE files without touching the process
// environment. Later files override earlier ones. When none are given the
// .env file of the working directory is read if present.
func loadEnvFiles(paths []string) (map[string]string, error) {
	if len(paths) == 0 {
		if _, err := os.Stat(defaultEnvFile); err != nil {
			return map[string]string{}, nil
		}
		paths = []string{defaultEnvFile}
	}

	merged := map[string]string{}
	for _, path := range paths {
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read env file %s: %w", credprobe.ErrInvalidConfig, path, err)
		}
		for k, v := range values {
			merged[k] = v
		}
	}
	return merged, nil
}

// configValues renders the config file's run settings in flag syntax.
func configValues(cfg *config.ProjectConfig) map[string][]string {
	values := map[string][]string{}
	if cfg == nil {
		return values
	}
	str := func(flag, v string) {
		if v != "" {
			values[flag] = []string{v}
		}
	}
	str("url", cfg.URL)
	str("rolepath", cfg.RolePath)
	str("authdb", cfg.AuthDatabase)
	str("db", cfg.Database)
	str("coll", cfg.Collection)
	str("driver", cfg.Driver)
	if cfg.Attempts != nil {
		values["attempts"] = []string{strconv.Itoa(*cfg.Attempts)}
	}
	if cfg.Wait != nil {
		values["wait"] = []string{cfg.Wait.Std().String()}
	}
	if cfg.Timeout != nil {
		values["timeout"] = []string{cfg.Timeout.Std().String()}
	}
	if len(cfg.AuthErrorCodes) > 0 {
		values["auth-error-code"] = cfg.AuthErrorCodes
	}
	if cfg.ShowPassword != nil {
		values["show-password"] = []string{strconv.FormatBool(*cfg.ShowPassword)}
	}
	return values
}

// applyLayers fills every layered flag the user did not set.
// Precedence: flag > environment (process, then env files) > config file > default.
func applyLayers(flags *pflag.FlagSet, env vault.Lookup, cfg *config.ProjectConfig) error {
	fromConfig := configValues(cfg)

	var errs []error
	for _, name := range layeredFlags {
		f := flags.Lookup(name)
		if f == nil || f.Changed {
			continue
		}

		if v, ok := env(envKey(name)); ok {
			if err := setFlag(flags, f, v); err != nil {
				errs = append(errs, fmt.Errorf("invalid $%s %q: %w", envKey(name), v, err))
			}
			continue
		}
		for _, v := range fromConfig[name] {
			if err := setFlag(flags, f, v); err != nil {
				errs = append(errs, fmt.Errorf("invalid %s in %s: %w", name, config.FileName, err))
				break
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", credprobe.ErrInvalidConfig, err)
	}
	return nil
}

// setFlag sets f from a layered source. Durations also accept a bare number
// of seconds there.
func setFlag(flags *pflag.FlagSet, f *pflag.Flag, v string) error {
	if f.Value.Type() == "duration" {
		d, err := config.ParseDuration(v)
		if err != nil {
			return err
		}
		v = d.String()
	}
	return flags.Set(f.Name, v)
}

// vaultLookup resolves Vault settings.
// Precedence: --vault-addr/--vault-namespace > environment > env files > config file.
func vaultLookup(flags runFlags, env vault.Lookup, cfg *config.ProjectConfig) vault.Lookup {
	fromFlags := map[string]string{
		vault.EnvAddress:   flags.vaultAddr,
		vault.EnvNamespace: flags.vaultNamespace,
	}
	return vault.Chain(vault.MapLookup(fromFlags), env, vault.MapLookup(cfg.VaultEnv()))
}
