// Package vault adapts the HashiCorp Vault API client to credprobe.SecretReader.
package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vvka-141/credprobe/pkg/credprobe"
)

// Environment variables understood by the Vault CLI and client libraries.
const (
	EnvAddress    = "VAULT_ADDR"
	EnvToken      = "VAULT_TOKEN"
	EnvNamespace  = "VAULT_NAMESPACE"
	EnvCACert     = "VAULT_CACERT"
	EnvSkipVerify = "VAULT_SKIP_VERIFY"
	EnvTimeout    = "VAULT_CLIENT_TIMEOUT"
)

// TokenFileName is where `vault login` stores the token, relative to $HOME.
const TokenFileName = ".vault-token"

// Config is everything needed to reach Vault. It is built once at process
// start and treated as read-only afterwards.
type Config struct {
	Address    string        `validate:"required,url"`
	Token      string        `validate:"required"`
	Namespace  string
	Timeout    time.Duration `validate:"gte=0"`
	CACert     string
	SkipVerify bool
}

// String returns a human-readable description for logging. The token is never included.
func (c Config) String() string {
	s := fmt.Sprintf("Vault(address=%s", c.Address)
	if c.Namespace != "" {
		s += ", namespace=" + c.Namespace
	}
	return s + ")"
}

var validate = validator.New()

// Validate checks the Config for missing or malformed fields.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("vault configuration: %s: %w", strings.Join(msgs, "; "), credprobe.ErrInvalidConfig)
		}
		return fmt.Errorf("vault configuration: %v: %w", err, credprobe.ErrInvalidConfig)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Field() {
	case "Token":
		return fmt.Sprintf("no token (set $%s or run `vault login` to create ~/%s)", EnvToken, TokenFileName)
	case "Address":
		if fe.Tag() == "required" {
			return fmt.Sprintf("address is required (set $%s)", EnvAddress)
		}
		return fmt.Sprintf("address %q is not a URL", fe.Value())
	default:
		return fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag())
	}
}

// Lookup returns the value configured for key, if any.
type Lookup func(key string) (string, bool)

// Chain returns a Lookup consulting each lookup in order; the first hit wins.
// Empty values count as unset.
func Chain(lookups ...Lookup) Lookup {
	return func(key string) (string, bool) {
		for _, lookup := range lookups {
			if lookup == nil {
				continue
			}
			if v, ok := lookup(key); ok && v != "" {
				return v, true
			}
		}
		return "", false
	}
}

// MapLookup serves values from m.
func MapLookup(m map[string]string) Lookup {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// DefaultTokenFile returns ~/.vault-token, or "" if the home directory is unknown.
func DefaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, TokenFileName)
}

// ResolveConfig builds a Config from lookup. When no token is configured the
// token file written by `vault login` is used, if present.
func ResolveConfig(lookup Lookup, tokenFile string) (Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := Config{
		Address:   get(EnvAddress),
		Token:     get(EnvToken),
		Namespace: get(EnvNamespace),
		CACert:    get(EnvCACert),
	}
	if cfg.Address == "" {
		cfg.Address = credprobe.DefaultVaultAddress
	}

	if raw := get(EnvSkipVerify); raw != "" {
		skip, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid $%s %q: %w", EnvSkipVerify, raw, credprobe.ErrInvalidConfig)
		}
		cfg.SkipVerify = skip
	}

	if raw := get(EnvTimeout); raw != "" {
		timeout, err := parseTimeout(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid $%s %q: %w", EnvTimeout, raw, credprobe.ErrInvalidConfig)
		}
		cfg.Timeout = timeout
	}

	if cfg.Token == "" && tokenFile != "" {
		data, err := os.ReadFile(tokenFile)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to read token file %s: %w", tokenFile, err)
		}
		cfg.Token = strings.TrimSpace(string(data))
	}

	return cfg, nil
}

// parseTimeout accepts a Go duration or, like the Vault CLI, a bare number of seconds.
func parseTimeout(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}
