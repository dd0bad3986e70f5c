package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/credprobe/internal/vault"
	"github.com/vvka-141/credprobe/pkg/credprobe"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// FileName is the config file looked up in the working directory.
const FileName = "credprobe.yaml"

// Duration is a YAML duration: a Go duration string ("2s", "1m30s") or a bare
// number of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a duration, got a %s", node.Line, kindName(node.Kind))
	}
	parsed, err := ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ParseDuration accepts a Go duration or a bare number of seconds.
func ParseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return d, nil
}

// VaultConfig holds Vault client settings. The token is deliberately absent:
// it comes from $VAULT_TOKEN or ~/.vault-token only.
type VaultConfig struct {
	Address    string    `yaml:"address" validate:"omitempty,url"`
	Namespace  string    `yaml:"namespace"`
	CACert     string    `yaml:"cacert"`
	SkipVerify *bool     `yaml:"skip_verify"`
	Timeout    *Duration `yaml:"timeout" validate:"omitnil,gte=0"`
}

// ProjectConfig mirrors the run flags. Unset fields leave the flag default in
// place; pointers distinguish "unset" from a zero value.
type ProjectConfig struct {
	URL            string      `yaml:"url" validate:"omitempty,url"`
	RolePath       string      `yaml:"rolepath"`
	AuthDatabase   string      `yaml:"authdb"`
	Database       string      `yaml:"db"`
	Collection     string      `yaml:"coll"`
	Driver         string      `yaml:"driver" validate:"omitempty,oneof=auto mongodb postgres"`
	Attempts       *int        `yaml:"attempts" validate:"omitnil,gte=1"`
	Wait           *Duration   `yaml:"wait" validate:"omitnil,gte=0"`
	Timeout        *Duration   `yaml:"timeout" validate:"omitnil,gt=0"`
	AuthErrorCodes []string    `yaml:"auth_error_codes" validate:"dive,required"`
	ShowPassword   *bool       `yaml:"show_password"`
	Vault          VaultConfig `yaml:"vault"`
}

var validate = validator.New()

// Validate checks field constraints. Every violation is reported.
func (c *ProjectConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", credprobe.ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", credprobe.ErrInvalidConfig, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Attempts":
		return fmt.Sprintf("attempts must be at least 1, got %v", fe.Value())
	case "Wait":
		return "wait cannot be negative"
	case "Timeout":
		if strings.HasPrefix(fe.StructNamespace(), "ProjectConfig.Vault.") {
			return "vault.timeout cannot be negative"
		}
		return "timeout must be positive"
	case "Driver":
		return fmt.Sprintf("driver %q is not one of auto, mongodb, postgres", fe.Value())
	case "URL":
		return fmt.Sprintf("url %q is not a URL", fe.Value())
	case "Address":
		return fmt.Sprintf("vault.address %q is not a URL", fe.Value())
	default:
		return fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
	}
}

// VaultEnv returns the Vault settings keyed by the environment variable each
// one corresponds to, for use as the lowest-priority lookup layer.
func (c *ProjectConfig) VaultEnv() map[string]string {
	env := map[string]string{}
	if c == nil {
		return env
	}
	set := func(key, value string) {
		if value != "" {
			env[key] = value
		}
	}
	set(vault.EnvAddress, c.Vault.Address)
	set(vault.EnvNamespace, c.Vault.Namespace)
	set(vault.EnvCACert, c.Vault.CACert)
	if c.Vault.SkipVerify != nil {
		env[vault.EnvSkipVerify] = strconv.FormatBool(*c.Vault.SkipVerify)
	}
	if c.Vault.Timeout != nil {
		env[vault.EnvTimeout] = c.Vault.Timeout.Std().String()
	}
	return env
}

// Load reads FileName from dir.
func Load(dir string) (*ProjectConfig, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile reads and validates the config file at path. Unknown keys are
// rejected so that typos do not silently fall back to defaults.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	var cfg ProjectConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parsing %s: %w", credprobe.ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
