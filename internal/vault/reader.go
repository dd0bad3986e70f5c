package vault

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/vvka-141/credprobe/pkg/credprobe"
)

// defaultClientTimeout matches the Vault client's own default.
const defaultClientTimeout = 60 * time.Second

// Reader implements credprobe.SecretReader over the Vault logical backend.
type Reader struct {
	client *api.Client
	config Config
}

var _ credprobe.SecretReader = (*Reader)(nil)

// NewReader creates a Vault client from cfg. Settings the Vault client would
// pick up from VAULT_* variables (agent address, SRV lookup, rate limit,
// client certificates) are discarded; cfg is the only source.
func NewReader(cfg Config) (*Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	apiCfg := api.DefaultConfig()
	if apiCfg.Error != nil {
		return nil, fmt.Errorf("failed to initialise Vault client config: %w", apiCfg.Error)
	}
	// DefaultConfig has already applied the VAULT_* environment; undo what
	// cfg does not carry so that cfg stays the only source.
	apiCfg.Address = cfg.Address
	apiCfg.AgentAddress = ""
	apiCfg.SRVLookup = false
	apiCfg.Limiter = nil
	apiCfg.Timeout = defaultClientTimeout
	if cfg.Timeout > 0 {
		apiCfg.Timeout = cfg.Timeout
	}
	// A failed read is fatal for the run; the client must not retry it.
	apiCfg.MaxRetries = 0

	if transport, ok := apiCfg.HttpClient.Transport.(*http.Transport); ok {
		transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		transport.Proxy = http.ProxyFromEnvironment
	}
	tlsCfg := &api.TLSConfig{CACert: cfg.CACert, Insecure: cfg.SkipVerify}
	if err := apiCfg.ConfigureTLS(tlsCfg); err != nil {
		return nil, fmt.Errorf("failed to configure Vault TLS: %w: %w", err, credprobe.ErrInvalidConfig)
	}

	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	client.SetToken(cfg.Token)
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	} else {
		client.ClearNamespace()
	}

	return &Reader{client: client, config: cfg}, nil
}

// ReadSecret performs a single logical read at path.
func (r *Reader) ReadSecret(ctx context.Context, path string) (*credprobe.Secret, error) {
	secret, err := r.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, err
	}
	if secret == nil {
		return nil, nil
	}

	return &credprobe.Secret{
		Data:          secret.Data,
		LeaseID:       secret.LeaseID,
		LeaseDuration: time.Duration(secret.LeaseDuration) * time.Second,
		Renewable:     secret.Renewable,
	}, nil
}

// String returns a human-readable description for logging.
func (r *Reader) String() string {
	return r.config.String()
}
