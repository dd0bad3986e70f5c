// Package credentials obtains the database credential pair from the secrets
// service.
package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/vvka-141/credprobe/pkg/credprobe"
)

// Data payload keys of a database dynamic secret.
const (
	UsernameKey = "username"
	PasswordKey = "password"
)

// Fetcher reads a dynamic credential once per run.
type Fetcher struct {
	reader       credprobe.SecretReader
	logger       credprobe.Logger
	showPassword bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithPasswordInLog prints the obtained password in the info log line.
// Debug-only: the password ends up in terminal scrollback and CI logs.
func WithPasswordInLog(show bool) Option {
	return func(f *Fetcher) {
		f.showPassword = show
	}
}

// NewFetcher creates a Fetcher reading from reader.
func NewFetcher(reader credprobe.SecretReader, logger credprobe.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{reader: reader, logger: logger}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch reads the secret at rolePath and extracts the credential pair.
//
// Errors:
//   - ErrInvalidConfig when rolePath is empty
//   - ErrSecretsBackend when the read itself fails
//   - ErrMissingCredentialField when the secret is absent or lacks a field
func (f *Fetcher) Fetch(ctx context.Context, rolePath string) (credprobe.CredentialPair, error) {
	if rolePath == "" {
		return credprobe.CredentialPair{}, fmt.Errorf("secrets role path is required: %w", credprobe.ErrInvalidConfig)
	}

	secret, err := f.reader.ReadSecret(ctx, rolePath)
	if err != nil {
		return credprobe.CredentialPair{}, fmt.Errorf("%w: reading %q: %w", credprobe.ErrSecretsBackend, rolePath, err)
	}
	if secret == nil || secret.Data == nil {
		return credprobe.CredentialPair{}, fmt.Errorf("%w: no secret data at %q", credprobe.ErrMissingCredentialField, rolePath)
	}

	username, userErr := stringField(secret.Data, UsernameKey)
	password, passErr := stringField(secret.Data, PasswordKey)
	if err := errors.Join(userErr, passErr); err != nil {
		return credprobe.CredentialPair{}, fmt.Errorf("%w: secret at %q: %w", credprobe.ErrMissingCredentialField, rolePath, err)
	}
	creds := credprobe.CredentialPair{Username: username, Password: password}

	shownPassword := credprobe.MaskSecret(creds.Password)
	if f.showPassword {
		shownPassword = creds.Password
	}
	f.logger.Info("Obtained database credentials from Vault: username=%q, password=%q", creds.Username, shownPassword)
	if secret.LeaseID != "" {
		f.logger.Verbose("Lease %s: duration=%v renewable=%t (not renewed)", secret.LeaseID, secret.LeaseDuration, secret.Renewable)
	}

	return creds, nil
}

func stringField(data map[string]any, key string) (string, error) {
	raw, ok := data[key]
	if !ok || raw == nil {
		return "", fmt.Errorf("field %q is absent", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("field %q is %T, not a string", key, raw)
	}
	if s == "" {
		return "", fmt.Errorf("field %q is empty", key)
	}
	return s, nil
}
