package fakes

import (
	"context"
	"sync"

	"github.com/vvka-141/credprobe/pkg/credprobe"
)

// SecretReader serves secrets from a map keyed by path.
type SecretReader struct {
	Secrets map[string]*credprobe.Secret
	Err     error

	mu    sync.Mutex
	reads []string
}

var _ credprobe.SecretReader = (*SecretReader)(nil)

// NewCredentialSecret returns a reader serving one dynamic credential at path.
func NewCredentialSecret(path, username, password string) *SecretReader {
	return &SecretReader{
		Secrets: map[string]*credprobe.Secret{
			path: {Data: map[string]any{"username": username, "password": password}},
		},
	}
}

func (r *SecretReader) ReadSecret(_ context.Context, path string) (*credprobe.Secret, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads = append(r.reads, path)
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Secrets[path], nil
}

// Reads returns every path read, in order.
func (r *SecretReader) Reads() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reads...)
}
