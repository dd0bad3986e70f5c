package testing

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/vvka-141/credprobe/internal/testinfra"
)

// Backend is a database endpoint available to integration tests.
type Backend struct {
	// AdminURL authenticates as a privileged user, for provisioning test users.
	AdminURL string
	// URL has no credentials; credprobe supplies them per attempt.
	URL string
}

type lazyBackend struct {
	once    sync.Once
	backend Backend
	err     error
}

var (
	postgresBackend lazyBackend
	mongoBackend    lazyBackend
)

func (l *lazyBackend) get(start func(context.Context) (*testinfra.Container, error)) (Backend, error) {
	l.once.Do(func() {
		ctr, err := start(context.Background())
		if err != nil {
			l.err = err
			return
		}
		l.backend = Backend{AdminURL: ctr.ConnString, URL: ctr.BareURL}
	})
	return l.backend, l.err
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequirePostgres returns a PostgreSQL backend, or skips the test.
// Priority: CREDPROBE_TEST_PG_ADMIN_URL + CREDPROBE_TEST_PG_URL > auto-started
// testcontainer > skip.
func RequirePostgres(t *testing.T) Backend {
	t.Helper()

	SkipIfShort(t)
	if b, ok := backendFromEnv("CREDPROBE_TEST_PG"); ok {
		return b
	}
	b, err := postgresBackend.get(testinfra.StartPostgres)
	if err != nil {
		t.Skipf("CREDPROBE_TEST_PG_URL not set and Docker unavailable: %v", err)
	}
	return b
}

// RequireMongo returns a MongoDB backend, or skips the test.
// Priority: CREDPROBE_TEST_MONGO_ADMIN_URL + CREDPROBE_TEST_MONGO_URL >
// auto-started testcontainer > skip.
func RequireMongo(t *testing.T) Backend {
	t.Helper()

	SkipIfShort(t)
	if b, ok := backendFromEnv("CREDPROBE_TEST_MONGO"); ok {
		return b
	}
	b, err := mongoBackend.get(testinfra.StartMongo)
	if err != nil {
		t.Skipf("CREDPROBE_TEST_MONGO_URL not set and Docker unavailable: %v", err)
	}
	return b
}

func backendFromEnv(prefix string) (Backend, bool) {
	admin, url := os.Getenv(prefix+"_ADMIN_URL"), os.Getenv(prefix+"_URL")
	if admin == "" || url == "" {
		return Backend{}, false
	}
	return Backend{AdminURL: admin, URL: url}, true
}
