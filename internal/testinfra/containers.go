package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage    = "postgres:17-alpine"
	PostgresUser     = "probe"
	PostgresPassword = "probe-secret"
	PostgresDB       = "testdb"

	MongoImage    = "mongo:7"
	MongoUser     = "root"
	MongoPassword = "probe-secret"
)

// Container is a started database container with host-reachable endpoints.
//
// ConnString carries the admin credentials. BareURL is the same endpoint
// with no userinfo, the shape credprobe receives from the operator.
type Container struct {
	testcontainers.Container
	ConnString string
	BareURL    string
}

func StartPostgres(ctx context.Context) (*Container, error) {
	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	hostPort, err := ctr.PortEndpoint(ctx, "5432/tcp", "")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get endpoint: %w", err)
	}

	return &Container{
		Container:  ctr,
		ConnString: connStr,
		BareURL:    fmt.Sprintf("postgres://%s/%s?sslmode=disable", hostPort, PostgresDB),
	}, nil
}

func StartMongo(ctx context.Context) (*Container, error) {
	ctr, err := mongodb.Run(ctx,
		MongoImage,
		mongodb.WithUsername(MongoUser),
		mongodb.WithPassword(MongoPassword),
	)
	if err != nil {
		return nil, fmt.Errorf("start mongodb: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx)
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	hostPort, err := ctr.PortEndpoint(ctx, "27017/tcp", "")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get endpoint: %w", err)
	}

	return &Container{
		Container:  ctr,
		ConnString: connStr,
		BareURL:    fmt.Sprintf("mongodb://%s/", hostPort),
	}, nil
}
