package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/vvka-141/credprobe/internal/retry"
	"github.com/vvka-141/credprobe/pkg/credprobe"
)

// Driver names a supported database backend.
type Driver string

const (
	DriverAuto     Driver = "auto"
	DriverMongo    Driver = "mongodb"
	DriverPostgres Driver = "postgres"
)

// DefaultConnectTimeout bounds one connection attempt, server selection included.
const DefaultConnectTimeout = 10 * time.Second

// DetectDriver picks the driver from the URL scheme.
func DetectDriver(rawURL string) (Driver, error) {
	lower := strings.ToLower(strings.TrimSpace(rawURL))
	switch {
	case strings.HasPrefix(lower, "mongodb://"), strings.HasPrefix(lower, "mongodb+srv://"):
		return DriverMongo, nil
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DriverPostgres, nil
	case lower == "":
		return "", fmt.Errorf("%w: database URL is empty", credprobe.ErrInvalidConfig)
	default:
		return "", fmt.Errorf("%w: cannot determine database driver from URL %s (expected mongodb://, mongodb+srv://, postgres:// or postgresql://)",
			credprobe.ErrInvalidConfig, RedactURL(rawURL))
	}
}

// ResolveDriver validates an explicit driver name. An empty name or "auto"
// falls back to DetectDriver.
func ResolveDriver(name, rawURL string) (Driver, error) {
	switch Driver(strings.ToLower(strings.TrimSpace(name))) {
	case "", DriverAuto:
		return DetectDriver(rawURL)
	case DriverMongo, "mongo":
		return DriverMongo, nil
	case DriverPostgres, "postgresql":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("%w: unsupported driver %q (use auto, mongodb or postgres)", credprobe.ErrInvalidConfig, name)
	}
}

// Option configures a connector.
type Option func(*connectorOptions)

type connectorOptions struct {
	connectTimeout time.Duration
	logger         credprobe.Logger
}

// WithConnectTimeout overrides DefaultConnectTimeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *connectorOptions) {
		if d > 0 {
			o.connectTimeout = d
		}
	}
}

// WithLogger routes server notices and driver diagnostics to logger.
func WithLogger(l credprobe.Logger) Option {
	return func(o *connectorOptions) {
		o.logger = l
	}
}

// NewConnector returns the Connector for driver.
func NewConnector(driver Driver, opts ...Option) (credprobe.Connector, error) {
	o := connectorOptions{connectTimeout: DefaultConnectTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	switch driver {
	case DriverMongo:
		return &MongoConnector{connectTimeout: o.connectTimeout, logger: o.logger}, nil
	case DriverPostgres:
		return &PostgresConnector{connectTimeout: o.connectTimeout, logger: o.logger}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", credprobe.ErrInvalidConfig, driver)
	}
}

// ClassifierFor returns the authentication-failure classifier for driver.
// When codes is non-empty it replaces the driver's default code set.
func ClassifierFor(driver Driver, codes []string) (*retry.AuthFailureClassifier, error) {
	if len(codes) > 0 {
		return retry.NewAuthFailureClassifier(codes...), nil
	}
	switch driver {
	case DriverMongo:
		return retry.NewMongoAuthClassifier(), nil
	case DriverPostgres:
		return retry.NewPostgresAuthClassifier(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", credprobe.ErrInvalidConfig, driver)
	}
}
