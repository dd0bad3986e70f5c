package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/credprobe/pkg/credprobe"
)

// PostgresConnector opens PostgreSQL connections with credentials supplied
// per attempt. User, password and database from the URL are overridden by
// the attempt's credentials and Request.Database; the auth database does not
// apply to PostgreSQL and is ignored.
//
// A "collection" maps to a table of (id uuid, doc jsonb, created_at
// timestamptz), created on first insert.
type PostgresConnector struct {
	connectTimeout time.Duration
	logger         credprobe.Logger
}

var _ credprobe.Connector = (*PostgresConnector)(nil)

func (c *PostgresConnector) String() string {
	return "PostgreSQL driver"
}

func (c *PostgresConnector) Connect(ctx context.Context, req credprobe.Request, creds credprobe.CredentialPair) (credprobe.Session, error) {
	cfg, err := pgx.ParseConfig(req.URL)
	if err != nil {
		return nil, credprobe.NewDatabaseError("connect", "", fmt.Errorf("invalid PostgreSQL connection string: %w", err))
	}
	cfg.User = creds.Username
	cfg.Password = creds.Password
	if req.Database != "" {
		cfg.Database = req.Database
	}
	if c.connectTimeout > 0 {
		cfg.ConnectTimeout = c.connectTimeout
	}
	if cfg.RuntimeParams == nil {
		cfg.RuntimeParams = map[string]string{}
	}
	cfg.RuntimeParams["application_name"] = appName
	if c.logger != nil {
		logger := c.logger
		cfg.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
			logger.Verbose("%s: %s", notice.Severity, notice.Message)
		}
		logger.Verbose("Connecting to %s:%d/%s as %s", cfg.Host, cfg.Port, cfg.Database, creds.Username)
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, wrapPgError("connect", err)
	}
	return &pgSession{conn: conn}, nil
}

type pgSession struct {
	conn *pgx.Conn
}

// Collection ignores database: a PostgreSQL connection is bound to the
// database it was opened against.
func (s *pgSession) Collection(_ string, name string) credprobe.Collection {
	return &pgTable{conn: s.conn, ident: pgx.Identifier{name}.Sanitize()}
}

func (s *pgSession) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

type pgTable struct {
	conn  *pgx.Conn
	ident string
}

func (t *pgTable) InsertOne(ctx context.Context, doc credprobe.Document) error {
	if _, err := t.conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+t.ident+` (
	id         uuid PRIMARY KEY,
	doc        jsonb NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
)`); err != nil {
		return wrapPgError("insert", err)
	}

	_, err := t.conn.Exec(ctx, `INSERT INTO `+t.ident+` (id, doc) VALUES ($1, $2)`, uuid.New(), map[string]any(doc))
	return wrapPgError("insert", err)
}

func (t *pgTable) FindOne(ctx context.Context) (credprobe.Document, error) {
	var doc map[string]any
	err := t.conn.QueryRow(ctx, `SELECT doc FROM `+t.ident+` ORDER BY created_at LIMIT 1`).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapPgError("find", err)
	}
	return credprobe.Document(doc), nil
}

func (t *pgTable) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := t.conn.Exec(ctx, `DELETE FROM `+t.ident)
	if err != nil {
		return 0, wrapPgError("delete", err)
	}
	return tag.RowsAffected(), nil
}

func wrapPgError(op string, err error) error {
	if err == nil {
		return nil
	}
	return credprobe.NewDatabaseError(op, pgErrorCode(err), withHint(err))
}

// pgErrorCode returns the SQLSTATE carried by err. Connect failures wrap the
// server's error in a *pgconn.ConnectError, which errors.As unwraps.
func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
