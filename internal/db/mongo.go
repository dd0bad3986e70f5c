package db

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver"

	"github.com/vvka-141/credprobe/pkg/credprobe"
)

const appName = "credprobe"

// MongoConnector opens MongoDB sessions with SCRAM credentials supplied per
// attempt. Credentials embedded in the URL are replaced.
//
// The driver authenticates lazily, so an authentication failure usually
// surfaces on the first insert rather than from Connect.
type MongoConnector struct {
	connectTimeout time.Duration
	logger         credprobe.Logger
}

var _ credprobe.Connector = (*MongoConnector)(nil)

func (c *MongoConnector) String() string {
	return "MongoDB driver"
}

// Connect builds a client for req.URL that authenticates as creds against
// req.AuthDatabase.
func (c *MongoConnector) Connect(ctx context.Context, req credprobe.Request, creds credprobe.CredentialPair) (credprobe.Session, error) {
	opts := options.Client().
		ApplyURI(req.URL).
		SetAppName(appName).
		SetConnectTimeout(c.connectTimeout).
		SetServerSelectionTimeout(c.connectTimeout).
		SetRetryWrites(false).
		SetAuth(options.Credential{
			Username:   creds.Username,
			Password:   creds.Password,
			AuthSource: req.AuthDatabase,
		})

	if c.logger != nil {
		c.logger.Verbose("Connecting to %s as %s (auth database %q)", RedactURL(req.URL), creds.Username, req.AuthDatabase)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, wrapMongoError("connect", err)
	}
	return &mongoSession{client: client}, nil
}

type mongoSession struct {
	client *mongo.Client
}

func (s *mongoSession) Collection(database, name string) credprobe.Collection {
	return &mongoCollection{coll: s.client.Database(database).Collection(name)}
}

func (s *mongoSession) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type mongoCollection struct {
	coll *mongo.Collection
}

func (c *mongoCollection) InsertOne(ctx context.Context, doc credprobe.Document) error {
	_, err := c.coll.InsertOne(ctx, bson.M(doc))
	return wrapMongoError("insert", err)
}

func (c *mongoCollection) FindOne(ctx context.Context) (credprobe.Document, error) {
	var out bson.M
	err := c.coll.FindOne(ctx, bson.D{}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapMongoError("find", err)
	}
	return credprobe.Document(out), nil
}

func (c *mongoCollection) DeleteAll(ctx context.Context) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, wrapMongoError("delete", err)
	}
	return res.DeletedCount, nil
}

func wrapMongoError(op string, err error) error {
	if err == nil {
		return nil
	}
	return credprobe.NewDatabaseError(op, mongoErrorCode(err), withHint(err))
}

// mongoErrorCode extracts the server error code from err. Handshake
// authentication failures arrive wrapped in connection errors, so the chain
// is searched for a driver.Error as a last resort.
func mongoErrorCode(err error) string {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code != 0 {
		return strconv.Itoa(int(cmdErr.Code))
	}

	var writeEx mongo.WriteException
	if errors.As(err, &writeEx) {
		if len(writeEx.WriteErrors) > 0 {
			return strconv.Itoa(writeEx.WriteErrors[0].Code)
		}
		if writeEx.WriteConcernError != nil {
			return strconv.Itoa(writeEx.WriteConcernError.Code)
		}
	}

	var drvErr driver.Error
	if errors.As(err, &drvErr) && drvErr.Code != 0 {
		return strconv.Itoa(int(drvErr.Code))
	}
	return ""
}
