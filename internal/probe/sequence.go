package probe

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vvka-141/credprobe/pkg/credprobe"
)

var errNothingReadBack = errors.New("probe read back no document")

// NewMarker builds the document the probe inserts.
func NewMarker(now time.Time) credprobe.Document {
	return credprobe.Document{
		"a":          1,
		"probe_id":   uuid.NewString(),
		"created_at": now.UTC(),
	}
}

// Exercise runs the probe against coll: insert one marker, read one document
// back, then delete every document in the collection. The cleanup removes
// leftovers from earlier runs too, so repeated successful runs leave the
// collection empty.
func Exercise(ctx context.Context, coll credprobe.Collection, marker credprobe.Document) (credprobe.Document, error) {
	if err := coll.InsertOne(ctx, marker); err != nil {
		return nil, err
	}

	doc, err := coll.FindOne(ctx)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, credprobe.NewDatabaseError("find", "", errNothingReadBack)
	}

	if _, err := coll.DeleteAll(ctx); err != nil {
		return nil, err
	}
	return doc, nil
}
