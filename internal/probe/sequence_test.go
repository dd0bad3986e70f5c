package probe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/credprobe/internal/testing/fakes"
	"github.com/vvka-141/credprobe/pkg/credprobe"
)

func openCollection(t *testing.T, conn *fakes.Connector) credprobe.Collection {
	t.Helper()
	session, err := conn.Connect(context.Background(), credprobe.Request{}, credprobe.CredentialPair{Username: "u", Password: "p"})
	require.NoError(t, err)
	t.Cleanup(func() { session.Close(context.Background()) })
	return session.Collection("testdb", "mycoll")
}

func TestNewMarker(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	marker := NewMarker(now)

	assert.Equal(t, 1, marker["a"])
	assert.Equal(t, now.UTC(), marker["created_at"])
	assert.NotEmpty(t, marker["probe_id"])
	assert.NotEqual(t, marker["probe_id"], NewMarker(now)["probe_id"])
}

func TestExercise_ReadsBackAndCleansUp(t *testing.T) {
	conn := fakes.NewConnector()
	coll := openCollection(t, conn)

	marker := credprobe.Document{"a": 1, "probe_id": "p-1"}
	doc, err := Exercise(context.Background(), coll, marker)

	require.NoError(t, err)
	assert.Equal(t, "p-1", doc["probe_id"])
	assert.Equal(t, 0, conn.Store.Count("testdb", "mycoll"))
}

func TestExercise_RemovesPreexistingDocuments(t *testing.T) {
	conn := fakes.NewConnector()
	conn.Store.Seed("testdb", "mycoll", credprobe.Document{"leftover": true}, credprobe.Document{"leftover": true})
	coll := openCollection(t, conn)

	doc, err := Exercise(context.Background(), coll, credprobe.Document{"a": 1})

	require.NoError(t, err)
	// find_one returns whatever is first, which may be an older document
	assert.Equal(t, true, doc["leftover"])
	assert.Equal(t, 0, conn.Store.Count("testdb", "mycoll"))
}

func TestExercise_Idempotent(t *testing.T) {
	conn := fakes.NewConnector()

	for i := 0; i < 3; i++ {
		coll := openCollection(t, conn)
		_, err := Exercise(context.Background(), coll, NewMarker(time.Now()))
		require.NoError(t, err)
		assert.Equal(t, 0, conn.Store.Count("testdb", "mycoll"), "run %d left documents behind", i+1)
	}
}

func TestExercise_StepFailures(t *testing.T) {
	for _, op := range []string{"insert", "find", "delete"} {
		t.Run(op, func(t *testing.T) {
			conn := fakes.NewConnector(fakes.FatalFailure(op, "13", "not authorized"))
			coll := openCollection(t, conn)

			doc, err := Exercise(context.Background(), coll, credprobe.Document{"a": 1})

			assert.Nil(t, doc)
			var dbErr *credprobe.DatabaseError
			require.ErrorAs(t, err, &dbErr)
			assert.Equal(t, op, dbErr.Op)
			assert.Equal(t, "13", dbErr.Code)
		})
	}
}

type emptyCollection struct{}

func (emptyCollection) InsertOne(context.Context, credprobe.Document) error { return nil }

func (emptyCollection) FindOne(context.Context) (credprobe.Document, error) { return nil, nil }

func (emptyCollection) DeleteAll(context.Context) (int64, error) { return 0, nil }

func TestExercise_NothingReadBackIsFatal(t *testing.T) {
	_, err := Exercise(context.Background(), emptyCollection{}, credprobe.Document{"a": 1})

	assert.ErrorIs(t, err, errNothingReadBack)
	_, hasCode := credprobe.CodeOf(err)
	assert.False(t, hasCode)
}
