package fakes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/credprobe/pkg/credprobe"
)

func TestConnector_ScriptAppliesPerAttempt(t *testing.T) {
	ctx := context.Background()
	c := NewConnector(AuthFailure("connect", "18"), AuthFailure("insert", "8000"))
	creds := credprobe.CredentialPair{Username: "u", Password: "p"}

	_, err := c.Connect(ctx, credprobe.Request{}, creds)
	assertCode(t, "18", err)

	s, err := c.Connect(ctx, credprobe.Request{}, creds)
	require.NoError(t, err)
	err = s.Collection("db", "coll").InsertOne(ctx, credprobe.Document{"a": 1})
	assertCode(t, "8000", err)
	require.NoError(t, s.Close(ctx))

	s, err = c.Connect(ctx, credprobe.Request{}, creds)
	require.NoError(t, err)
	coll := s.Collection("db", "coll")
	require.NoError(t, coll.InsertOne(ctx, credprobe.Document{"a": 1}))
	doc, err := coll.FindOne(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, doc["a"])

	assert.Equal(t, 3, c.Connects())
	assert.Equal(t, 1, c.Closes())
	assert.Len(t, c.Credentials(), 3)
}

func TestConnector_AlwaysOverridesScript(t *testing.T) {
	c := NewConnector()
	c.Always = FatalFailure("find", "13", "not authorized")

	s, err := c.Connect(context.Background(), credprobe.Request{}, credprobe.CredentialPair{})
	require.NoError(t, err)
	_, err = s.Collection("db", "coll").FindOne(context.Background())

	assertCode(t, "13", err)
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	c := NewConnector()
	s, err := c.Connect(context.Background(), credprobe.Request{}, credprobe.CredentialPair{})
	require.NoError(t, err)

	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))

	assert.Equal(t, 1, c.Closes())
}

func TestCollection_DeleteAllClearsSeededDocuments(t *testing.T) {
	c := NewConnector()
	c.Store.Seed("db", "coll", credprobe.Document{"old": true}, credprobe.Document{"old": true})
	s, err := c.Connect(context.Background(), credprobe.Request{}, credprobe.CredentialPair{})
	require.NoError(t, err)

	n, err := s.Collection("db", "coll").DeleteAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 0, c.Store.Count("db", "coll"))
}

func assertCode(t *testing.T, want string, err error) {
	t.Helper()
	code, ok := credprobe.CodeOf(err)
	require.True(t, ok, "expected a DatabaseError, got %v", err)
	assert.Equal(t, want, code)
}
