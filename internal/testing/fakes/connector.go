// Package fakes provides in-memory doubles for the secrets and database
// collaborators. The condition they exist for, a freshly provisioned user
// being rejected for a few seconds, cannot be triggered on demand against a
// real deployment.
package fakes

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vvka-141/credprobe/pkg/credprobe"
)

// Failure injects an error into one attempt at the named step.
// Op is one of "connect", "insert", "find", "delete".
type Failure struct {
	Op  string
	Err error
}

// AuthFailure builds a Failure carrying a driver authentication code.
func AuthFailure(op, code string) *Failure {
	return &Failure{
		Op:  op,
		Err: credprobe.NewDatabaseError(op, code, errors.New("Authentication failed.")),
	}
}

// FatalFailure builds a Failure carrying a non-authentication code.
func FatalFailure(op, code, msg string) *Failure {
	return &Failure{
		Op:  op,
		Err: credprobe.NewDatabaseError(op, code, errors.New(msg)),
	}
}

// Connector is a scripted credprobe.Connector backed by a Store.
//
// Script[i] is applied to attempt i+1; a nil entry or an attempt past the end
// of the script succeeds. Always, when set, applies to every attempt and
// overrides Script.
type Connector struct {
	Store  *Store
	Script []*Failure
	Always *Failure

	mu       sync.Mutex
	connects int
	closes   int
	creds    []credprobe.CredentialPair
	requests []credprobe.Request
}

var _ credprobe.Connector = (*Connector)(nil)

// NewConnector creates a connector with an empty store and the given script.
func NewConnector(script ...*Failure) *Connector {
	return &Connector{Store: NewStore(), Script: script}
}

func (c *Connector) Connect(_ context.Context, req credprobe.Request, creds credprobe.CredentialPair) (credprobe.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connects++
	c.creds = append(c.creds, creds)
	c.requests = append(c.requests, req)

	failure := c.failureFor(c.connects)
	if failure != nil && failure.Op == "connect" {
		return nil, failure.Err
	}
	if c.Store == nil {
		c.Store = NewStore()
	}
	return &session{connector: c, failure: failure}, nil
}

func (c *Connector) String() string {
	return "FakeConnector"
}

func (c *Connector) failureFor(attempt int) *Failure {
	if c.Always != nil {
		return c.Always
	}
	if attempt-1 < len(c.Script) {
		return c.Script[attempt-1]
	}
	return nil
}

// Connects returns how many sessions were requested.
func (c *Connector) Connects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects
}

// Closes returns how many sessions were closed.
func (c *Connector) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

// Credentials returns the credential passed to each Connect call.
func (c *Connector) Credentials() []credprobe.CredentialPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]credprobe.CredentialPair(nil), c.creds...)
}

// Requests returns the request passed to each Connect call.
func (c *Connector) Requests() []credprobe.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]credprobe.Request(nil), c.requests...)
}

type session struct {
	connector *Connector
	failure   *Failure
	closed    bool
}

func (s *session) Collection(database, name string) credprobe.Collection {
	return &collection{
		store:   s.connector.Store,
		key:     fmt.Sprintf("%s.%s", database, name),
		failure: s.failure,
	}
}

func (s *session) Close(context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.connector.mu.Lock()
	s.connector.closes++
	s.connector.mu.Unlock()
	return nil
}

type collection struct {
	store   *Store
	key     string
	failure *Failure
}

func (c *collection) fail(op string) error {
	if c.failure != nil && c.failure.Op == op {
		return c.failure.Err
	}
	return nil
}

func (c *collection) InsertOne(_ context.Context, doc credprobe.Document) error {
	if err := c.fail("insert"); err != nil {
		return err
	}
	c.store.insert(c.key, doc)
	return nil
}

func (c *collection) FindOne(context.Context) (credprobe.Document, error) {
	if err := c.fail("find"); err != nil {
		return nil, err
	}
	return c.store.first(c.key), nil
}

func (c *collection) DeleteAll(context.Context) (int64, error) {
	if err := c.fail("delete"); err != nil {
		return 0, err
	}
	return c.store.clear(c.key), nil
}
