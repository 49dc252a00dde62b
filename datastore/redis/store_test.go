package redis

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gomodule/redigo/redis"
	"github.com/nothingonline/nightscouter-settings/datastore"
)

// fakeConn serves HGET and HSET from a map shared by all connections.
type fakeConn struct {
	hashes map[string]map[string][]byte
	err    error // returned by the next commands
	fatal  error // marks the connection unusable
	calls  []string
}

func newFakeConn(hashes map[string]map[string][]byte) *fakeConn {
	return &fakeConn{hashes: hashes}
}

func (c *fakeConn) Close() error                               { return nil }
func (c *fakeConn) Err() error                                 { return c.fatal }
func (c *fakeConn) Send(cmd string, args ...interface{}) error { return fmt.Errorf("unexpected Send") }
func (c *fakeConn) Flush() error                               { return nil }
func (c *fakeConn) Receive() (interface{}, error)              { return nil, fmt.Errorf("unexpected Receive") }

func (c *fakeConn) Do(cmd string, args ...interface{}) (interface{}, error) {
	// The pool flushes with an empty command when a connection is released.
	if cmd == "" {
		return nil, c.fatal
	}

	c.calls = append(c.calls, cmd)
	if c.fatal != nil {
		return nil, c.fatal
	}
	if c.err != nil {
		return nil, c.err
	}

	switch cmd {
	case "HGET":
		h := c.hashes[args[0].(string)]
		v, ok := h[args[1].(string)]
		if !ok {
			return nil, nil
		}
		return v, nil
	case "HSET":
		name := args[0].(string)
		if c.hashes[name] == nil {
			c.hashes[name] = make(map[string][]byte)
		}
		added := int64(0)
		for i := 1; i+1 < len(args); i += 2 {
			field := args[i].(string)
			if _, ok := c.hashes[name][field]; !ok {
				added++
			}
			c.hashes[name][field] = args[i+1].([]byte)
		}
		return added, nil
	}

	return nil, redis.Error("ERR unknown command")
}

// newTestPool hands out conns in order, one per dial.
func newTestPool(t *testing.T, conns ...*fakeConn) (*redis.Pool, *int) {
	t.Helper()
	dials := 0
	pool := &redis.Pool{
		MaxIdle: 1,
		Dial: func() (redis.Conn, error) {
			if dials >= len(conns) {
				return nil, errors.New("no more connections")
			}
			c := conns[dials]
			dials++
			return c, nil
		},
	}
	t.Cleanup(func() { pool.Close() })
	return pool, &dials
}

func TestStoreImplementsKeyValueStore(t *testing.T) {
	var _ datastore.KeyValueStore = &Store{}
}

func TestStore(t *testing.T) {
	conn := newFakeConn(make(map[string]map[string][]byte))
	pool, _ := newTestPool(t, conn)
	store := NewStore(pool, datastore.DefaultNamespace)
	hash := "settings:" + datastore.DefaultNamespace

	if _, found, err := store.Get("userSites"); err != nil || found {
		t.Fatalf("expected key not to be found, got %t %v", found, err)
	}

	if err := store.Set("userSites", []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	if err := store.Set("currentSiteIndex", []byte(`1`)); err != nil {
		t.Fatal(err)
	}

	if v, found, _ := store.Get("currentSiteIndex"); !found || string(v) != "1" {
		t.Fatalf(`expected buffered "1", got %q`, v)
	}

	if len(conn.hashes[hash]) != 0 {
		t.Fatal("did not expect writes before synchronize")
	}

	if err := store.Synchronize(); err != nil {
		t.Fatal(err)
	}

	if string(conn.hashes[hash]["userSites"]) != "[]" || string(conn.hashes[hash]["currentSiteIndex"]) != "1" {
		t.Fatalf("unexpected hash contents %v", conn.hashes[hash])
	}

	reopened := NewStore(pool, datastore.DefaultNamespace)
	if v, found, err := reopened.Get("currentSiteIndex"); err != nil || !found || string(v) != "1" {
		t.Fatalf(`expected "1" from redis, got %q %t %v`, v, found, err)
	}

	calls := len(conn.calls)
	if err := store.Synchronize(); err != nil {
		t.Fatal(err)
	}
	if len(conn.calls) != calls {
		t.Error("did not expect a command for an empty synchronize")
	}
}

func TestSynchronizeFailure(t *testing.T) {
	conn := newFakeConn(make(map[string]map[string][]byte))
	pool, _ := newTestPool(t, conn)
	store := NewStore(pool, datastore.DefaultNamespace)

	if err := store.Set("shouldDisableIdleTimer", []byte("true")); err != nil {
		t.Fatal(err)
	}

	conn.err = errors.New("connection refused")

	if err := store.Synchronize(); err == nil {
		t.Fatal("expected synchronize to fail")
	}

	conn.err = nil

	if err := store.Synchronize(); err != nil {
		t.Fatal(err)
	}

	if v := conn.hashes["settings:"+datastore.DefaultNamespace]["shouldDisableIdleTimer"]; string(v) != "true" {
		t.Errorf(`expected pending value to survive the failure, got %q`, v)
	}
}

func TestBrokenConnectionIsReplaced(t *testing.T) {
	hashes := make(map[string]map[string][]byte)
	first := newFakeConn(hashes)
	second := newFakeConn(hashes)
	pool, dials := newTestPool(t, first, second)
	store := NewStore(pool, datastore.DefaultNamespace)

	if err := store.Set("currentSiteIndex", []byte("1")); err != nil {
		t.Fatal(err)
	}
	if err := store.Synchronize(); err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.Get("currentSiteIndex"); err != nil {
		t.Fatal(err)
	}
	if *dials != 1 {
		t.Fatalf("expected a healthy connection to be reused, got %d dials", *dials)
	}

	first.fatal = errors.New("EOF")

	if _, _, err := store.Get("currentSiteIndex"); err == nil {
		t.Fatal("expected the broken connection to fail")
	}

	v, found, err := store.Get("currentSiteIndex")
	if err != nil || !found || string(v) != "1" {
		t.Fatalf(`expected "1" over a new connection, got %q %t %v`, v, found, err)
	}
	if *dials != 2 {
		t.Errorf("expected the broken connection to be replaced, got %d dials", *dials)
	}
}

func TestNewPoolRequiresURL(t *testing.T) {
	if _, err := NewPool(""); err == nil {
		t.Error("expected an error for an empty url")
	}
}
