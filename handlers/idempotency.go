package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Idempotency middleware
// ===========================================================================
//
// Appending a site is not idempotent, so a retried POST would add the same
// site twice. POST requests must carry an Idempotency-Key header; a key can
// be used once until it expires.

const IdempotencyKeyHeader = "Idempotency-Key"

type IdempotencyStoreType int

const (
	IdempotencyStoreTypeLocal IdempotencyStoreType = iota
	IdempotencyStoreTypeShared
	IdempotencyStoreTypeRedis
)

func (ist IdempotencyStoreType) String() string {
	return [...]string{"local", "shared", "redis"}[ist]
}

type IdempotencyHandlerOptions struct {
	IgnorePaths []string
	// Paths ending in any of these are exempt under every api version.
	IgnoreSuffixes []string
	Expiry         time.Duration
}

type IdempotencyStore interface {
	// Claim records key until expiry. It returns false when key is already
	// recorded and not yet expired.
	Claim(key string, expiry time.Duration) (bool, error)
}

// Redis store for idempotency keys
type IdempotencyStoreRedis struct {
	mu     sync.Mutex // redis.Conn is not safe for concurrent use
	conn   redis.Conn
	prefix string
}

func NewIdempotencyStoreRedis(c redis.Conn) *IdempotencyStoreRedis {
	return &IdempotencyStoreRedis{conn: c, prefix: "idempotencykey"}
}

func (r *IdempotencyStoreRedis) Claim(key string, expiry time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// SET NX replies nil when the key already exists.
	_, err := redis.String(r.conn.Do("SET", fmt.Sprintf("%s:%s", r.prefix, key), 1, "PX", expiry.Milliseconds(), "NX"))
	if errors.Is(err, redis.ErrNil) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

// Gorm (SQL) store for idempotency keys, sharing the settings database
type IdempotencyStoreGorm struct {
	db *gorm.DB
}

type IdempotencyStoreGormItem struct {
	Key        string    `gorm:"column:key;primaryKey;size:255"`
	ExpiryDate time.Time `gorm:"column:expiry_date;index"`
}

func (IdempotencyStoreGormItem) TableName() string {
	return "idempotency_keys"
}

func NewIdempotencyStoreGorm(db *gorm.DB) *IdempotencyStoreGorm {
	return &IdempotencyStoreGorm{db: db}
}

func (g *IdempotencyStoreGorm) Claim(key string, expiry time.Duration) (bool, error) {
	claimed := false

	err := g.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		item := IdempotencyStoreGormItem{}
		err := tx.Where(&IdempotencyStoreGormItem{Key: key}).First(&item).Error
		if err == nil && item.ExpiryDate.After(now) {
			return nil
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		claimed = true
		return tx.Save(&IdempotencyStoreGormItem{Key: key, ExpiryDate: now.Add(expiry)}).Error
	})

	if err != nil {
		return false, err
	}

	return claimed, nil
}

// Prune deletes all expired keys.
func (g *IdempotencyStoreGorm) Prune() error {
	return g.db.Where("expiry_date < ?", time.Now()).Delete(&IdempotencyStoreGormItem{}).Error
}

// Local / in-memory store for idempotency keys
type IdempotencyStoreLocal struct {
	mu   sync.Mutex
	keys map[string]time.Time // key: expiry
}

func NewIdempotencyStoreLocal() *IdempotencyStoreLocal {
	return &IdempotencyStoreLocal{keys: make(map[string]time.Time)}
}

func (m *IdempotencyStoreLocal) Claim(key string, expiry time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if dl, ok := m.keys[key]; ok && dl.After(now) {
		return false, nil
	}

	m.keys[key] = now.Add(expiry)
	return true, nil
}

// UseIdempotency rejects POST requests without an unused idempotency key.
func UseIdempotency(h http.Handler, opts IdempotencyHandlerOptions, store IdempotencyStore) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			h.ServeHTTP(rw, r)
			return
		}

		for _, path := range opts.IgnorePaths {
			if strings.HasPrefix(r.URL.Path, path) {
				h.ServeHTTP(rw, r)
				return
			}
		}

		for _, suffix := range opts.IgnoreSuffixes {
			if strings.HasSuffix(r.URL.Path, suffix) {
				h.ServeHTTP(rw, r)
				return
			}
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			http.Error(rw, "Idempotency-Key header not found", http.StatusBadRequest)
			return
		}

		claimed, err := store.Claim(key, opts.Expiry)
		if err != nil {
			log.
				WithFields(log.Fields{"error": err, "key": key}).
				Warn("Error while claiming idempotency key")
			http.Error(rw, "Error while claiming idempotency key", http.StatusInternalServerError)
			return
		}

		if !claimed {
			http.Error(rw, fmt.Sprintf("Idempotency-Key conflict, key: %s", key), http.StatusConflict)
			return
		}

		h.ServeHTTP(rw, r)
	})
}
