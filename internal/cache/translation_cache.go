package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"codecollab-backend/internal/model"
)

// Fingerprint derives the deterministic cache key for one translation:
// sha256 over "text:targetLocale:roomId:clientId". The transient connection
// id is deliberately not an input, so entries survive reconnects.
func Fingerprint(text, targetLocale, roomID, clientID string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s:%s", text, targetLocale, roomID, clientID)))
	return hex.EncodeToString(sum[:])
}

// Store is the translation memo table consulted before any provider call.
type Store interface {
	Get(ctx context.Context, fingerprint string) (*model.TranslationEntry, bool)
	Put(ctx context.Context, entry *model.TranslationEntry) error
	History(ctx context.Context, roomID, clientID string) ([]model.TranslationEntry, error)
}

// TranslationCache layers an in-process memo and Redis in front of the
// durable Postgres table. Puts are idempotent: the fingerprint is unique and
// duplicate inserts are dropped.
type TranslationCache struct {
	l1    *gocache.Cache
	redis *redis.Client
	db    *gorm.DB
	ttl   time.Duration
	log   *zap.SugaredLogger
}

// NewTranslationCache builds the three-tier cache. redisClient may be nil;
// the cache then runs on the in-process and durable tiers only.
func NewTranslationCache(redisClient *redis.Client, db *gorm.DB, ttl time.Duration, log *zap.SugaredLogger) *TranslationCache {
	return &TranslationCache{
		l1:    gocache.New(5*time.Minute, 10*time.Minute),
		redis: redisClient,
		db:    db,
		ttl:   ttl,
		log:   log,
	}
}

// NewRedisClient connects to Redis and verifies the connection before the
// cache starts using it.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

func redisKey(fingerprint string) string {
	return "translation:" + fingerprint
}

// Get returns the cached entry for a fingerprint, checking the in-process
// tier, then Redis, then Postgres. Hits are promoted into the faster tiers.
func (c *TranslationCache) Get(ctx context.Context, fingerprint string) (*model.TranslationEntry, bool) {
	if v, ok := c.l1.Get(fingerprint); ok {
		if entry, ok := v.(*model.TranslationEntry); ok {
			return entry, true
		}
	}

	if c.redis != nil {
		val, err := c.redis.Get(ctx, redisKey(fingerprint)).Result()
		if err == nil {
			var entry model.TranslationEntry
			if jsonErr := json.Unmarshal([]byte(val), &entry); jsonErr == nil {
				c.l1.Set(fingerprint, &entry, gocache.DefaultExpiration)
				return &entry, true
			}
		} else if !errors.Is(err, redis.Nil) {
			c.log.Warnf("[TranslationCache] Redis get failed: %v", err)
		}
	}

	if c.db != nil {
		var entry model.TranslationEntry
		err := c.db.WithContext(ctx).Where("fingerprint = ?", fingerprint).First(&entry).Error
		if err == nil {
			c.promote(ctx, &entry)
			return &entry, true
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.log.Warnf("[TranslationCache] DB get failed: %v", err)
		}
	}

	return nil, false
}

// Put stores the entry in all tiers. Concurrent puts for the same fingerprint
// are tolerated; the durable insert is first-writer-wins.
func (c *TranslationCache) Put(ctx context.Context, entry *model.TranslationEntry) error {
	if c.db != nil {
		err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fingerprint"}},
			DoNothing: true,
		}).Create(entry).Error
		if err != nil {
			return fmt.Errorf("persist translation: %w", err)
		}
	}

	c.promote(ctx, entry)
	return nil
}

func (c *TranslationCache) promote(ctx context.Context, entry *model.TranslationEntry) {
	c.l1.Set(entry.Fingerprint, entry, gocache.DefaultExpiration)

	if c.redis != nil {
		data, err := json.Marshal(entry)
		if err != nil {
			return
		}
		if err := c.redis.Set(ctx, redisKey(entry.Fingerprint), data, c.ttl).Err(); err != nil {
			c.log.Warnf("[TranslationCache] Redis set failed: %v", err)
		}
	}
}

// History lists past translations computed for a (room, client) pair, oldest
// first.
func (c *TranslationCache) History(ctx context.Context, roomID, clientID string) ([]model.TranslationEntry, error) {
	if c.db == nil {
		return nil, nil
	}
	var entries []model.TranslationEntry
	err := c.db.WithContext(ctx).
		Where("room_id = ? AND client_id = ?", roomID, clientID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("translation history: %w", err)
	}
	return entries, nil
}

// Health pings the Redis tier.
func (c *TranslationCache) Health(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Ping(ctx).Err()
}
