package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// EmbeddingCache is a persistent embedding.Cache backed by SQLite.
type EmbeddingCache struct {
	db  *DB
	enc *zstd.Encoder
	dec *zstd.Decoder
	now func() time.Time
}

// CacheStats summarises the cache contents.
type CacheStats struct {
	Path       string         `json:"path"`
	Entries    int            `json:"entries"`
	Bytes      int64          `json:"bytes"`
	ByProvider map[string]int `json:"byProvider"`
	OldestUse  time.Time      `json:"oldestUse,omitempty"`
	NewestUse  time.Time      `json:"newestUse,omitempty"`
}

// NewEmbeddingCache creates a cache on an open database.
func NewEmbeddingCache(db *DB) (*EmbeddingCache, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &EmbeddingCache{db: db, enc: enc, dec: dec, now: time.Now}, nil
}

// Close releases the codecs. The database stays open.
func (c *EmbeddingCache) Close() {
	c.enc.Close()
	c.dec.Close()
}

// Get returns the vector stored under key and marks it as used.
func (c *EmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	var (
		blob []byte
		dim  int
	)
	err := c.db.conn.QueryRowContext(ctx, `
		SELECT vector, dimension FROM embeddings WHERE key = ?
	`, key).Scan(&blob, &dim)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("embedding cache lookup failed: %w", err)
	}

	vec, err := c.decode(blob, dim)
	if err != nil {
		// A corrupt row is a miss; drop it so the next run rewrites it.
		c.db.logger.Warn("Dropping unreadable cache entry", "key", key, "error", err.Error())
		_ = c.Invalidate(ctx, key)
		return nil, false, nil
	}

	if _, err := c.db.conn.ExecContext(ctx, `
		UPDATE embeddings SET last_used_at = ? WHERE key = ?
	`, c.stamp(), key); err != nil {
		c.db.logger.Debug("Failed to touch cache entry", "key", key, "error", err.Error())
	}
	return vec, true, nil
}

// Put stores vec under key, replacing any previous entry.
func (c *EmbeddingCache) Put(ctx context.Context, key string, vec []float32) error {
	now := c.stamp()
	_, err := c.db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO embeddings (key, provider, dimension, vector, created_at, last_used_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, key, providerOf(key), len(vec), c.encode(vec), now, now)
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	return nil
}

// Invalidate removes one entry.
func (c *EmbeddingCache) Invalidate(ctx context.Context, key string) error {
	if _, err := c.db.conn.ExecContext(ctx, "DELETE FROM embeddings WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to invalidate embedding: %w", err)
	}
	return nil
}

// Clear removes every entry.
func (c *EmbeddingCache) Clear(ctx context.Context) error {
	if _, err := c.db.conn.ExecContext(ctx, "DELETE FROM embeddings"); err != nil {
		return fmt.Errorf("failed to clear embedding cache: %w", err)
	}
	return nil
}

// Prune removes entries not used within olderThan and returns how many
// were removed.
func (c *EmbeddingCache) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := c.now().Add(-olderThan).UTC().Format(time.RFC3339)
	res, err := c.db.conn.ExecContext(ctx, "DELETE FROM embeddings WHERE last_used_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune embedding cache: %w", err)
	}
	return res.RowsAffected()
}

// Stats reports entry counts and sizes.
func (c *EmbeddingCache) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{Path: c.db.Path(), ByProvider: make(map[string]int)}

	rows, err := c.db.conn.QueryContext(ctx, `
		SELECT provider, COUNT(*), COALESCE(SUM(LENGTH(vector)), 0)
		FROM embeddings GROUP BY provider
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache stats: %w", err)
	}
	for rows.Next() {
		var (
			provider string
			count    int
			size     int64
		)
		if err := rows.Scan(&provider, &count, &size); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByProvider[provider] = count
		stats.Entries += count
		stats.Bytes += size
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if stats.Entries == 0 {
		return stats, nil
	}

	var oldest, newest string
	if err := c.db.conn.QueryRowContext(ctx, `
		SELECT MIN(last_used_at), MAX(last_used_at) FROM embeddings
	`).Scan(&oldest, &newest); err != nil {
		return nil, fmt.Errorf("failed to read cache stats: %w", err)
	}
	stats.OldestUse, _ = time.Parse(time.RFC3339, oldest)
	stats.NewestUse, _ = time.Parse(time.RFC3339, newest)
	return stats, nil
}

func (c *EmbeddingCache) stamp() string {
	return c.now().UTC().Format(time.RFC3339)
}

func (c *EmbeddingCache) encode(vec []float32) []byte {
	raw := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}
	return c.enc.EncodeAll(raw, nil)
}

func (c *EmbeddingCache) decode(blob []byte, dim int) ([]float32, error) {
	raw, err := c.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, err
	}
	if len(raw) != 4*dim {
		return nil, fmt.Errorf("vector has %d bytes, want %d", len(raw), 4*dim)
	}
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return vec, nil
}

// providerOf extracts the provider prefix of a content key.
func providerOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "unknown"
}
