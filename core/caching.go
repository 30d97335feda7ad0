package core

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/huangsam/perfhist/internal/contract"
	"github.com/huangsam/perfhist/schema"
	"github.com/klauspost/compress/zstd"
)

// currentCacheVersion defines the version of the cached run encoding.
const currentCacheVersion = 1

// cacheMaxAge is how long a cached run stays valid.
const cacheMaxAge = 7 * 24 * time.Hour

// Shared zstd codec. Encoder and Decoder are safe for concurrent EncodeAll/DecodeAll.
var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

// initCodec lazily builds the zstd encoder and decoder.
func initCodec() error {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if codecErr != nil {
			codecErr = fmt.Errorf("failed to create encoder: %w", codecErr)
			return
		}
		decoder, codecErr = zstd.NewReader(nil)
		if codecErr != nil {
			codecErr = fmt.Errorf("failed to create decoder: %w", codecErr)
		}
	})
	return codecErr
}

// encodeRun serializes and compresses a run for the parse cache.
func encodeRun(run *schema.Run) ([]byte, error) {
	if err := initCodec(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(run)
	if err != nil {
		return nil, err
	}
	return encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// decodeRun decompresses and deserializes a cached run.
func decodeRun(blob []byte) (*schema.Run, error) {
	if err := initCodec(); err != nil {
		return nil, err
	}
	data, err := decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, err
	}
	var run schema.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// cachedParseDocument parses a document, consulting the parse cache first.
// A nil store disables caching. hit reports whether the run came from the cache.
func cachedParseDocument(store contract.CacheStore, filename string, data []byte, compilerName string) (run *schema.Run, hit bool, err error) {
	if store == nil {
		run, err = ParseDocument(filename, data, compilerName)
		return run, false, err
	}

	key := generateCacheKey(filename, data, compilerName)
	if cached := checkCacheHit(store, key); cached != nil {
		return cached, true, nil
	}

	run, err = computeAndStore(store, key, filename, data, compilerName)
	return run, false, err
}

// checkCacheHit attempts to retrieve and validate a cached run.
func checkCacheHit(store contract.CacheStore, key string) *schema.Run {
	blob, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheMaxAge {
		return nil // Stale or version mismatch
	}

	run, err := decodeRun(blob)
	if err != nil {
		return nil
	}
	return run
}

// computeAndStore parses the document and stores the result in the cache.
// Documents that fail to parse are not cached.
func computeAndStore(store contract.CacheStore, key, filename string, data []byte, compilerName string) (*schema.Run, error) {
	run, err := ParseDocument(filename, data, compilerName)
	if err != nil {
		return nil, err
	}

	if blob, err := encodeRun(run); err == nil {
		if err := store.Set(key, blob, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Failed to cache parsed run", err)
		}
	}
	return run, nil
}

// generateCacheKey derives the cache key from everything that affects the parsed run.
func generateCacheKey(filename string, data []byte, compilerName string) string {
	h := sha256.New()
	h.Write([]byte(filename))
	h.Write([]byte{0})
	h.Write([]byte(compilerName))
	h.Write([]byte{0})
	h.Write(data)
	return fmt.Sprintf("%x", h.Sum(nil))
}
