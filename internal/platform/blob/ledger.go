// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// OrphanLedger remembers object keys that may no longer be referenced by
// any catalog row.
type OrphanLedger interface {
	// Record adds keys with the current time. Re-recording a key refreshes its time.
	Record(context context.Context, keys ...string) error

	// Due returns up to limit keys recorded before cutoff.
	Due(context context.Context, cutoff time.Time, limit int64) ([]string, error)

	// Resolve removes keys from the ledger.
	Resolve(context context.Context, keys ...string) error
}

// # Redis Ledger

// RedisLedger stores orphans in a sorted set scored by record time, so the
// ledger survives restarts and is shared by every API replica.
type RedisLedger struct {
	client *redis.Client
	key    string
}

// NewRedisLedger returns a ledger backed by the sorted set at key.
func NewRedisLedger(client *redis.Client, key string) *RedisLedger {
	return &RedisLedger{client: client, key: key}
}

// Record implements [OrphanLedger].
func (ledger *RedisLedger) Record(context context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	score := float64(time.Now().Unix())
	members := make([]redis.Z, 0, len(keys))
	for _, key := range keys {
		members = append(members, redis.Z{Score: score, Member: key})
	}

	if err := ledger.client.ZAdd(context, ledger.key, members...).Err(); err != nil {
		return fmt.Errorf("blob: record orphans: %w", err)
	}
	return nil
}

// Due implements [OrphanLedger].
func (ledger *RedisLedger) Due(context context.Context, cutoff time.Time, limit int64) ([]string, error) {
	keys, err := ledger.client.ZRangeByScore(context, ledger.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(cutoff.Unix(), 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("blob: list orphans: %w", err)
	}
	return keys, nil
}

// Resolve implements [OrphanLedger].
func (ledger *RedisLedger) Resolve(context context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	members := make([]any, 0, len(keys))
	for _, key := range keys {
		members = append(members, key)
	}

	if err := ledger.client.ZRem(context, ledger.key, members...).Err(); err != nil {
		return fmt.Errorf("blob: resolve orphans: %w", err)
	}
	return nil
}

// # In-Memory Ledger

// MemoryLedger is a process-local ledger used when Redis is not configured.
// Entries are lost on restart.
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryLedger returns an empty process-local ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]time.Time), now: time.Now}
}

// Record implements [OrphanLedger].
func (ledger *MemoryLedger) Record(_ context.Context, keys ...string) error {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()

	for _, key := range keys {
		ledger.entries[key] = ledger.now()
	}
	return nil
}

// Due implements [OrphanLedger].
func (ledger *MemoryLedger) Due(_ context.Context, cutoff time.Time, limit int64) ([]string, error) {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()

	var keys []string
	for key, recorded := range ledger.entries {
		if int64(len(keys)) >= limit {
			break
		}
		if !recorded.After(cutoff) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Resolve implements [OrphanLedger].
func (ledger *MemoryLedger) Resolve(_ context.Context, keys ...string) error {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()

	for _, key := range keys {
		delete(ledger.entries, key)
	}
	return nil
}

// Len returns the number of pending entries.
func (ledger *MemoryLedger) Len() int {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()
	return len(ledger.entries)
}
