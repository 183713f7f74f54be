package service

import (
	"context"
	"sync"
	"time"

	"casedesk/pkg/domain"
	dErrors "casedesk/pkg/domain-errors"
)

// numCaseShards spreads per-case locks so that unrelated cases rarely
// contend while requests for one case are serialized.
const numCaseShards = 128

// defaultCaseTxTimeout is the maximum duration of one case unit of work.
const defaultCaseTxTimeout = 5 * time.Second

// ShardedTx serializes units of work per case with sharded mutexes. It is
// the TxRunner for in-memory stores.
type ShardedTx struct {
	shards  [numCaseShards]sync.Mutex
	store   Store
	timeout time.Duration
}

func NewShardedTx(store Store, timeout time.Duration) *ShardedTx {
	return &ShardedTx{store: store, timeout: timeout}
}

func (t *ShardedTx) RunInTx(ctx context.Context, id domain.CaseID, fn func(ctx context.Context, store Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultCaseTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := hashCaseID(string(id)) % numCaseShards
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx, t.store)
}

// hashCaseID is 32-bit FNV-1a.
func hashCaseID(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
