package memory

import (
	"context"
	"sync"

	"github.com/leafsii/georef/internal/db/interfaces"
)

// transaction restores a snapshot of every table on rollback
type transaction struct {
	mu         sync.Mutex
	db         *Database
	snapshot   map[string]map[string]interfaces.Row
	committed  bool
	rolledBack bool
}

func newTransaction(db *Database) *transaction {
	db.mu.RLock()
	snap := db.snapshot()
	db.mu.RUnlock()

	return &transaction{db: db, snapshot: snap}
}

func (tx *transaction) commit(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.committed || tx.rolledBack {
		return interfaces.ErrTransactionCompleted
	}
	tx.committed = true
	return nil
}

func (tx *transaction) rollback(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.committed || tx.rolledBack {
		return interfaces.ErrTransactionCompleted
	}

	tx.db.mu.Lock()
	tx.db.tables = tx.snapshot
	tx.db.mu.Unlock()

	tx.rolledBack = true
	return nil
}

func (tx *transaction) completed() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	return tx.committed || tx.rolledBack
}
