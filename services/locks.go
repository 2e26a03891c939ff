package services

import (
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
)

// SlotLockKey derives the deterministic 63-bit advisory lock key of a logical
// slot. Two transactions contesting the same (tenant, service, start) always
// request the same key; single-key transactions cannot deadlock.
func SlotLockKey(tenantID, serviceID string, slotStart time.Time) int64 {
	h := hash64(tenantID) ^ hash64(serviceID) ^ uint64(slotStart.Unix())
	return int64(h & 0x7FFFFFFFFFFFFFFF)
}

// hash64 maps an id to a 64-bit value: the first 8 hex bytes for UUIDs, an
// FNV hash otherwise
func hash64(id string) uint64 {
	hexDigits := strings.ReplaceAll(id, "-", "")
	if len(hexDigits) >= 16 {
		if v, err := strconv.ParseUint(hexDigits[:16], 16, 64); err == nil {
			return v
		}
	}
	h := fnv.New64a()
	h.Write([]byte(id))
	return h.Sum64()
}

// slotMutexes serializes slot-contending transactions in-process on dialects
// without advisory locks. SQLite is additionally single-writer under WAL, so
// the mutex plus the transaction give the same linearization the Postgres
// advisory lock provides.
var slotMutexes sync.Map // int64 -> *sync.Mutex

// WithSlotLock runs fn inside a transaction while holding the exclusive lock
// for key. On Postgres the lock is a transaction-scoped advisory lock,
// released automatically at commit or rollback.
func WithSlotLock(db *gorm.DB, key int64, fn func(tx *gorm.DB) error) error {
	if db.Dialector.Name() == "postgres" {
		return db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", key).Error; err != nil {
				return err
			}
			return fn(tx)
		})
	}

	muIface, _ := slotMutexes.LoadOrStore(key, &sync.Mutex{})
	mu := muIface.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()
	return db.Transaction(fn)
}
