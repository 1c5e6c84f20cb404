package service

import (
	"context"
	"sync"

	"tubevault/internal/model"
	"tubevault/internal/storage"
	"tubevault/pkg/logger"

	"go.uber.org/zap"
)

// BudgetService bounds the total bytes stored under the library root.
// Usage is primed from the store on startup and tracked incrementally as
// downloads complete; a clear resets it.
type BudgetService struct {
	cfg       *model.DiskBudgetConfig
	mu        sync.Mutex
	usedBytes int64
}

// NewBudgetService creates a disk budget service primed from the store
func NewBudgetService(cfg *model.DiskBudgetConfig, store *storage.Store) *BudgetService {
	bs := &BudgetService{cfg: cfg}

	if cfg.Enabled {
		used, err := store.TotalSize(context.Background())
		if err != nil {
			logger.LogWarn("Could not prime disk budget from store", zap.Error(err))
		} else {
			bs.usedBytes = used
		}
		logger.LogInfo("Disk budget enabled",
			zap.Int64("used_bytes", bs.usedBytes),
			zap.Int64("limit_mb", cfg.MaxLibraryMB))
	}

	return bs
}

// HasCapacity reports whether a new download may start
func (bs *BudgetService) HasCapacity() bool {
	if !bs.cfg.Enabled {
		return true
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.usedBytes < bs.cfg.MaxLibraryMB*1024*1024
}

// AddUsage records bytes written by a completed download
func (bs *BudgetService) AddUsage(bytes int64) {
	if !bs.cfg.Enabled {
		return
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.usedBytes += bytes

	logger.LogDebug("Disk budget usage updated",
		zap.Int64("used_bytes", bs.usedBytes),
		zap.Int64("limit_mb", bs.cfg.MaxLibraryMB))
}

// Reset clears tracked usage, called after history is cleared
func (bs *BudgetService) Reset() {
	if !bs.cfg.Enabled {
		return
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.usedBytes = 0
}

// UsedBytes returns the tracked usage
func (bs *BudgetService) UsedBytes() int64 {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.usedBytes
}
