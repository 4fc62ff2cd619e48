package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// Interval for cleaning up stale mutexes
	mutexCleanupInterval = 10 * time.Minute

	// How long a mutex must be unused before cleanup
	mutexStaleThreshold = 10 * time.Minute
)

// SlotLocker guards the claim critical section of one (doctor, date, slot) tuple.
// TryLock never waits: a contended tuple reports acquired=false.
type SlotLocker interface {
	TryLock(ctx context.Context, key string) (release func(), acquired bool, err error)
}

// SlotKey is the lock key of a (doctor, date, slot) tuple.
func SlotKey(doctorID uuid.UUID, date, slot string) string {
	return fmt.Sprintf("slot:lock:%s:%s:%s", doctorID, date, slot)
}

// LocalSlotLocker serializes claims inside one process.
// Call Stop() during graceful shutdown.
type LocalSlotLocker struct {
	log *logrus.Logger

	slotMu sync.Map // map[string]*mutexWithTimestamp

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// mutexWithTimestamp tracks mutex usage for cleanup
type mutexWithTimestamp struct {
	mu       sync.Mutex
	lastUsed atomic.Int64 // Unix timestamp
}

func NewLocalSlotLocker(log *logrus.Logger) *LocalSlotLocker {
	l := &LocalSlotLocker{
		log:      log,
		stopChan: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.cleanupMutexMapLoop()

	return l
}

func (l *LocalSlotLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	for {
		mt := l.getSlotMutex(key)
		if release, acquired, live := l.tryLockEntry(key, mt); live {
			return release, acquired, nil
		}
	}
}

// tryLockEntry locks mt only while it is still the map entry for key. live is
// false when cleanup removed mt after it was loaded; the caller reloads.
func (l *LocalSlotLocker) tryLockEntry(key string, mt *mutexWithTimestamp) (release func(), acquired, live bool) {
	if !mt.mu.TryLock() {
		return nil, false, l.isLive(key, mt)
	}
	if !l.isLive(key, mt) {
		mt.mu.Unlock()
		return nil, false, false
	}

	mt.lastUsed.Store(time.Now().Unix())
	var once sync.Once
	return func() { once.Do(mt.mu.Unlock) }, true, true
}

func (l *LocalSlotLocker) isLive(key string, mt *mutexWithTimestamp) bool {
	current, ok := l.slotMu.Load(key)
	return ok && current == mt
}

// Stop gracefully shuts down the cleanup loop.
// Safe to call multiple times.
func (l *LocalSlotLocker) Stop() {
	if l.stopped.CompareAndSwap(false, true) {
		close(l.stopChan)
		l.wg.Wait()
		l.log.Info("LocalSlotLocker stopped")
	}
}

func (l *LocalSlotLocker) getSlotMutex(key string) *mutexWithTimestamp {
	mt, _ := l.slotMu.LoadOrStore(key, &mutexWithTimestamp{})
	result := mt.(*mutexWithTimestamp)
	result.lastUsed.Store(time.Now().Unix())
	return result
}

func (l *LocalSlotLocker) cleanupMutexMapLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(mutexCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			l.log.Debug("Mutex cleanup goroutine stopping")
			return
		case <-ticker.C:
			l.cleanupStaleMutexes(time.Now().Add(-mutexStaleThreshold))
		}
	}
}

// cleanupStaleMutexes removes mutexes unused since cutoff. An entry is only
// deleted while its lock is held, so a holder never loses its entry; a claimer
// that loaded a removed entry notices in tryLockEntry.
func (l *LocalSlotLocker) cleanupStaleMutexes(cutoff time.Time) int {
	cutoffUnix := cutoff.Unix()
	var cleaned int

	l.slotMu.Range(func(key, value any) bool {
		mt, ok := value.(*mutexWithTimestamp)
		if !ok {
			return true
		}

		if mt.mu.TryLock() {
			if mt.lastUsed.Load() < cutoffUnix && l.slotMu.CompareAndDelete(key, mt) {
				cleaned++
			}
			mt.mu.Unlock()
		}
		return true
	})

	if cleaned > 0 {
		l.log.Debugf("Cleaned up %d stale slot mutexes", cleaned)
	}
	return cleaned
}
