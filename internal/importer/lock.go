package importer

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrAlreadyLocked is returned when a project's in-process lock is already
// held by another goroutine in this process.
var ErrAlreadyLocked = fmt.Errorf("importer: project import already in progress")

// ProjectLocker supplements the persisted Project.ImportMutex boolean with
// an in-process lock so two goroutines in the same process can't both
// believe they hold a project's mutex between the storage-layer check and
// the storage-layer write that sets it (spec §9 design note: the persisted
// flag survives process restarts, this catches same-process races on top
// of it). It never replaces the persisted flag — storage is still the
// source of truth across processes.
type ProjectLocker struct {
	mu      sync.Mutex
	holders map[uuid.UUID]bool
}

// NewProjectLocker returns a locker with no projects held.
func NewProjectLocker() *ProjectLocker {
	return &ProjectLocker{holders: make(map[uuid.UUID]bool)}
}

// TryAcquire claims projectID for this process, failing fast with
// ErrAlreadyLocked if it's already held here (spec §4.2 concurrency
// contract: "attempting to acquire when already held must fail fast").
func (l *ProjectLocker) TryAcquire(projectID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holders[projectID] {
		return ErrAlreadyLocked
	}
	l.holders[projectID] = true
	return nil
}

// Release frees projectID for re-acquisition in this process.
func (l *ProjectLocker) Release(projectID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.holders, projectID)
}
