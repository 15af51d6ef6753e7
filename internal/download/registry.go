package download

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ytget/yt-webdl/internal/model"
)

// Registry holds every live job record. All access goes through its lock;
// callers only ever see snapshots.
type Registry struct {
	jobs       map[string]*model.Job
	jobsMutex  sync.RWMutex
	now        func() time.Time
	generateID func() string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		jobs:       make(map[string]*model.Job),
		now:        time.Now,
		generateID: generateJobID,
	}
}

// Create registers a queued job and returns its snapshot
func (r *Registry) Create(url string, quality model.Quality, downloadType model.DownloadType) model.Snapshot {
	r.jobsMutex.Lock()
	defer r.jobsMutex.Unlock()

	id := r.generateID()
	for _, exists := r.jobs[id]; exists; _, exists = r.jobs[id] {
		id = r.generateID()
	}

	now := r.now()
	job := &model.Job{
		ID:           id,
		URL:          url,
		Quality:      quality,
		DownloadType: downloadType,
		Status:       model.StatusQueued,
		CreatedAt:    now,
		UpdatedAt:    now,
		Revision:     1,
	}
	r.jobs[id] = job

	return job.Snapshot()
}

// Get returns a snapshot of the job
func (r *Registry) Get(id string) (model.Snapshot, bool) {
	r.jobsMutex.RLock()
	defer r.jobsMutex.RUnlock()

	job, exists := r.jobs[id]
	if !exists {
		return model.Snapshot{}, false
	}
	return job.Snapshot(), true
}

// View calls fn with the live job under the read lock. fn must not modify it.
func (r *Registry) View(id string, fn func(*model.Job)) bool {
	r.jobsMutex.RLock()
	defer r.jobsMutex.RUnlock()

	job, exists := r.jobs[id]
	if !exists {
		return false
	}
	fn(job)
	return true
}

// Update applies fn to the live job under the write lock and returns the
// resulting snapshot. It is a no-op returning false when the job was swept or
// has already reached a terminal status.
func (r *Registry) Update(id string, fn func(*model.Job)) (model.Snapshot, bool) {
	r.jobsMutex.Lock()
	defer r.jobsMutex.Unlock()

	job, exists := r.jobs[id]
	if !exists || job.Status.IsTerminal() {
		return model.Snapshot{}, false
	}
	fn(job)
	job.UpdatedAt = r.now()
	job.Revision++
	return job.Snapshot(), true
}

// Sweep removes every job created more than retention before now, whatever
// its status, and returns how many were removed
func (r *Registry) Sweep(now time.Time, retention time.Duration) int {
	r.jobsMutex.Lock()
	defer r.jobsMutex.Unlock()

	removed := 0
	for id, job := range r.jobs {
		if job.Age(now) > retention {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed
}

// List returns snapshots of all jobs, oldest first
func (r *Registry) List() []model.Snapshot {
	r.jobsMutex.RLock()
	snapshots := make([]model.Snapshot, 0, len(r.jobs))
	for _, job := range r.jobs {
		snapshots = append(snapshots, job.Snapshot())
	}
	r.jobsMutex.RUnlock()

	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].CreatedAt.Equal(snapshots[j].CreatedAt) {
			return snapshots[i].ID < snapshots[j].ID
		}
		return snapshots[i].CreatedAt.Before(snapshots[j].CreatedAt)
	})
	return snapshots
}

// Len returns the number of registered jobs
func (r *Registry) Len() int {
	r.jobsMutex.RLock()
	defer r.jobsMutex.RUnlock()
	return len(r.jobs)
}

// generateJobID generates a unique job ID
func generateJobID() string {
	return uuid.NewString()
}
