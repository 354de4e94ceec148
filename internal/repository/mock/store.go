package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Harsh-BH/baywatch/internal/domain"
	"github.com/Harsh-BH/baywatch/internal/repository"
)

// Ensure Store implements repository.Store.
var _ repository.Store = (*Store)(nil)

// Store is an in-memory repository.Store for testing. Transactions are serialised and run
// against a private copy of the data that replaces the shared data only on commit. The
// one-open-job-per-camera rule is enforced on every write, as the database index does.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data *memData

	// Hook functions for injecting errors. They run before the operation.
	CreateJobFunc       func(ctx context.Context, job *domain.Job) error
	CompleteJobFunc     func(ctx context.Context, id int64) error
	SetCameraStatusFunc func(ctx context.Context, id int64, status domain.CameraStatus) error
	OpenCameraIDsFunc   func(ctx context.Context, candidates []int64) (map[int64]bool, error)
}

type memData struct {
	cameras      map[int64]*domain.Camera
	jobs         map[int64]*domain.Job
	nextCameraID int64
	nextJobID    int64
}

func (d *memData) clone() *memData {
	c := &memData{
		cameras:      make(map[int64]*domain.Camera, len(d.cameras)),
		jobs:         make(map[int64]*domain.Job, len(d.jobs)),
		nextCameraID: d.nextCameraID,
		nextJobID:    d.nextJobID,
	}
	for id, cam := range d.cameras {
		c.cameras[id] = copyCamera(cam)
	}
	for id, job := range d.jobs {
		c.jobs[id] = copyJob(job)
	}
	return c
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		data: &memData{
			cameras: make(map[int64]*domain.Camera),
			jobs:    make(map[int64]*domain.Job),
		},
	}
}

func (s *Store) Cameras() repository.CameraRepository {
	return &cameraRepo{view: s.sharedView()}
}

func (s *Store) Jobs() repository.JobRepository {
	return &jobRepo{view: s.sharedView()}
}

func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	tx := &txStore{view: &view{mu: &sync.Mutex{}, data: snapshot, hooks: s}}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	*s.data = *snapshot
	s.mu.Unlock()
	return nil
}

func (s *Store) sharedView() *view {
	return &view{mu: &s.mu, data: s.data, hooks: s}
}

// SeedCamera inserts a camera directly, assigning an ID when zero.
func (s *Store) SeedCamera(c *domain.Camera) *domain.Camera {
	_ = s.Cameras().Create(context.Background(), c)
	return c
}

// Camera returns a copy of the stored camera (for test assertions).
func (s *Store) Camera(id int64) *domain.Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.cameras[id]
	if !ok {
		return nil
	}
	return copyCamera(c)
}

// AllJobs returns copies of all stored jobs ordered by ID (for test assertions).
func (s *Store) AllJobs() []*domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := make([]*domain.Job, 0, len(s.data.jobs))
	for _, j := range s.data.jobs {
		jobs = append(jobs, copyJob(j))
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].ID < jobs[k].ID })
	return jobs
}

// txStore is the Store handed to InTx callbacks.
type txStore struct {
	view *view
}

func (t *txStore) Cameras() repository.CameraRepository { return &cameraRepo{view: t.view} }
func (t *txStore) Jobs() repository.JobRepository       { return &jobRepo{view: t.view} }

func (t *txStore) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return fn(t)
}

type view struct {
	mu    *sync.Mutex
	data  *memData
	hooks *Store
}

// ---- CameraRepository ----

type cameraRepo struct {
	view *view
}

func (r *cameraRepo) Create(ctx context.Context, c *domain.Camera) error {
	r.view.mu.Lock()
	defer r.view.mu.Unlock()
	d := r.view.data
	if c.ID == 0 {
		d.nextCameraID++
		c.ID = d.nextCameraID
	} else if c.ID > d.nextCameraID {
		d.nextCameraID = c.ID
	}
	if c.Status == "" {
		c.Status = domain.CameraAvailable
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	d.cameras[c.ID] = copyCamera(c)
	return nil
}

func (r *cameraRepo) GetByID(ctx context.Context, id int64) (*domain.Camera, error) {
	r.view.mu.Lock()
	defer r.view.mu.Unlock()
	c, ok := r.view.data.cameras[id]
	if !ok {
		return nil, domain.ErrCameraNotFound
	}
	return copyCamera(c), nil
}

func (r *cameraRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Camera, error) {
	return r.GetByID(ctx, id)
}

func (r *cameraRepo) ListByBranch(ctx context.Context, branchID int64, status domain.CameraStatus) ([]*domain.Camera, error) {
	r.view.mu.Lock()
	defer r.view.mu.Unlock()
	var result []*domain.Camera
	for _, c := range r.view.data.cameras {
		if c.BranchID != branchID || (status != "" && c.Status != status) {
			continue
		}
		result = append(result, copyCamera(c))
	}
	sort.Slice(result, func(i, k int) bool { return result[i].ID < result[k].ID })
	return result, nil
}

func (r *cameraRepo) SetStatus(ctx context.Context, id int64, status domain.CameraStatus) error {
	if fn := r.view.hooks.SetCameraStatusFunc; fn != nil {
		if err := fn(ctx, id, status); err != nil {
			return err
		}
	}
	r.view.mu.Lock()
	defer r.view.mu.Unlock()
	c, ok := r.view.data.cameras[id]
	if !ok {
		return domain.ErrCameraNotFound
	}
	c.Status = status
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// ---- JobRepository ----

type jobRepo struct {
	view *view
}

func (r *jobRepo) Create(ctx context.Context, job *domain.Job) error {
	if fn := r.view.hooks.CreateJobFunc; fn != nil {
		if err := fn(ctx, job); err != nil {
			return err
		}
	}
	r.view.mu.Lock()
	defer r.view.mu.Unlock()
	d := r.view.data
	if violatesOpenIndex(d, job, 0) {
		return domain.ErrCameraInUse
	}
	d.nextJobID++
	job.ID = d.nextJobID
	now := time.Now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now
	d.jobs[job.ID] = copyJob(job)
	return nil
}

func (r *jobRepo) GetByID(ctx context.Context, id int64) (*domain.Job, error) {
	r.view.mu.Lock()
	defer r.view.mu.Unlock()
	j, ok := r.view.data.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return copyJob(j), nil
}

func (r *jobRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Job, error) {
	return r.GetByID(ctx, id)
}

func (r *jobRepo) Update(ctx context.Context, id int64, patch *domain.JobPatch) error {
	r.view.mu.Lock()
	defer r.view.mu.Unlock()
	d := r.view.data
	j, ok := d.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	updated := copyJob(j)
	patch.Apply(updated)
	if violatesOpenIndex(d, updated, id) {
		return domain.ErrCameraInUse
	}
	updated.UpdatedAt = time.Now().UTC()
	d.jobs[id] = updated
	return nil
}

func (r *jobRepo) Complete(ctx context.Context, id int64, at time.Time) error {
	if fn := r.view.hooks.CompleteJobFunc; fn != nil {
		if err := fn(ctx, id); err != nil {
			return err
		}
	}
	r.view.mu.Lock()
	defer r.view.mu.Unlock()
	j, ok := r.view.data.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	j.Status = domain.JobCompleted
	completedAt := at
	j.CompletedAt = &completedAt
	j.UpdatedAt = at
	return nil
}

func (r *jobRepo) FindOpenByCamera(ctx context.Context, cameraID, excludeJobID int64) (int64, error) {
	r.view.mu.Lock()
	defer r.view.mu.Unlock()
	for id, j := range r.view.data.jobs {
		if id != excludeJobID && j.HoldsCamera() && *j.CameraID == cameraID {
			return id, nil
		}
	}
	return 0, nil
}

func (r *jobRepo) OpenCameraIDs(ctx context.Context, candidates []int64) (map[int64]bool, error) {
	if fn := r.view.hooks.OpenCameraIDsFunc; fn != nil {
		return fn(ctx, candidates)
	}
	r.view.mu.Lock()
	defer r.view.mu.Unlock()
	wanted := make(map[int64]bool, len(candidates))
	for _, id := range candidates {
		wanted[id] = true
	}
	open := make(map[int64]bool)
	for _, j := range r.view.data.jobs {
		if j.HoldsCamera() && wanted[*j.CameraID] {
			open[*j.CameraID] = true
		}
	}
	return open, nil
}

func (r *jobRepo) ListByBranch(ctx context.Context, branchID int64, status domain.JobStatus) ([]*domain.Job, error) {
	r.view.mu.Lock()
	defer r.view.mu.Unlock()
	var result []*domain.Job
	for _, j := range r.view.data.jobs {
		if j.BranchID != branchID || (status != "" && j.Status != status) {
			continue
		}
		result = append(result, copyJob(j))
	}
	sort.Slice(result, func(i, k int) bool { return result[i].ID < result[k].ID })
	return result, nil
}

func (r *jobRepo) ListCompleted(ctx context.Context, branchID *int64) ([]*domain.Job, error) {
	r.view.mu.Lock()
	defer r.view.mu.Unlock()
	var result []*domain.Job
	for _, j := range r.view.data.jobs {
		if j.Status != domain.JobCompleted || (branchID != nil && j.BranchID != *branchID) {
			continue
		}
		result = append(result, copyJob(j))
	}
	sort.Slice(result, func(i, k int) bool {
		a, b := result[i].CompletedAt, result[k].CompletedAt
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.After(*b)
	})
	return result, nil
}

// violatesOpenIndex mirrors the partial unique index on jobs(camera_id).
func violatesOpenIndex(d *memData, job *domain.Job, selfID int64) bool {
	if !job.HoldsCamera() {
		return false
	}
	for id, other := range d.jobs {
		if id != selfID && other.HoldsCamera() && *other.CameraID == *job.CameraID {
			return true
		}
	}
	return false
}

func copyCamera(c *domain.Camera) *domain.Camera {
	cp := *c
	return &cp
}

func copyJob(j *domain.Job) *domain.Job {
	cp := *j
	if j.CameraID != nil {
		id := *j.CameraID
		cp.CameraID = &id
	}
	if j.CompletedAt != nil {
		at := *j.CompletedAt
		cp.CompletedAt = &at
	}
	return &cp
}
