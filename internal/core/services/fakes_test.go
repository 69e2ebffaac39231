package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cargarage/execution-service/internal/domain"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]*domain.ExecutionTask

	updateErr error
	findErr   error
	updates   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tasks: map[int64]*domain.ExecutionTask{}}
}

func (r *fakeRepo) seed(task domain.ExecutionTask) *domain.ExecutionTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	task.ID = r.nextID
	task.Version = 1
	r.tasks[task.ID] = &task
	out := task
	return &out
}

func (r *fakeRepo) Insert(_ context.Context, task *domain.ExecutionTask) (*domain.ExecutionTask, error) {
	return r.seed(*task), nil
}

func (r *fakeRepo) Update(_ context.Context, id int64, task *domain.ExecutionTask) (*domain.ExecutionTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	if _, ok := r.tasks[id]; !ok {
		return nil, domain.NewError(domain.ErrNotFound, "missing", nil, nil)
	}
	stored := *task
	stored.ID = id
	stored.Version++
	r.tasks[id] = &stored
	r.updates++
	out := stored
	return &out, nil
}

func (r *fakeRepo) FindByID(_ context.Context, id int64) (*domain.ExecutionTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	out := *task
	return &out, nil
}

func (r *fakeRepo) FindByServiceOrderID(_ context.Context, serviceOrderID int64) (*domain.ExecutionTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	var latest *domain.ExecutionTask
	for _, task := range r.tasks {
		if task.ServiceOrderID == serviceOrderID && (latest == nil || task.ID > latest.ID) {
			latest = task
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

func (r *fakeRepo) FindAll(_ context.Context, req domain.PageRequest) (domain.Page[domain.ExecutionTask], error) {
	return r.page(req, func(*domain.ExecutionTask) bool { return true }), nil
}

func (r *fakeRepo) FindByStatus(_ context.Context, status domain.ExecutionStatus, req domain.PageRequest) (domain.Page[domain.ExecutionTask], error) {
	return r.page(req, func(t *domain.ExecutionTask) bool { return t.Status == status }), nil
}

func (r *fakeRepo) page(req domain.PageRequest, keep func(*domain.ExecutionTask) bool) domain.Page[domain.ExecutionTask] {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]domain.ExecutionTask, 0)
	for _, task := range r.tasks {
		if keep(task) {
			matched = append(matched, *task)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	page := domain.EmptyPage[domain.ExecutionTask](req)
	page.TotalElements = int64(len(matched))
	start := req.Offset()
	if start >= len(matched) {
		return page
	}
	end := start + req.Size
	if end > len(matched) {
		end = len(matched)
	}
	page.Content = matched[start:end]
	return page
}

type publishedCall struct {
	kind   string
	taskID int64
	status domain.ExecutionStatus
}

type fakePublisher struct {
	mu    sync.Mutex
	calls []publishedCall
	err   error
}

func (p *fakePublisher) record(kind string, task *domain.ExecutionTask) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, publishedCall{kind: kind, taskID: task.ID, status: task.Status})
	return p.err
}

func (p *fakePublisher) PublishExecutionStarted(_ context.Context, task *domain.ExecutionTask) error {
	return p.record("started", task)
}

func (p *fakePublisher) PublishExecutionCompleted(_ context.Context, task *domain.ExecutionTask) error {
	return p.record("completed", task)
}

func (p *fakePublisher) PublishExecutionFailed(_ context.Context, task *domain.ExecutionTask) error {
	return p.record("failed", task)
}

type recordingMetrics struct {
	created     int
	transitions []string
}

func (m *recordingMetrics) TaskCreated() { m.created++ }
func (m *recordingMetrics) TaskTransitioned(from, to domain.ExecutionStatus) {
	m.transitions = append(m.transitions, string(from)+"->"+string(to))
}
func (m *recordingMetrics) EventReceived(string, string)          {}
func (m *recordingMetrics) EventPublished(string, string, string) {}

type harness struct {
	repo      *fakeRepo
	publisher *fakePublisher
	metrics   *recordingMetrics
	cfg       ExecutionTaskServiceConfig
}

func newHarness() *harness {
	h := &harness{
		repo:      newFakeRepo(),
		publisher: &fakePublisher{},
		metrics:   &recordingMetrics{},
	}
	h.cfg = ExecutionTaskServiceConfig{
		Repository: h.repo,
		Publisher:  h.publisher,
		Clock:      fixedClock{now: fixedNow},
		Metrics:    h.metrics,
	}
	return h
}

func (h *harness) seedStatus(serviceOrderID int64, status domain.ExecutionStatus) *domain.ExecutionTask {
	return h.repo.seed(domain.ExecutionTask{
		ServiceOrderID: serviceOrderID,
		Description:    "seeded",
		Status:         status,
		CreatedAt:      fixedNow.Add(-time.Hour),
		UpdatedAt:      fixedNow.Add(-time.Hour),
	})
}
