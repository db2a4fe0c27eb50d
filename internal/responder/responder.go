// Package responder simulates the study assistant: after a fixed delay it
// appends one canned reply to the thread that received a user message.
package responder

import (
	"context"
	"errors"
	"math/rand"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/store"
	"studyplanner-backend/pkg/log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ThreadKind distinguishes project threads from the general thread.
type ThreadKind string

const (
	KindProject ThreadKind = "project"
	KindGeneral ThreadKind = "general"
)

// ThreadRef addresses one chat thread.
type ThreadRef struct {
	Kind      ThreadKind
	ProjectID uuid.UUID // Only for KindProject
}

// ProjectThread returns the reference of a project's thread.
func ProjectThread(id uuid.UUID) ThreadRef {
	return ThreadRef{Kind: KindProject, ProjectID: id}
}

// GeneralThread returns the reference of the general thread.
func GeneralThread() ThreadRef {
	return ThreadRef{Kind: KindGeneral}
}

// ID is the key tasks are tracked under.
func (t ThreadRef) ID() string {
	if t.Kind == KindGeneral {
		return models.GeneralThreadID
	}
	return t.ProjectID.String()
}

// DefaultDelay is the simulated reply latency.
const DefaultDelay = time.Second

// ErrClosed is returned by Schedule after Shutdown.
var ErrClosed = errors.New("responder is shut down")

// Responder runs delayed reply tasks, tracked per thread so they can be
// cancelled when their thread goes away.
type Responder struct {
	store    store.Store
	registry *Registry
	delay    time.Duration
	pick     func(n int) int
	onReply  func(ThreadRef, models.Message)

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu      sync.Mutex
	nextID  uint64
	pending map[string]map[uint64]context.CancelFunc
	closed  bool
	wg      sync.WaitGroup
}

// Option customizes a Responder.
type Option func(*Responder)

// WithDelay sets the reply latency.
func WithDelay(d time.Duration) Option {
	return func(r *Responder) { r.delay = d }
}

// WithPicker replaces the uniform random choice; pick(n) must return a
// value in [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(r *Responder) { r.pick = pick }
}

// WithOnReply registers a callback invoked after a reply was appended.
func WithOnReply(fn func(ThreadRef, models.Message)) Option {
	return func(r *Responder) { r.onReply = fn }
}

// New creates a Responder appending through s.
func New(s store.Store, registry *Registry, opts ...Option) *Responder {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Responder{
		store:      s,
		registry:   registry,
		delay:      DefaultDelay,
		pick:       rand.Intn,
		baseCtx:    ctx,
		baseCancel: cancel,
		pending:    make(map[string]map[uint64]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Schedule starts a reply task for a user message just appended to thread.
func (r *Responder) Schedule(thread ThreadRef, userContent string) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	ctx, cancel := context.WithCancel(r.baseCtx)
	r.nextID++
	taskID := r.nextID
	key := thread.ID()
	if r.pending[key] == nil {
		r.pending[key] = make(map[uint64]context.CancelFunc)
	}
	r.pending[key][taskID] = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer r.forget(key, taskID)

		timer := time.NewTimer(r.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			log.Debugf("[Responder] Reply for thread %s cancelled before delivery", key)
			return
		case <-timer.C:
		}
		r.deliver(ctx, thread, userContent)
	}()
	return nil
}

// Cancel aborts every pending task of the thread and returns how many were
// cancelled. A cancelled task never appends.
func (r *Responder) Cancel(threadID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := r.pending[threadID]
	for _, cancel := range tasks {
		cancel()
	}
	delete(r.pending, threadID)
	return len(tasks)
}

// Pending returns the number of replies still in flight for the thread.
func (r *Responder) Pending(threadID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending[threadID])
}

// Shutdown cancels all pending tasks and waits for their goroutines to
// finish, or for ctx to expire.
func (r *Responder) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.pending = make(map[string]map[uint64]context.CancelFunc)
	r.mu.Unlock()
	r.baseCancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Responder) forget(key string, taskID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tasks, ok := r.pending[key]; ok {
		delete(tasks, taskID)
		if len(tasks) == 0 {
			delete(r.pending, key)
		}
	}
}

// deliver picks a reply and appends it. A thread that disappeared in the
// meantime, or a cancelled task, results in no append.
func (r *Responder) deliver(ctx context.Context, thread ThreadRef, userContent string) {
	gen, err := r.registry.Get(thread.Kind)
	if err != nil {
		log.Error("[Responder] No generator for thread", err)
		return
	}

	rc := ReplyContext{UserMessage: userContent}
	if n, err := r.store.CountProjects(ctx); err == nil {
		rc.ProjectCount = n
	}

	var msg *models.Message
	params := store.AddMessageParams{Role: models.RoleAssistant}
	switch thread.Kind {
	case KindGeneral:
		params.Content = r.choose(gen.Candidates(rc))
		msg, err = r.store.AddGeneralMessage(ctx, params)
	default:
		p, getErr := r.store.GetProjectByID(ctx, thread.ProjectID)
		if getErr != nil {
			err = getErr
			break
		}
		rc.ProjectName = p.Name
		params.Content = r.choose(gen.Candidates(rc))
		msg, err = r.store.AddMessage(ctx, thread.ProjectID, params)
	}

	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			log.Debugf("[Responder] Thread %s no longer exists, dropping reply", thread.ID())
		case errors.Is(err, context.Canceled):
			log.Debugf("[Responder] Reply for thread %s cancelled during delivery", thread.ID())
		default:
			log.Errorf("[Responder] Failed to append reply to thread %s: %v", thread.ID(), err)
		}
		return
	}

	if r.onReply != nil {
		r.onReply(thread, *msg)
	}
}

func (r *Responder) choose(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	return candidates[r.pick(len(candidates))]
}
