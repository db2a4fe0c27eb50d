package memory

import (
	"context"
	"fmt"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/store"
	"studyplanner-backend/pkg/log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Compile-time check to ensure MemoryStore implements store.Store
var _ store.Store = (*MemoryStore)(nil)

// MemoryStore keeps every project and the general thread in process memory.
//
// Each mutation runs in a single critical section and swaps in a freshly
// built slice for the collection it touches, so slices handed out earlier are
// never modified afterwards. Reads return deep copies.
type MemoryStore struct {
	mu              sync.RWMutex
	projects        []models.Project
	generalMessages []models.Message
	revision        uint64

	now   func() time.Time
	newID func() uuid.UUID
}

// Option customizes a MemoryStore.
type Option func(*MemoryStore)

// WithClock overrides the time source used for CreatedAt and Timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		projects:        []models.Project{},
		generalMessages: []models.Message{},
		now:             time.Now,
		newID:           uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateProject appends a new project with an empty thread.
func (s *MemoryStore) CreateProject(ctx context.Context, arg store.CreateProjectParams) (*models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := models.Project{
		ID:           s.newID(),
		Name:         arg.Name,
		Description:  arg.Description,
		Instructions: arg.Instructions,
		Files:        append([]string{}, arg.Files...),
		Messages:     []models.Message{},
		CreatedAt:    s.now(),
	}

	next := make([]models.Project, 0, len(s.projects)+1)
	next = append(next, s.projects...)
	next = append(next, p)
	s.projects = next
	s.revision++

	log.Debugf("[MemoryStore] CreateProject: inserted project %s (%q)", p.ID, p.Name)
	out := p.Clone()
	return &out, nil
}

// GetProjectByID returns a copy of the project.
// Returns store.ErrNotFound if the project does not exist.
func (s *MemoryStore) GetProjectByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	out := s.projects[i].Clone()
	return &out, nil
}

// ListProjects returns copies of all projects in creation order.
func (s *MemoryStore) ListProjects(ctx context.Context) ([]models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Project, len(s.projects))
	for i, p := range s.projects {
		out[i] = p.Clone()
	}
	return out, nil
}

func (s *MemoryStore) CountProjects(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.projects), nil
}

// UpdateProject replaces only the non-nil fields of arg.
// Messages and CreatedAt are never touched.
func (s *MemoryStore) UpdateProject(ctx context.Context, arg store.UpdateProjectParams) (*models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(arg.ID)
	if i < 0 {
		log.Debugf("[MemoryStore] UpdateProject: project %s not found", arg.ID)
		return nil, store.ErrNotFound
	}

	p := s.projects[i].Clone()
	if arg.Name != nil {
		p.Name = *arg.Name
	}
	if arg.Description != nil {
		p.Description = *arg.Description
	}
	if arg.Instructions != nil {
		p.Instructions = *arg.Instructions
	}
	if arg.Files != nil {
		p.Files = append([]string{}, (*arg.Files)...)
	}

	s.replaceAt(i, p)
	out := p.Clone()
	return &out, nil
}

// DeleteProject removes the project together with its thread.
func (s *MemoryStore) DeleteProject(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return store.ErrNotFound
	}

	next := make([]models.Project, 0, len(s.projects)-1)
	next = append(next, s.projects[:i]...)
	next = append(next, s.projects[i+1:]...)
	s.projects = next
	s.revision++

	log.Debugf("[MemoryStore] DeleteProject: removed project %s", id)
	return nil
}

// AddMessage appends a message to the project's thread.
func (s *MemoryStore) AddMessage(ctx context.Context, projectID uuid.UUID, arg store.AddMessageParams) (*models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !arg.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", store.ErrInvalidMessage, arg.Role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(projectID)
	if i < 0 {
		return nil, store.ErrNotFound
	}

	msg := s.newMessage(arg)
	p := s.projects[i]
	msgs := make([]models.Message, 0, len(p.Messages)+1)
	msgs = append(msgs, p.Messages...)
	p.Messages = append(msgs, msg)

	s.replaceAt(i, p)
	return &msg, nil
}

// PinMessage toggles the pin on messageID and clears it on every other
// message of the project, so at most one message stays pinned.
// Returns store.ErrNotFound, without changing anything, if either the
// project or the message does not exist.
func (s *MemoryStore) PinMessage(ctx context.Context, projectID, messageID uuid.UUID) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(projectID)
	if i < 0 {
		return nil, store.ErrNotFound
	}

	p := s.projects[i]
	found := false
	msgs := make([]models.Message, len(p.Messages))
	for j, m := range p.Messages {
		if m.ID == messageID {
			found = true
			m.IsPinned = !m.IsPinned
		} else {
			m.IsPinned = false
		}
		msgs[j] = m
	}
	if !found {
		return nil, store.ErrNotFound
	}

	p.Messages = msgs
	s.replaceAt(i, p)
	return append([]models.Message(nil), msgs...), nil
}

// AddGeneralMessage appends a message to the general thread.
func (s *MemoryStore) AddGeneralMessage(ctx context.Context, arg store.AddMessageParams) (*models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !arg.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", store.ErrInvalidMessage, arg.Role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.newMessage(arg)
	next := make([]models.Message, 0, len(s.generalMessages)+1)
	next = append(next, s.generalMessages...)
	s.generalMessages = append(next, msg)
	s.revision++
	return &msg, nil
}

func (s *MemoryStore) ListGeneralMessages(ctx context.Context) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Message{}, s.generalMessages...), nil
}

func (s *MemoryStore) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// --- helpers, callers hold s.mu ---

func (s *MemoryStore) indexOf(id uuid.UUID) int {
	for i := range s.projects {
		if s.projects[i].ID == id {
			return i
		}
	}
	return -1
}

// replaceAt swaps in a new project slice with p at index i.
func (s *MemoryStore) replaceAt(i int, p models.Project) {
	next := make([]models.Project, len(s.projects))
	copy(next, s.projects)
	next[i] = p
	s.projects = next
	s.revision++
}

func (s *MemoryStore) newMessage(arg store.AddMessageParams) models.Message {
	return models.Message{
		ID:        s.newID(),
		Role:      arg.Role,
		Content:   arg.Content,
		Timestamp: s.now(),
	}
}
