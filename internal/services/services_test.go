package services

import (
	"context"
	"studyplanner-backend/internal/events"
	"studyplanner-backend/internal/metrics"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/responder"
	"studyplanner-backend/internal/store"
	"studyplanner-backend/internal/store/memory"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *memory.MemoryStore
	hub      *events.Hub
	metrics  *metrics.Metrics
	resp     *responder.Responder
	projects *ProjectService
	chat     *ChatService
}

func newFixture(t *testing.T, delay time.Duration) *fixture {
	t.Helper()
	st := memory.NewMemoryStore()
	hub := events.NewHub()
	m := metrics.New()
	resp := responder.New(st, responder.NewDefaultRegistry(),
		responder.WithDelay(delay),
		responder.WithOnReply(NewReplyHook(hub, m)),
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = resp.Shutdown(ctx)
	})
	return &fixture{
		store:    st,
		hub:      hub,
		metrics:  m,
		resp:     resp,
		projects: NewProjectService(st, resp, hub, m),
		chat:     NewChatService(st, resp, hub, m),
	}
}

func TestAlgebraScenario(t *testing.T) {
	f := newFixture(t, 10*time.Millisecond)
	ctx := context.Background()

	p, err := f.projects.CreateProject(ctx, models.CreateProjectRequest{Name: "Algebra"})
	require.NoError(t, err)

	list, err := f.projects.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list.Projects, 1)
	assert.Equal(t, "Algebra", list.Projects[0].Name)
	assert.Equal(t, 0, list.Projects[0].MessageCount)

	sent, err := f.chat.SendProjectMessage(ctx, p.ID, "hi")
	require.NoError(t, err)
	assert.True(t, sent.ReplyPending)
	assert.Equal(t, models.RoleUser, sent.Message.Role)

	var msgs []models.Message
	require.Eventually(t, func() bool {
		msgs, err = f.chat.ProjectMessages(ctx, p.ID)
		return err == nil && len(msgs) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)

	pinned, err := f.chat.TogglePin(ctx, p.ID, msgs[1].ID)
	require.NoError(t, err)
	assert.True(t, pinned[1].IsPinned)
	assert.False(t, pinned[0].IsPinned)

	schedule, err := f.projects.PinnedSchedule(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, schedule)
	assert.Equal(t, msgs[1].ID, schedule.ID)

	unpinned, err := f.chat.TogglePin(ctx, p.ID, msgs[1].ID)
	require.NoError(t, err)
	for _, m := range unpinned {
		assert.False(t, m.IsPinned)
	}

	schedule, err = f.projects.PinnedSchedule(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, schedule)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ProjectsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Messages.WithLabelValues("project", "user")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Messages.WithLabelValues("project", "assistant")))
}

func TestCreateProject_RequiresName(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	_, err := f.projects.CreateProject(context.Background(), models.CreateProjectRequest{Name: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	n, err := f.projects.CountProjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCreateProject_NormalizesFiles(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	p, err := f.projects.CreateProject(context.Background(), models.CreateProjectRequest{
		Name:  " Algebra ",
		Files: []string{" a.pdf", "", "a.pdf", "  "},
	})
	require.NoError(t, err)
	assert.Equal(t, "Algebra", p.Name)
	assert.Equal(t, []string{"a.pdf", "a.pdf"}, p.Files)
}

func TestUpdateProject_Validation(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	ctx := context.Background()
	p, err := f.projects.CreateProject(ctx, models.CreateProjectRequest{Name: "a", Description: "d"})
	require.NoError(t, err)

	_, err = f.projects.UpdateProject(ctx, p.ID, models.UpdateProjectRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	blank := " "
	_, err = f.projects.UpdateProject(ctx, p.ID, models.UpdateProjectRequest{Name: &blank})
	assert.ErrorIs(t, err, ErrValidation)

	name := "b"
	_, err = f.projects.UpdateProject(ctx, uuid.New(), models.UpdateProjectRequest{Name: &name})
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := f.projects.UpdateProject(ctx, p.ID, models.UpdateProjectRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "b", got.Name)
	assert.Equal(t, "d", got.Description)
}

func TestDeleteProject_RequiresConfirmationAndCancelsReplies(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()
	p, err := f.projects.CreateProject(ctx, models.CreateProjectRequest{Name: "a"})
	require.NoError(t, err)

	sub, unsubscribe := f.hub.Subscribe(p.ID.String())
	defer unsubscribe()

	_, err = f.chat.SendProjectMessage(ctx, p.ID, "hi")
	require.NoError(t, err)
	assert.Equal(t, 1, f.resp.Pending(p.ID.String()))

	err = f.projects.DeleteProject(ctx, p.ID, false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)
	_, err = f.projects.GetProject(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, f.projects.DeleteProject(ctx, p.ID, true))
	assert.Equal(t, 0, f.resp.Pending(p.ID.String()))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RepliesCanceled))

	_, err = f.projects.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, f.projects.DeleteProject(ctx, p.ID, true), store.ErrNotFound)

	var types []string
	for len(sub) > 0 {
		ev := <-sub
		types = append(types, string(ev.Type))
	}
	assert.Equal(t, []string{"message.added", "project.deleted"}, types)
}

func TestTogglePin_Rules(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()
	p, err := f.projects.CreateProject(ctx, models.CreateProjectRequest{Name: "a"})
	require.NoError(t, err)

	sent, err := f.chat.SendProjectMessage(ctx, p.ID, "hi")
	require.NoError(t, err)

	_, err = f.chat.TogglePin(ctx, p.ID, sent.Message.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.chat.TogglePin(ctx, p.ID, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.chat.TogglePin(ctx, uuid.New(), sent.Message.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSendMessage_Validation(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	_, err := f.chat.SendGeneralMessage(ctx, "  \n ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.chat.SendProjectMessage(ctx, uuid.New(), "hi")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGeneralThread_ReplyArrives(t *testing.T) {
	f := newFixture(t, 10*time.Millisecond)
	ctx := context.Background()

	sent, err := f.chat.SendGeneralMessage(ctx, "what should I study?")
	require.NoError(t, err)
	assert.True(t, sent.ReplyPending)

	require.Eventually(t, func() bool {
		msgs, err := f.chat.GeneralMessages(ctx)
		return err == nil && len(msgs) == 2 && msgs[1].Role == models.RoleAssistant
	}, time.Second, 5*time.Millisecond)
}
