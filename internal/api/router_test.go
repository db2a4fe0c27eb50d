package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"studyplanner-backend/internal/config"
	"studyplanner-backend/internal/events"
	"studyplanner-backend/internal/handlers"
	"studyplanner-backend/internal/metrics"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/responder"
	"studyplanner-backend/internal/services"
	"studyplanner-backend/internal/store/memory"
	"studyplanner-backend/internal/views"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	store   *memory.MemoryStore
	server  *httptest.Server
	client  *http.Client
	metrics *metrics.Metrics
}

func newTestApp(t *testing.T, delay time.Duration) *testApp {
	t.Helper()
	st := memory.NewMemoryStore()
	hub := events.NewHub()
	m := metrics.New()
	resp := responder.New(st, responder.NewDefaultRegistry(),
		responder.WithDelay(delay),
		responder.WithOnReply(services.NewReplyHook(hub, m)),
	)
	projectSvc := services.NewProjectService(st, resp, hub, m)
	chatSvc := services.NewChatService(st, resp, hub, m)
	renderer, err := views.NewRenderer()
	require.NoError(t, err)

	cfg := &config.Config{MessageRPS: 100, MessageBurst: 100}
	router := NewRouter(RouterDependencies{
		PageHandler:    handlers.NewPageHandler(projectSvc, chatSvc, renderer),
		ProjectHandler: handlers.NewProjectHandler(projectSvc),
		ChatHandler:    handlers.NewChatHandler(chatSvc),
		StreamHandler:  handlers.NewStreamHandler(chatSvc, hub, nil),
		Metrics:        m,
		Config:         cfg,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = resp.Shutdown(ctx)
	})

	client := srv.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	return &testApp{store: st, server: srv, client: client, metrics: m}
}

func (a *testApp) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, a.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := a.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func (a *testApp) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	res, err := a.client.PostForm(a.server.URL+path, form)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(b)
}

func TestAPI_ProjectLifecycle(t *testing.T) {
	app := newTestApp(t, 10*time.Millisecond)

	res := app.do(t, http.MethodPost, "/api/v1/projects", `{"name":"Algebra","files":["a.pdf"]}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	created := decode[models.Project](t, res)
	assert.Equal(t, "Algebra", created.Name)
	assert.Equal(t, "/api/v1/projects/"+created.ID.String(), res.Header.Get("Location"))

	res = app.do(t, http.MethodGet, "/api/v1/projects", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	list := decode[models.ListProjectsResponse](t, res)
	require.Len(t, list.Projects, 1)
	assert.Equal(t, 1, list.Projects[0].FileCount)

	res = app.do(t, http.MethodPut, "/api/v1/projects/"+created.ID.String(), `{"description":"linear"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	updated := decode[models.Project](t, res)
	assert.Equal(t, "Algebra", updated.Name)
	assert.Equal(t, "linear", updated.Description)

	res = app.do(t, http.MethodPost, "/api/v1/projects/"+created.ID.String()+"/messages", `{"content":"hi"}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var msgs models.ListMessagesResponse
	require.Eventually(t, func() bool {
		r := app.do(t, http.MethodGet, "/api/v1/projects/"+created.ID.String()+"/messages", "")
		msgs = decode[models.ListMessagesResponse](t, r)
		return len(msgs.Messages) == 2
	}, time.Second, 10*time.Millisecond)

	reply := msgs.Messages[1]
	res = app.do(t, http.MethodPost, "/api/v1/projects/"+created.ID.String()+"/messages/"+reply.ID.String()+"/pin", "")
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = app.do(t, http.MethodGet, "/api/v1/projects/"+created.ID.String()+"/schedule", "")
	schedule := decode[models.ScheduleResponse](t, res)
	require.NotNil(t, schedule.Schedule)
	assert.Equal(t, reply.ID, schedule.Schedule.ID)

	res = app.do(t, http.MethodDelete, "/api/v1/projects/"+created.ID.String(), "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = app.do(t, http.MethodDelete, "/api/v1/projects/"+created.ID.String()+"?confirm=true", "")
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res = app.do(t, http.MethodGet, "/api/v1/projects/"+created.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Contains(t, decode[models.ErrorResponse](t, res).Error, "not found")
}

func TestAPI_Errors(t *testing.T) {
	app := newTestApp(t, time.Hour)

	res := app.do(t, http.MethodPost, "/api/v1/projects", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = app.do(t, http.MethodPost, "/api/v1/projects", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = app.do(t, http.MethodGet, "/api/v1/projects/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = app.do(t, http.MethodPost, "/api/v1/general/messages", `{"content":""}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestAPI_ListETag(t *testing.T) {
	app := newTestApp(t, time.Hour)

	res := app.do(t, http.MethodGet, "/api/v1/projects", "")
	etag := res.Header.Get("ETag")
	require.NotEmpty(t, etag)

	req, err := http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/projects", nil)
	require.NoError(t, err)
	req.Header.Set("If-None-Match", etag)
	res, err = app.client.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotModified, res.StatusCode)

	app.do(t, http.MethodPost, "/api/v1/projects", `{"name":"new"}`)
	res = app.do(t, http.MethodGet, "/api/v1/projects", "")
	assert.NotEqual(t, etag, res.Header.Get("ETag"))
}

func TestAPI_RateLimitsMessages(t *testing.T) {
	st := memory.NewMemoryStore()
	hub := events.NewHub()
	m := metrics.New()
	resp := responder.New(st, responder.NewDefaultRegistry(), responder.WithDelay(time.Hour))
	defer resp.Shutdown(context.Background())
	router := NewRouter(RouterDependencies{
		ChatHandler: handlers.NewChatHandler(services.NewChatService(st, resp, hub, m)),
		Config:      &config.Config{MessageRPS: 1, MessageBurst: 2},
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/general/messages", strings.NewReader(`{"content":"hi"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)
}

func TestPages_CreateProjectForm(t *testing.T) {
	app := newTestApp(t, time.Hour)

	res := app.postForm(t, "/project/new", url.Values{"name": {" "}, "description": {"kept"}})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	body := readBody(t, res)
	assert.Contains(t, body, "project name is required")
	assert.Contains(t, body, "kept")

	res = app.postForm(t, "/project/new", url.Values{"name": {"Physics"}, "files": {"a.pdf\r\n\r\nb.pdf"}})
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/", res.Header.Get("Location"))

	projects, err := app.store.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, projects[0].Files)

	res = app.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, readBody(t, res), "Physics")
}

func TestPages_NotFound(t *testing.T) {
	app := newTestApp(t, time.Hour)

	for _, path := range []string{"/project/not-a-uuid", "/project/00000000-0000-4000-8000-000000000000/settings", "/nowhere"} {
		res := app.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, res.StatusCode, path)
		body := readBody(t, res)
		assert.Contains(t, body, "Not found", path)
		assert.Contains(t, body, `href="/"`, path)
	}
}

func TestPages_DeleteRequiresConfirmation(t *testing.T) {
	app := newTestApp(t, time.Hour)
	app.store.Seed()
	projects, err := app.store.ListProjects(context.Background())
	require.NoError(t, err)
	id := projects[0].ID.String()

	res := app.postForm(t, "/project/"+id+"/delete", url.Values{})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, readBody(t, res), "Tick the confirmation box")

	n, err := app.store.CountProjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	res = app.postForm(t, "/project/"+id+"/delete", url.Values{"confirm": {"true"}})
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)

	n, err = app.store.CountProjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPages_SettingsShowsPinnedSchedule(t *testing.T) {
	app := newTestApp(t, time.Hour)
	app.store.Seed()
	projects, err := app.store.ListProjects(context.Background())
	require.NoError(t, err)

	res := app.do(t, http.MethodGet, "/project/"+projects[0].ID.String()+"/settings", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	body := readBody(t, res)
	assert.Contains(t, body, "Current Schedule")
	assert.Contains(t, body, "Active")
	assert.Contains(t, body, "calculus_stewart.pdf")
}

func TestPages_GeneralAssistantRejectsEmptyMessage(t *testing.T) {
	app := newTestApp(t, time.Hour)

	res := app.postForm(t, "/general-assistant", url.Values{"content": {"   "}})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, readBody(t, res), "message content cannot be empty")

	res = app.postForm(t, "/general-assistant", url.Values{"content": {"hello"}})
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
}

func TestStream_DeliversThreadEvents(t *testing.T) {
	app := newTestApp(t, 10*time.Millisecond)

	wsURL := "ws" + strings.TrimPrefix(app.server.URL, "http") + "/api/v1/threads/general/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var snapshot events.Event
	require.NoError(t, conn.ReadJSON(&snapshot))
	assert.Equal(t, events.EventType("snapshot"), snapshot.Type)
	assert.Empty(t, snapshot.Messages)

	res := app.do(t, http.MethodPost, "/api/v1/general/messages", `{"content":"hello"}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var roles []models.Role
	for len(roles) < 2 {
		var ev events.Event
		require.NoError(t, conn.ReadJSON(&ev))
		require.Equal(t, events.EventMessageAdded, ev.Type)
		roles = append(roles, ev.Message.Role)
	}
	assert.Equal(t, []models.Role{models.RoleUser, models.RoleAssistant}, roles)
}

func TestStream_UnknownProject(t *testing.T) {
	app := newTestApp(t, time.Hour)
	res := app.do(t, http.MethodGet, "/api/v1/threads/00000000-0000-4000-8000-000000000000/ws", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestOperationalRoutes(t *testing.T) {
	app := newTestApp(t, time.Hour)

	res := app.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = app.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, readBody(t, res), "studyplanner_http_requests_total")
}

func TestPages_GeneralAssistantShowsProjectCount(t *testing.T) {
	app := newTestApp(t, time.Hour)
	app.store.Seed()

	res := app.do(t, http.MethodGet, "/general-assistant", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, readBody(t, res), "connect your 2 projects")
}
