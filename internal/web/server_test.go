package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/part66/internal/domain"
	"github.com/conorfennell/part66/internal/srs"
	"github.com/conorfennell/part66/internal/storage"
	"github.com/conorfennell/part66/internal/study"
	"github.com/conorfennell/part66/internal/sync"
)

var t0 = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

const admin = "carol"

type testServer struct {
	*Server
	db  *storage.DB
	now time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	db, err := storage.Open(ctx, storage.DriverSQLite, filepath.Join(t.TempDir(), "part66.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.UpsertModule(ctx, domain.Module{
		ID: domain.ModuleID("3"), Number: "3", Title: "Basic Electricity",
		SubModules: []domain.SubModule{
			{ID: domain.SubModuleID("3.1"), Number: "3.1", Title: "Electron Theory"},
			{ID: domain.SubModuleID("3.2"), Number: "3.2", Title: "Static Electricity"},
		},
	}, 3))
	require.NoError(t, db.UpsertModule(ctx, domain.Module{ID: domain.ModuleID("4"), Number: "4", Title: "Basic Electronics"}, 4))
	for i, q := range []string{"What is voltage?", "What is current?", "What is resistance?"} {
		created := t0.Add(time.Duration(i-10) * time.Minute)
		require.NoError(t, db.InsertCard(ctx, domain.Card{
			ID: fmt.Sprintf("card-%d", i+1), ModuleID: "module-3", SubModuleID: "submodule-3.1",
			Question: q, Answer: "An answer", Difficulty: domain.DifficultyMedium,
			Approved: true, CreatedAt: created, UpdatedAt: created,
		}))
	}

	ts := &testServer{db: db, now: t0}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n := 0
	manager, err := study.NewManager(db, srs.DefaultPolicy(),
		study.WithClock(func() time.Time { return ts.now }),
		study.WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
		study.WithLogger(logger),
	)
	require.NoError(t, err)

	ts.Server = NewServer(db, manager, sync.New(db, t.TempDir(), logger), logger, []string{admin})
	ts.Server.now = func() time.Time { return ts.now }
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestModules(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/modules", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	modules := decodeBody[[]domain.Module](t, rec)
	require.Len(t, modules, 2)
	assert.Len(t, modules[0].SubModules, 2)

	rec = ts.do(t, http.MethodGet, "/modules/module-3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Basic Electricity", decodeBody[domain.Module](t, rec).Title)

	rec = ts.do(t, http.MethodGet, "/modules/99", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeBody[errorBody](t, rec).Error, "module not found")

	rec = ts.do(t, http.MethodGet, "/modules/3/cards?subModule=3.1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]domain.Card](t, rec), 3)

	rec = ts.do(t, http.MethodGet, "/modules/3/cards?subModule=4.1", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserModules(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/me/modules/3/toggle", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/me/modules/3/toggle", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, toggleResponse{ModuleID: "module-3", Active: true}, decodeBody[toggleResponse](t, rec))

	rec = ts.do(t, http.MethodGet, "/me/modules", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody[[]domain.Module](t, rec), 1)

	rec = ts.do(t, http.MethodPost, "/me/modules/3/toggle", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[toggleResponse](t, rec).Active)

	rec = ts.do(t, http.MethodPost, "/me/modules/42/toggle", "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCardCRUD(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]any{
		"moduleId":    "3",
		"subModuleId": "3.2",
		"question":    "What is a static discharger?",
		"answer":      "A wick that bleeds static charge off the airframe",
		"difficulty":  "hard",
		"tags":        []string{"static", "Static", "airframe"},
	}

	rec := ts.do(t, http.MethodPost, "/cards", "alice", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	card := decodeBody[domain.Card](t, rec)
	assert.Equal(t, "module-3", card.ModuleID)
	assert.Equal(t, "submodule-3.2", card.SubModuleID)
	assert.Equal(t, domain.DifficultyHard, card.Difficulty)
	assert.Equal(t, []string{"airframe", "static"}, card.Tags)
	assert.Equal(t, "alice", card.AuthorID)
	assert.False(t, card.Approved)

	rec = ts.do(t, http.MethodGet, "/cards/"+card.ID, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body["answer"] = "A static wick"
	rec = ts.do(t, http.MethodPut, "/cards/"+card.ID, "bob", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPut, "/cards/"+card.ID, "alice", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A static wick", decodeBody[domain.Card](t, rec).Answer)

	rec = ts.do(t, http.MethodDelete, "/cards/"+card.ID, "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodGet, "/cards/"+card.ID, "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCardModeration(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]any{"moduleId": "4", "question": "What is a diode?", "answer": "A one-way valve for current"}

	rec := ts.do(t, http.MethodPost, "/cards", "alice", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	card := decodeBody[domain.Card](t, rec)
	cardPath := "/cards/" + card.ID

	// Pending cards are visible to their author and the admins only.
	for user, status := range map[string]int{"": http.StatusNotFound, "bob": http.StatusNotFound, "alice": http.StatusOK, admin: http.StatusOK} {
		rec = ts.do(t, http.MethodGet, cardPath, user, nil)
		assert.Equal(t, status, rec.Code, user)
	}
	rec = ts.do(t, http.MethodGet, "/modules/4/cards", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]domain.Card](t, rec))
	rec = ts.do(t, http.MethodGet, "/modules/4/cards", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]domain.Card](t, rec), 1)

	rec = ts.do(t, http.MethodPost, "/sessions", "bob", map[string]any{"moduleId": "4"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = ts.do(t, http.MethodPost, "/sessions", "alice", map[string]any{"moduleId": "4"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, decodeBody[study.Started](t, rec).Cards, 1)

	rec = ts.do(t, http.MethodGet, "/admin/cards/pending", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = ts.do(t, http.MethodGet, "/admin/cards/pending", "alice", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = ts.do(t, http.MethodPost, "/admin/cards/"+card.ID+"/approve", "alice", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodGet, "/admin/cards/pending", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decodeBody[[]domain.Card](t, rec)
	require.Len(t, pending, 1)
	assert.Equal(t, card.ID, pending[0].ID)

	rec = ts.do(t, http.MethodPost, "/admin/cards/"+card.ID+"/approve", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[domain.Card](t, rec).Approved)
	rec = ts.do(t, http.MethodPost, "/admin/cards/unknown/approve", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/admin/cards/pending", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]domain.Card](t, rec))
	rec = ts.do(t, http.MethodPost, "/sessions", "bob", map[string]any{"moduleId": "4"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Editing sends the card back to moderation.
	body["answer"] = "A semiconductor that conducts one way"
	rec = ts.do(t, http.MethodPut, cardPath, "alice", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[domain.Card](t, rec).Approved)
	rec = ts.do(t, http.MethodGet, cardPath, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStudiedCardKeepsModule(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]any{"moduleId": "3", "subModuleId": "3.2", "question": "What is triboelectric charging?", "answer": "Charging by friction"}

	rec := ts.do(t, http.MethodPost, "/cards", "alice", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	card := decodeBody[domain.Card](t, rec)

	rec = ts.do(t, http.MethodPost, "/sessions", "alice", map[string]any{"moduleId": "3", "subModuleId": "3.2"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	started := decodeBody[study.Started](t, rec)
	require.Len(t, started.Cards, 1)
	rec = ts.do(t, http.MethodPost, "/sessions/"+started.Session.ID+"/rate", "alice", map[string]any{"cardId": card.ID, "rating": "medium"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body["moduleId"], body["subModuleId"] = "4", ""
	rec = ts.do(t, http.MethodPut, "/cards/"+card.ID, "alice", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	body["moduleId"], body["subModuleId"] = "3", "3.1"
	body["answer"] = "Charge transfer by contact and separation"
	rec = ts.do(t, http.MethodPut, "/cards/"+card.ID, "alice", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "submodule-3.1", decodeBody[domain.Card](t, rec).SubModuleID)
}

func TestDetachedSession(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	sess := domain.StudySession{ID: "orphan", UserID: "alice", ModuleID: "module-3", StartTime: t0.Add(-time.Hour)}
	require.NoError(t, ts.db.CreateStudySession(ctx, sess))
	require.NoError(t, ts.db.AppendStudyRecord(ctx, domain.StudyRecord{
		ID: "r1", SessionID: sess.ID, CardID: "card-1", Rating: 3, IsCorrect: true, CreatedAt: t0.Add(-50 * time.Minute),
	}))

	rec := ts.do(t, http.MethodGet, "/sessions/orphan", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decodeBody[study.Snapshot](t, rec)
	assert.Equal(t, study.StateDetached, snap.State)
	assert.Equal(t, 1, snap.Answered)
	assert.Equal(t, 1, snap.Correct)

	rec = ts.do(t, http.MethodPost, "/sessions/orphan/rate", "alice", map[string]any{"cardId": "card-2", "rating": "medium"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/sessions/orphan/complete", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decodeBody[domain.StudySession](t, rec).CardsStudied)

	rec = ts.do(t, http.MethodGet, "/sessions/orphan", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, study.StateCompleted, decodeBody[study.Snapshot](t, rec).State)
}

func TestCardValidation(t *testing.T) {
	ts := newTestServer(t)
	testCases := []struct {
		name   string
		body   any
		status int
	}{
		{name: "missing question", body: map[string]any{"moduleId": "3", "answer": "a"}, status: http.StatusBadRequest},
		{name: "bad difficulty", body: map[string]any{"moduleId": "3", "question": "q", "answer": "a", "difficulty": "brutal"}, status: http.StatusBadRequest},
		{name: "unknown field", body: map[string]any{"moduleId": "3", "question": "q", "answer": "a", "approved": true}, status: http.StatusBadRequest},
		{name: "unknown module", body: map[string]any{"moduleId": "99", "question": "q", "answer": "a"}, status: http.StatusNotFound},
		{name: "sub-module of another module", body: map[string]any{"moduleId": "4", "subModuleId": "3.1", "question": "q", "answer": "a"}, status: http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/cards", "alice", tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestStudyFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/sessions", "alice", map[string]any{"moduleId": "3", "targetCount": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	started := decodeBody[study.Started](t, rec)
	require.Len(t, started.Cards, 2)
	assert.Equal(t, []string{"card-1", "card-2"}, []string{started.Cards[0].ID, started.Cards[1].ID})
	sessionPath := "/sessions/" + started.Session.ID

	rec = ts.do(t, http.MethodGet, sessionPath, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ts.now = ts.now.Add(time.Minute)
	rec = ts.do(t, http.MethodPost, sessionPath+"/rate", "alice", map[string]any{"cardId": "card-1", "rating": "easy", "timeSpentMs": 4200})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rated := decodeBody[study.RateResult](t, rec)
	assert.Equal(t, domain.StatusLearning, rated.Progress.Status)
	assert.Equal(t, 1, rated.Correct)
	require.NotNil(t, rated.Current)
	assert.Equal(t, "card-2", rated.Current.ID)

	rec = ts.do(t, http.MethodPost, sessionPath+"/rate", "alice", map[string]any{"cardId": "card-1", "rating": 3})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, sessionPath+"/rate", "alice", map[string]any{"cardId": "card-2", "rating": 2})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, sessionPath+"/pause", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, study.StatePaused, decodeBody[study.Snapshot](t, rec).State)
	rec = ts.do(t, http.MethodPost, sessionPath+"/resume", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, sessionPath+"/skip", "alice", map[string]any{"cardId": "card-2"})
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeBody[study.Snapshot](t, rec)
	assert.True(t, snap.Exhausted)
	assert.Equal(t, 1, snap.Skipped)

	ts.now = ts.now.Add(time.Minute)
	rec = ts.do(t, http.MethodPost, sessionPath+"/complete", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	final := decodeBody[domain.StudySession](t, rec)
	require.NotNil(t, final.EndTime)
	assert.Equal(t, 1, final.CardsStudied)
	assert.Equal(t, 1, final.CorrectCount)

	rec = ts.do(t, http.MethodPost, sessionPath+"/complete", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, final.EndTime.Unix(), decodeBody[domain.StudySession](t, rec).EndTime.Unix())

	rec = ts.do(t, http.MethodGet, sessionPath, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, study.StateCompleted, decodeBody[study.Snapshot](t, rec).State)

	rec = ts.do(t, http.MethodPost, sessionPath+"/skip", "alice", map[string]any{"cardId": "card-2"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodGet, "/modules/3/progress", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decodeBody[domain.ProgressSummary](t, rec)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.Learning)
	assert.Equal(t, 2, sum.New)

	rec = ts.do(t, http.MethodGet, "/me/stats", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody[domain.StudyStats](t, rec)
	assert.Equal(t, 1, stats.TotalCardsStudied)
	assert.Equal(t, 100, stats.CorrectPercentage)

	rec = ts.do(t, http.MethodGet, "/me/history", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decodeBody[[]domain.SessionHistoryEntry](t, rec)
	require.Len(t, history, 1)
	assert.Equal(t, "Basic Electricity", history[0].ModuleTitle)
}

func TestStartSessionErrors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/sessions", "alice", map[string]any{"moduleId": "4"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodPost, "/sessions", "alice", map[string]any{"moduleId": "12"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/sessions", "alice", map[string]any{"targetCount": 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/sessions/unknown/complete", "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSourcesRequireAdmin(t *testing.T) {
	ts := newTestServer(t)
	dir := t.TempDir()
	routes := []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/sources", nil},
		{http.MethodPost, "/sources", map[string]any{"path": dir}},
		{http.MethodDelete, "/sources/1", nil},
		{http.MethodPost, "/sync", nil},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := ts.do(t, rt.method, rt.path, "", rt.body)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			rec = ts.do(t, rt.method, rt.path, "alice", rt.body)
			assert.Equal(t, http.StatusForbidden, rec.Code)
		})
	}

	sources, err := ts.db.GetAllSources(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestSources(t *testing.T) {
	ts := newTestServer(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deck.md"), []byte("M: 3\nS: 3.2\nQ: What is a static wick?\nA: A discharger\n"), 0o644))

	rec := ts.do(t, http.MethodPost, "/sources", admin, map[string]any{"path": dir})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	src := decodeBody[sourceResponse](t, rec)
	assert.Equal(t, storage.SourceLocal, src.Type)

	rec = ts.do(t, http.MethodPost, "/sources", admin, map[string]any{"path": dir})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/sources", admin, map[string]any{"path": filepath.Join(dir, "missing")})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/sync", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[sync.Report](t, rec).Inserted)

	rec = ts.do(t, http.MethodGet, "/sources", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sources := decodeBody[[]sourceResponse](t, rec)
	require.Len(t, sources, 1)
	assert.NotNil(t, sources[0].LastScanned)

	rec = ts.do(t, http.MethodGet, "/modules/3/cards?subModule=3.2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	imported := decodeBody[[]domain.Card](t, rec)
	require.Len(t, imported, 1)

	rec = ts.do(t, http.MethodDelete, "/cards/"+imported[0].ID, "alice", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodDelete, fmt.Sprintf("/sources/%d", src.ID), admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodDelete, fmt.Sprintf("/sources/%d", src.ID), admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(t, http.MethodDelete, "/sources/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/cards/"+imported[0].ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
