package endpoints_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/ack"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/http/api"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/http/api/admin/endpoints"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/iqamah"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/model"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/rangestore"
)

// backendCall is one request seen by the fake range store backend.
type backendCall struct {
	Method string
	Path   string
	Body   map[string]any
}

type backend struct {
	mu     sync.Mutex
	calls  []backendCall
	status int
	month  string
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	call := backendCall{Method: r.Method, Path: r.URL.Path}
	_ = json.Unmarshal(raw, &call.Body)

	b.mu.Lock()
	b.calls = append(b.calls, call)
	status, month := b.status, b.month
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"message":"backend says no"}`))
		return
	}
	if r.Method == http.MethodGet {
		_, _ = w.Write([]byte(month))
		return
	}
	_, _ = w.Write([]byte(`{"data":{"ok":true}}`))
}

func (b *backend) last() backendCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[len(b.calls)-1]
}

// displays is an ack.Channel where n displays answer every broadcast.
type displays struct {
	mu        sync.Mutex
	n         int
	connected bool
	handlers  map[int]func([]byte)
	next      int
	emitted   [][]byte
}

func newDisplays(n int) *displays {
	return &displays{n: n, connected: true, handlers: map[int]func([]byte){}}
}

func (d *displays) Connected() bool { return d.connected }

func (d *displays) Emit(event string, payload []byte) error {
	d.mu.Lock()
	d.emitted = append(d.emitted, payload)
	fns := make([]func([]byte), 0, len(d.handlers))
	for _, fn := range d.handlers {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for i := 0; i < d.n; i++ {
		for _, fn := range fns {
			fn([]byte(`{"ok":true}`))
		}
	}
	return nil
}

func (d *displays) On(event string, fn func([]byte)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.next
	d.next++
	d.handlers[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.handlers, id)
	}
}

type history struct {
	entries []model.CommandLogEntry
	limit   int
}

func (h *history) ListCommands(_ context.Context, limit int) ([]model.CommandLogEntry, error) {
	h.limit = limit
	return h.entries, nil
}

type lister []string

func (l lister) Clients() []string { return l }

type fixture struct {
	router   *gin.Engine
	backend  *backend
	displays *displays
	history  *history
}

func newFixture(t *testing.T, displayCount int) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, api.RegisterValidators())

	be := &backend{month: `{"data":{"days":[
		{"date":"2024-03-01","fajr":"05:30","isha":"20:00"},
		{"date":"2024-03-02","fajr":"05:30","isha":"20:00"},
		{"date":"2024-03-03","fajr":"05:25","isha":"20:00"}
	]}}`}
	srv := httptest.NewServer(be)
	t.Cleanup(srv.Close)

	svc := iqamah.NewService(rangestore.New(srv.URL, 2*time.Second), nil)
	ch := newDisplays(displayCount)
	b := ack.NewBroadcaster(ch, ack.Options{Timeout: 200 * time.Millisecond, EarlyExit: 20 * time.Millisecond})
	h := &history{}

	router := gin.New()
	api.MountGroup(router, api.GroupConfig{Prefix: "/api/admin"},
		endpoints.IqamaahModule(svc, b),
		endpoints.DisplaysModule(b, h, lister{"lobby", "hall"}),
	)
	return &fixture{router: router, backend: be, displays: ch, history: h}
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestGetMonth_NormalizesBackendDays(t *testing.T) {
	f := newFixture(t, 0)

	w := f.do(http.MethodGet, "/api/admin/iqamaah/month?year=2024&month=3", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var month model.MonthSchedule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &month))
	assert.Equal(t, "March 2024", month.Label)
	assert.Equal(t, "2024-03-31", month.End)
	assert.True(t, month.HasData)
	assert.Equal(t, []model.TimeRange{
		{Prayer: model.Fajr, StartDate: "2024-03-01", EndDate: "2024-03-02", Time: "05:30"},
		{Prayer: model.Fajr, StartDate: "2024-03-03", EndDate: "2024-03-03", Time: "05:25"},
	}, month.Ranges[model.Fajr])
	assert.Len(t, month.Ranges[model.Isha], 1)
	assert.Empty(t, month.Ranges[model.Dhuhr])
}

func TestGetMonth_RejectsBadQuery(t *testing.T) {
	f := newFixture(t, 0)

	w := f.do(http.MethodGet, "/api/admin/iqamaah/month?year=2024&month=13", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w), "error")
}

func TestCreateRange_SendsPlannedRequest(t *testing.T) {
	f := newFixture(t, 0)

	w := f.do(http.MethodPost, "/api/admin/iqamaah/range", map[string]any{
		"prayer": "fajr", "startDate": "2024-03-01", "endDate": "2024-03-10", "time": "05:45",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	call := f.backend.last()
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/iqamaah-times/range", call.Path)
	assert.Equal(t, map[string]any{
		"prayer": "fajr", "startDate": "2024-03-01", "endDate": "2024-03-10", "time": "05:45",
	}, call.Body)

	out := decode(t, w)
	assert.Equal(t, map[string]any{"ok": true}, out["result"])
	assert.NotContains(t, out, "notification")
}

func TestCreateRange_ValidationErrors(t *testing.T) {
	f := newFixture(t, 0)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"unknown prayer", map[string]any{"prayer": "maghrib", "startDate": "2024-03-01", "endDate": "2024-03-02", "time": "18:00"}},
		{"bad time", map[string]any{"prayer": "fajr", "startDate": "2024-03-01", "endDate": "2024-03-02", "time": "5:45"}},
		{"bad date", map[string]any{"prayer": "fajr", "startDate": "2024-02-30", "endDate": "2024-03-02", "time": "05:45"}},
		{"reversed", map[string]any{"prayer": "fajr", "startDate": "2024-03-05", "endDate": "2024-03-01", "time": "05:45"}},
		{"missing end", map[string]any{"prayer": "fajr", "startDate": "2024-03-05", "time": "05:45"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/api/admin/iqamaah/range", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	f.backend.mu.Lock()
	defer f.backend.mu.Unlock()
	assert.Empty(t, f.backend.calls, "invalid ranges must never reach the backend")
}

func TestCreateRange_ReversedDatesReportReason(t *testing.T) {
	f := newFixture(t, 0)

	w := f.do(http.MethodPost, "/api/admin/iqamaah/range", map[string]any{
		"prayer": "fajr", "startDate": "2024-03-05", "endDate": "2024-03-01", "time": "05:45",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "start date after end date", decode(t, w)["error"])
}

func TestCreateRange_BackendErrorsAreEchoed(t *testing.T) {
	f := newFixture(t, 0)

	f.backend.status = http.StatusConflict
	w := f.do(http.MethodPost, "/api/admin/iqamaah/range", map[string]any{
		"prayer": "isha", "startDate": "2024-03-01", "endDate": "2024-03-02", "time": "20:15",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "backend says no", decode(t, w)["error"])

	f.backend.status = http.StatusInternalServerError
	w = f.do(http.MethodPost, "/api/admin/iqamaah/range", map[string]any{
		"prayer": "isha", "startDate": "2024-03-01", "endDate": "2024-03-02", "time": "20:15",
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestUpdateRange_CarriesOldKey(t *testing.T) {
	f := newFixture(t, 0)

	w := f.do(http.MethodPatch, "/api/admin/iqamaah/range", map[string]any{
		"prayer":       "dhuhr",
		"oldStartDate": "2024-03-01", "oldEndDate": "2024-03-15", "oldTime": "13:30",
		"startDate": "2024-03-01", "endDate": "2024-03-20", "time": "13:45",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	call := f.backend.last()
	assert.Equal(t, http.MethodPatch, call.Method)
	assert.Equal(t, "2024-03-15", call.Body["oldEndDate"])
	assert.Equal(t, "13:30", call.Body["oldTime"])
	assert.Equal(t, "2024-03-20", call.Body["endDate"])
	assert.Equal(t, "13:45", call.Body["time"])
}

func TestUpdateRange_AcceptsUnrecognisedOldTime(t *testing.T) {
	f := newFixture(t, 0)

	w := f.do(http.MethodPatch, "/api/admin/iqamaah/range", map[string]any{
		"prayer":       "dhuhr",
		"oldStartDate": "2024-03-01", "oldEndDate": "2024-03-15", "oldTime": "1:30 PM",
		"startDate": "2024-03-01", "endDate": "2024-03-15", "time": "13:30",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1:30 PM", f.backend.last().Body["oldTime"])
	assert.Equal(t, "13:30", f.backend.last().Body["time"])

	w = f.do(http.MethodPatch, "/api/admin/iqamaah/range", map[string]any{
		"prayer":       "dhuhr",
		"oldStartDate": "2024-03-01", "oldEndDate": "2024-03-15", "oldTime": "1:30 PM",
		"startDate": "2024-03-01", "endDate": "2024-03-15", "time": "1:30 PM",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "the new time is still validated")
}

func TestDeleteRange_TimeOnlyForJumuah(t *testing.T) {
	f := newFixture(t, 0)

	w := f.do(http.MethodDelete, "/api/admin/iqamaah/range", map[string]any{
		"prayer": "asr", "startDate": "2024-03-01", "endDate": "2024-03-31", "time": "16:30",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, f.backend.last().Body, "time")

	w = f.do(http.MethodDelete, "/api/admin/iqamaah/range", map[string]any{
		"prayer": "jumuah", "startDate": "2024-03-01", "endDate": "2024-03-31", "time": "14:00",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "14:00", f.backend.last().Body["time"])
}

func TestMutation_NotifyBroadcastsReload(t *testing.T) {
	f := newFixture(t, 2)

	w := f.do(http.MethodPost, "/api/admin/iqamaah/range?notify=true", map[string]any{
		"prayer": "fajr", "startDate": "2024-03-01", "endDate": "2024-03-10", "time": "05:45",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Notification struct {
			Success   bool              `json:"success"`
			TimedOut  bool              `json:"timedOut"`
			Responses []json.RawMessage `json:"responses"`
			Outcome   ack.Outcome       `json:"outcome"`
		} `json:"notification"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.True(t, out.Notification.Success)
	assert.False(t, out.Notification.TimedOut)
	assert.Len(t, out.Notification.Responses, 2)
	assert.Equal(t, "2 client(s) refreshed.", out.Notification.Outcome.Message)

	require.Len(t, f.displays.emitted, 1)
	var cmd model.Command
	require.NoError(t, json.Unmarshal(f.displays.emitted[0], &cmd))
	assert.Equal(t, model.CommandReload, cmd.Kind)
	assert.Equal(t, "iqamaah times updated", cmd.Reason)
}

func TestMutation_NotifyFailureKeepsSuccess(t *testing.T) {
	f := newFixture(t, 1)
	f.displays.connected = false

	w := f.do(http.MethodPost, "/api/admin/iqamaah/range?notify=true", map[string]any{
		"prayer": "fajr", "startDate": "2024-03-01", "endDate": "2024-03-10", "time": "05:45",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, ack.ErrNotConnected.Error(), out["notifyError"])
	assert.NotContains(t, out, "notification")
}

func TestReload_NoDisplaysWarns(t *testing.T) {
	f := newFixture(t, 0)

	w := f.do(http.MethodPost, "/api/admin/displays/reload", map[string]any{"reason": "manual", "timeout_ms": 100})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	out := decode(t, w)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, true, out["timedOut"])
	assert.Equal(t, map[string]any{"level": "warning", "message": "No clients responded within 100ms."}, out["outcome"])
}

func TestReload_ChannelDownIsUnavailable(t *testing.T) {
	f := newFixture(t, 0)
	f.displays.connected = false

	w := f.do(http.MethodPost, "/api/admin/displays/reload", map[string]any{})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAnnounce(t *testing.T) {
	f := newFixture(t, 1)

	w := f.do(http.MethodPost, "/api/admin/displays/announce", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/admin/displays/announce", map[string]any{"text": "Eid prayer at 08:00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["success"])

	var cmd model.Command
	require.NoError(t, json.Unmarshal(f.displays.emitted[0], &cmd))
	assert.Equal(t, model.CommandAnnounce, cmd.Kind)
	assert.Equal(t, "Eid prayer at 08:00", cmd.Text)
}

func TestHistoryAndDisplays(t *testing.T) {
	f := newFixture(t, 0)
	f.history.entries = []model.CommandLogEntry{{CommandID: "abc", Kind: "reload", Success: true}}

	w := f.do(http.MethodGet, "/api/admin/displays/history?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 5, f.history.limit)
	commands := decode(t, w)["commands"].([]any)
	require.Len(t, commands, 1)
	assert.Equal(t, "abc", commands[0].(map[string]any)["command_id"])

	w = f.do(http.MethodGet, "/api/admin/displays", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"lobby", "hall"}, decode(t, w)["clients"])
}

func TestFromError(t *testing.T) {
	assert.Nil(t, api.FromError(nil))
	assert.Equal(t, http.StatusConflict, api.FromError(ack.ErrBusy).Code)
	assert.Equal(t, http.StatusGatewayTimeout, api.FromError(context.DeadlineExceeded).Code)
	assert.Equal(t, http.StatusInternalServerError, api.FromError(errors.New("boom")).Code)
}
