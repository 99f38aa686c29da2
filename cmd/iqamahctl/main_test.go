package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/ack"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/config"
)

type fakeNotifier struct {
	reason string
	text   string
	result ack.Result
	err    error
}

func (f *fakeNotifier) Reload(_ context.Context, reason string, _ time.Duration) (ack.Result, error) {
	f.reason = reason
	return f.result, f.err
}

func (f *fakeNotifier) Announce(_ context.Context, text string, _ time.Duration) (ack.Result, error) {
	f.text = text
	return f.result, f.err
}

// run executes iqamahctl against a fake range store backend.
func run(t *testing.T, handler http.HandlerFunc, n *fakeNotifier, args ...string) (string, error) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("BACKEND_BASE_URL", srv.URL)
	t.Setenv("REALTIME_TRANSPORT", "")

	b := defaultBackends()
	b.notifier = func(*config.Config) (notifier, func(), error) {
		return n, func() {}, nil
	}

	var out bytes.Buffer
	cmd := newRootCmd(b)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMonth_PrintsCompressedRanges(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/iqamaah-times/month", r.URL.Path)
		assert.Equal(t, "2024", r.URL.Query().Get("year"))
		_, _ = w.Write([]byte(`[
			{"date":"2024-03-01","fajr":"05:30","jumuah":["13:15","14:00"]},
			{"date":"2024-03-02","fajr":"05:30"}
		]`))
	}

	out, err := run(t, handler, nil, "month", "--year", "2024", "--month", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "March 2024 (2024-03-01 to 2024-03-31)")
	assert.Regexp(t, `fajr\s+-\s+2024-03-01\s+2024-03-02\s+05:30`, out)
	assert.Regexp(t, `jumuah\s+2\s+2024-03-01\s+2024-03-01\s+14:00`, out)
}

func TestMonth_NoData(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}

	out, err := run(t, handler, nil, "month", "--year", "2024", "--month", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "no iqamaah times recorded")
}

func TestMonth_UnknownPrayer(t *testing.T) {
	_, err := run(t, func(http.ResponseWriter, *http.Request) {}, nil, "month", "--prayer", "maghrib")
	assert.ErrorContains(t, err, "unknown prayer")
}

func TestAdd_DefaultsEndToFullMonth(t *testing.T) {
	var body map[string]any
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"data":{"id":1}}`))
	}

	out, err := run(t, handler, nil, "add", "--prayer", "isha", "--start", "2024-02-10", "--time", "20:30")
	require.NoError(t, err)
	assert.Equal(t, "range created\n", out)
	assert.Equal(t, "2024-02-29", body["endDate"])
	assert.Equal(t, "20:30", body["time"])
}

func TestAdd_InvalidTimeNeverSent(t *testing.T) {
	called := false
	handler := func(http.ResponseWriter, *http.Request) { called = true }

	_, err := run(t, handler, nil, "add", "--prayer", "fajr", "--start", "2024-03-01", "--end", "2024-03-05", "--time", "25:00")
	assert.ErrorContains(t, err, "time not in HH:MM (24h) format")
	assert.False(t, called)
}

func TestUpdateAndDelete(t *testing.T) {
	var bodies []map[string]any
	handler := func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		body["_method"] = r.Method
		bodies = append(bodies, body)
		_, _ = w.Write([]byte(`{}`))
	}

	_, err := run(t, handler, nil, "update", "--prayer", "asr",
		"--old-start", "2024-03-01", "--old-end", "2024-03-15", "--old-time", "16:00",
		"--start", "2024-03-01", "--end", "2024-03-20", "--time", "16:15")
	require.NoError(t, err)
	_, err = run(t, handler, nil, "delete", "--prayer", "jumuah", "--start", "2024-03-01", "--end", "2024-03-31", "--time", "13:15")
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.Equal(t, http.MethodPatch, bodies[0]["_method"])
	assert.Equal(t, "2024-03-15", bodies[0]["oldEndDate"])
	assert.Equal(t, "16:15", bodies[0]["time"])
	assert.Equal(t, http.MethodDelete, bodies[1]["_method"])
	assert.Equal(t, "13:15", bodies[1]["time"])
}

func TestUpdateAndDelete_RequireEnd(t *testing.T) {
	called := false
	handler := func(http.ResponseWriter, *http.Request) { called = true }

	_, err := run(t, handler, nil, "delete", "--prayer", "fajr", "--start", "2024-03-01")
	assert.ErrorContains(t, err, `"end"`)

	_, err = run(t, handler, nil, "update", "--prayer", "fajr", "--start", "2024-03-01", "--time", "05:30")
	assert.ErrorContains(t, err, `"end"`)

	assert.False(t, called, "a range key the user never named must not reach the backend")
}

func TestReloadAndAnnounce(t *testing.T) {
	n := &fakeNotifier{result: ack.Result{
		Success:   true,
		Responses: []json.RawMessage{json.RawMessage(`{}`), json.RawMessage(`{}`)},
	}}

	out, err := run(t, nil, n, "reload", "--reason", "new timetable")
	require.NoError(t, err)
	assert.Equal(t, "new timetable", n.reason)
	assert.Equal(t, "success: 2 client(s) refreshed.\n", out)

	n.result = ack.Result{TimedOut: true, Timeout: 15 * time.Second}
	out, err = run(t, nil, n, "announce", "--text", "Taraweeh at 21:30")
	require.NoError(t, err)
	assert.Equal(t, "Taraweeh at 21:30", n.text)
	assert.Equal(t, "warning: No clients responded within 15s.\n", out)
}

func TestReload_NotConnected(t *testing.T) {
	n := &fakeNotifier{err: ack.ErrNotConnected}
	_, err := run(t, nil, n, "reload")
	assert.ErrorIs(t, err, ack.ErrNotConnected)
}
