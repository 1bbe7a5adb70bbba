package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shapeflow/monitor/internal/monitor/config"
	"github.com/shapeflow/monitor/internal/monitor/session"
	"github.com/shapeflow/monitor/internal/monitor/store"
)

func record(ts, user, document, tab, description string) store.Record {
	return store.Record{
		"Time":        ts,
		"User":        user,
		"Document":    document,
		"Tab":         tab,
		"Description": description,
	}
}

func defaultRows() []store.Record {
	return []store.Record{
		record("2024-05-01 10:00:00", "alice", "Bracket", "Part Studio 1", "Open document"),
		record("2024-05-01 10:30:00", "alice", "Bracket", "Part Studio 1", "Edit sketch"),
		record("2024-05-01 11:30:00", "bob", "Gearbox", "Assembly 1", "Export STL"),
	}
}

func newTestServer(t *testing.T, seed func(t *testing.T, st store.Store)) *Server {
	t.Helper()

	st := store.NewMemoryStore()
	if seed != nil {
		seed(t, st)
	}

	cfg := &config.Config{
		Store: config.StoreCfg{
			DefaultCollection:  "/onShapeLogs",
			UploadedCollection: "/uploaded-jsons",
		},
		Dates: config.DatesCfg{DefaultMin: "21-04-2021"},
	}
	sess, err := session.New(context.Background(), st, cfg)
	require.NoError(t, err)

	return New(sess, ":0")
}

func seedDefaultLog(t *testing.T, st store.Store, rows []store.Record) {
	t.Helper()
	err := st.Write(context.Background(), "/onShapeLogs", "seed",
		store.Entry{FileName: "default.json", Data: rows})
	require.NoError(t, err)
}

func seedUploadedLog(t *testing.T, st store.Store, key, name string, rows []store.Record) {
	t.Helper()
	err := st.Write(context.Background(), "/uploaded-jsons", key,
		store.Entry{FileName: name, Data: rows})
	require.NoError(t, err)
}

func doJSON(t *testing.T, srv *Server, method, target string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestGetHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestGetFilters(t *testing.T) {
	srv := newTestServer(t, func(t *testing.T, st store.Store) {
		seedDefaultLog(t, st, defaultRows())
	})

	resp := doJSON(t, srv, http.MethodGet, "/api/filters", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Documents    []string `json:"documents"`
		Users        []string `json:"users"`
		UploadedLogs []string `json:"uploaded_logs"`
		Graphs       []string `json:"graphs"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, []string{"Bracket", "Gearbox"}, body.Documents)
	assert.Equal(t, []string{"alice", "bob"}, body.Users)
	assert.Equal(t, []string{"Default Log"}, body.UploadedLogs)
	assert.Len(t, body.Graphs, 5)
}

func TestPostSwitchLog(t *testing.T) {
	srv := newTestServer(t, func(t *testing.T, st store.Store) {
		seedDefaultLog(t, st, defaultRows())
		seedUploadedLog(t, st, "k1", "sprint-3.json", defaultRows()[:2])
	})

	resp := doJSON(t, srv, http.MethodPost, "/api/logs/switch", map[string]string{"name": "sprint-3.json"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Selected string `json:"selected"`
		Rows     int    `json:"rows"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "sprint-3.json", body.Selected)
	assert.Equal(t, 2, body.Rows)
}

func TestPostSwitchLog_NotFound(t *testing.T) {
	srv := newTestServer(t, func(t *testing.T, st store.Store) {
		seedDefaultLog(t, st, defaultRows())
	})

	resp := doJSON(t, srv, http.MethodPost, "/api/logs/switch", map[string]string{"name": "nope.json"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Contains(t, body["error"], "nope.json")
}

func TestPostUploadLog(t *testing.T) {
	srv := newTestServer(t, func(t *testing.T, st store.Store) {
		seedDefaultLog(t, st, defaultRows())
	})

	payload := map[string]interface{}{
		"fileName": "sprint-9.json",
		"data":     defaultRows()[:1],
	}
	resp := doJSON(t, srv, http.MethodPost, "/api/logs/upload", payload)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Uploaded string `json:"uploaded"`
		Rows     int    `json:"rows"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "sprint-9.json", body.Uploaded)
	assert.Equal(t, 1, body.Rows)
}

func TestPostUploadLog_Invalid(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := doJSON(t, srv, http.MethodPost, "/api/logs/upload", map[string]interface{}{
		"fileName": "",
		"data":     []store.Record{},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAlertEndpoints(t *testing.T) {
	srv := newTestServer(t, func(t *testing.T, st store.Store) {
		var rows []store.Record
		for i := 0; i < 16; i++ {
			ts := fmt.Sprintf("2024-05-01 10:%02d:00", i)
			rows = append(rows, record(ts, "alice", "Bracket", "Part Studio 1", "Undo Sketch 1"))
		}
		seedDefaultLog(t, st, rows)
	})

	resp := doJSON(t, srv, http.MethodGet, "/api/alerts", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var alertsBody struct {
		Alerts []struct {
			User       string `json:"user"`
			Indication string `json:"indication"`
			Status     string `json:"status"`
		} `json:"alerts"`
		Unread int `json:"unread"`
	}
	decodeBody(t, resp, &alertsBody)
	require.Len(t, alertsBody.Alerts, 1)
	assert.Equal(t, "alice", alertsBody.Alerts[0].User)
	assert.Equal(t, "unread", alertsBody.Alerts[0].Status)
	assert.Equal(t, 1, alertsBody.Unread)

	resp = doJSON(t, srv, http.MethodPost, "/api/alerts/ack", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodGet, "/api/alerts/unread", nil)
	var unreadBody struct {
		Unread int `json:"unread"`
	}
	decodeBody(t, resp, &unreadBody)
	assert.Equal(t, 0, unreadBody.Unread)
}

func TestGetGraph(t *testing.T) {
	srv := newTestServer(t, func(t *testing.T, st store.Store) {
		seedDefaultLog(t, st, defaultRows())
	})

	resp := doJSON(t, srv, http.MethodGet, "/api/graphs/document_usage", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Graph string `json:"graph"`
		Data  []struct {
			Document string `json:"document"`
			Count    int    `json:"count"`
		} `json:"data"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "document_usage", body.Graph)
	require.Len(t, body.Data, 2)
	assert.Equal(t, "Bracket", body.Data[0].Document)
	assert.Equal(t, 2, body.Data[0].Count)
}

func TestGetGraph_Unknown(t *testing.T) {
	srv := newTestServer(t, func(t *testing.T, st store.Store) {
		seedDefaultLog(t, st, defaultRows())
	})

	resp := doJSON(t, srv, http.MethodGet, "/api/graphs/bogus", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetGraph_BadTimeRange(t *testing.T) {
	srv := newTestServer(t, func(t *testing.T, st store.Store) {
		seedDefaultLog(t, st, defaultRows())
	})

	resp := doJSON(t, srv, http.MethodGet, "/api/graphs/document_usage?from=whenever", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetTable(t *testing.T) {
	srv := newTestServer(t, func(t *testing.T, st store.Store) {
		seedDefaultLog(t, st, defaultRows())
	})

	resp := doJSON(t, srv, http.MethodGet, "/api/table", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Selected string `json:"selected"`
		Count    int    `json:"count"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "default.json", body.Selected)
	assert.Equal(t, 3, body.Count)

	resp = doJSON(t, srv, http.MethodGet, "/api/table?user=alice", nil)
	decodeBody(t, resp, &body)
	assert.Equal(t, 2, body.Count)
}

func TestGetBounds(t *testing.T) {
	srv := newTestServer(t, func(t *testing.T, st store.Store) {
		seedDefaultLog(t, st, defaultRows())
	})

	resp := doJSON(t, srv, http.MethodGet, "/api/bounds", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		MinDate        string `json:"min_date"`
		MaxDate        string `json:"max_date"`
		SelectedLog    string `json:"selected_log"`
		MissingDefault bool   `json:"missing_default"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "2024-05-01T10:00", body.MinDate)
	assert.Equal(t, "2024-05-01T11:30", body.MaxDate)
	assert.Equal(t, "default.json", body.SelectedLog)
	assert.False(t, body.MissingDefault)
}

func TestGetLogs(t *testing.T) {
	srv := newTestServer(t, func(t *testing.T, st store.Store) {
		seedDefaultLog(t, st, defaultRows())
		seedUploadedLog(t, st, "k1", "sprint-3.json", defaultRows()[:1])
	})

	resp := doJSON(t, srv, http.MethodGet, "/api/logs", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Logs     []string `json:"logs"`
		Selected string   `json:"selected"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, []string{"Default Log", "sprint-3.json"}, body.Logs)
	assert.Equal(t, "default.json", body.Selected)
}
