package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clauselens/clauselens/contrib/embedder/tfidf"
	"github.com/clauselens/clauselens/ingest"
	"github.com/clauselens/clauselens/passage"
	"github.com/clauselens/clauselens/session"
	"github.com/clauselens/clauselens/tool"
)

type echoGen struct{ reply string }

func (g *echoGen) Generate(_ context.Context, _ string) (string, error) { return g.reply, nil }
func (g *echoGen) SetTemperature(_ float64)                             {}
func (g *echoGen) SetModel(_ string)                                    {}

func newTestServer(t *testing.T) (*Server, *session.Manager) {
	t.Helper()
	factory := func() (passage.Store, *tool.Toolset, error) {
		st := passage.NewInMemoryStore(tfidf.New())
		return st, tool.New(st, &echoGen{reply: "The notice period is sixty days."}), nil
	}
	manager := session.NewManager(factory)
	return NewServer(manager, DefaultConfig(), nil), manager
}

func createSession(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid create response: %v", err)
	}
	return resp["session_id"]
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Router()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health returned %d", rec.Code)
	}
}

func TestUploadAndTurn(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Router()
	id := createSession(t, handler)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/documents?source=sample.txt",
		strings.NewReader(ingest.SampleContract()))
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload returned %d: %s", rec.Code, rec.Body.String())
	}
	var up uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &up); err != nil || up.Passages == 0 {
		t.Fatalf("unexpected upload response %s (err %v)", rec.Body.String(), err)
	}

	body, _ := json.Marshal(turnRequest{Message: "what does the termination clause say?"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/turns", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("turn returned %d: %s", rec.Code, rec.Body.String())
	}
	var result map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid turn response: %v", err)
	}
	if result["answer"] == "" {
		t.Error("expected an answer in the turn response")
	}
}

func TestTurnValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Router()
	id := createSession(t, handler)

	body, _ := json.Marshal(turnRequest{Message: "  "})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/turns", bytes.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty message should be 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/turns", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body should be 400, got %d", rec.Code)
	}
}

func TestUnknownSessionIs404(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Router()

	body, _ := json.Marshal(turnRequest{Message: "hello"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions/nope/turns", bytes.NewReader(body)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown session should be 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions/nope/documents", strings.NewReader("text")))
	if rec.Code != http.StatusNotFound {
		t.Errorf("upload to unknown session should be 404, got %d", rec.Code)
	}
}

func TestEmptyUploadRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Router()
	id := createSession(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/documents", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty upload should be 400, got %d", rec.Code)
	}
}

func TestExportImport(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Router()
	id := createSession(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id+"/export", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("export returned %d", rec.Code)
	}

	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/import", bytes.NewReader(rec.Body.Bytes())))
	if rec2.Code != http.StatusOK {
		t.Fatalf("import returned %d: %s", rec2.Code, rec2.Body.String())
	}
}

func TestDeleteSession(t *testing.T) {
	srv, manager := newTestServer(t)
	handler := srv.Router()
	id := createSession(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/"+id, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete returned %d", rec.Code)
	}
	if manager.Len() != 0 {
		t.Errorf("expected no sessions after delete, got %d", manager.Len())
	}
}
