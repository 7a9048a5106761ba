package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kotaehq/kotae/internal/answer"
	"github.com/kotaehq/kotae/internal/config"
	"github.com/kotaehq/kotae/internal/embedding"
	"github.com/kotaehq/kotae/internal/ingest"
	"github.com/kotaehq/kotae/internal/llm"
	"github.com/kotaehq/kotae/internal/matheval"
	"github.com/kotaehq/kotae/internal/prompt"
	"github.com/kotaehq/kotae/internal/rag"
	"github.com/kotaehq/kotae/internal/retrieval"
	"github.com/kotaehq/kotae/internal/storage"
	"github.com/kotaehq/kotae/internal/vectorstore"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	docsDir := t.TempDir()

	processor, err := ingest.NewProcessor(docsDir, 600, 200)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	registry, err := storage.NewSQLiteRegistry(filepath.Join(t.TempDir(), "kotae.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRegistry: %v", err)
	}
	t.Cleanup(func() { registry.Close() })

	store, err := vectorstore.NewMemoryStore(32)
	if err != nil {
		t.Fatal(err)
	}
	retriever := retrieval.NewVectorRetriever(embedding.NewMockEmbedder(32), store)
	generator := answer.NewGenerator(&llm.StaticBackend{Response: "the answer"}, prompt.NewRegistry())

	handle := rag.NewHandle()
	builder := rag.NewBuilder(processor, retriever, retriever, generator, handle, rag.Options{}, nil)

	srv := NewServer(handle, builder, registry, processor, matheval.NewEvaluator(),
		&config.ServerConfig{Host: "localhost", Port: 0}, zap.NewNop())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func uploadFile(t *testing.T, url, filename, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	resp, err := http.Post(url+"/api/v1/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestQueryBeforeUpload(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/query", map[string]string{"query": "anything"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	var body map[string]string
	decode(t, resp, &body)
	if !strings.Contains(body["error"], "No documents") {
		t.Errorf("error = %q", body["error"])
	}
}

func TestUploadThenQuery(t *testing.T) {
	ts := newTestServer(t)

	resp := uploadFile(t, ts.URL, "facts.txt", "kotae is a document question answering service")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}
	var up struct {
		Message string   `json:"message"`
		Files   []string `json:"files"`
	}
	decode(t, resp, &up)
	if len(up.Files) != 1 || !strings.HasSuffix(up.Files[0], "_facts.txt") {
		t.Errorf("files = %v", up.Files)
	}

	resp = postJSON(t, ts.URL+"/api/v1/query", map[string]string{"query": "what is kotae?"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("query status = %d", resp.StatusCode)
	}
	var q queryResponse
	decode(t, resp, &q)
	if q.Answer != "the answer" {
		t.Errorf("answer = %q", q.Answer)
	}
	if q.RetrievedCount == 0 {
		t.Error("nothing retrieved")
	}
	if len(q.Sources) != 1 || q.Sources[0] == "" {
		t.Errorf("sources = %v", q.Sources)
	}
}

func TestUploadRejectsBadExtension(t *testing.T) {
	ts := newTestServer(t)

	resp := uploadFile(t, ts.URL, "malware.exe", "nope")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var body map[string]string
	decode(t, resp, &body)
	if !strings.Contains(body["error"], "invalid extension") {
		t.Errorf("error = %q", body["error"])
	}
}

func TestMathEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/math", map[string]string{"expression": "what is 2 plus 2"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	decode(t, resp, &body)
	if body["result"] != "4.0" {
		t.Errorf("result = %q", body["result"])
	}

	// Invalid math still answers 200 with a diagnostic.
	resp = postJSON(t, ts.URL+"/api/v1/math", map[string]string{"expression": "2 + + +"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	decode(t, resp, &body)
	if !strings.HasPrefix(body["result"], "Invalid expression:") {
		t.Errorf("result = %q", body["result"])
	}

	resp = postJSON(t, ts.URL+"/api/v1/math", map[string]string{"expression": " "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty expression status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestReuploadReplacesDocument(t *testing.T) {
	ts := newTestServer(t)

	for _, content := range []string{"first version", "second version"} {
		resp := uploadFile(t, ts.URL, "notes.txt", content)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("upload status = %d", resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/api/v1/documents")
	if err != nil {
		t.Fatal(err)
	}
	var list struct {
		Documents []string `json:"documents"`
		Count     int      `json:"count"`
	}
	decode(t, resp, &list)
	if list.Count != 1 {
		t.Fatalf("count after re-upload = %d, want 1", list.Count)
	}

	// Only the latest version should be indexed.
	resp, _ = http.Get(ts.URL + "/api/v1/status")
	var status struct {
		Documents int `json:"documents"`
		Passages  int `json:"passages"`
	}
	decode(t, resp, &status)
	if status.Documents != 1 || status.Passages != 1 {
		t.Errorf("status after re-upload = %+v", status)
	}
}

func TestDocumentLifecycle(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 2; i++ {
		resp := uploadFile(t, ts.URL, fmt.Sprintf("doc%d.txt", i), fmt.Sprintf("content number %d", i))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("upload status = %d", resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/api/v1/documents")
	if err != nil {
		t.Fatal(err)
	}
	var list struct {
		Documents []string `json:"documents"`
		Count     int      `json:"count"`
	}
	decode(t, resp, &list)
	if list.Count != 2 {
		t.Fatalf("count = %d, want 2", list.Count)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/documents/doc0.txt", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Deleting a missing document is a 404.
	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/documents/doc0.txt", nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("repeat delete status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()

	// Delete-all clears the pipeline: queries 404 again.
	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/documents", nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete all status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/v1/query", map[string]string{"query": "anything"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("query after delete all = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestStatusAndHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/status")
	if err != nil {
		t.Fatal(err)
	}
	var status struct {
		Documents int  `json:"documents"`
		Passages  int  `json:"passages"`
		Ready     bool `json:"ready"`
	}
	decode(t, resp, &status)
	if status.Ready || status.Documents != 0 {
		t.Errorf("fresh status = %+v", status)
	}

	resp = uploadFile(t, ts.URL, "doc.txt", "some document content")
	resp.Body.Close()

	resp, _ = http.Get(ts.URL + "/api/v1/status")
	decode(t, resp, &status)
	if !status.Ready || status.Documents != 1 || status.Passages == 0 {
		t.Errorf("status after upload = %+v", status)
	}

	resp, _ = http.Get(ts.URL + "/health")
	var health map[string]string
	decode(t, resp, &health)
	if health["status"] != "ok" {
		t.Errorf("health = %v", health)
	}
}
