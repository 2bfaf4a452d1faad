package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go-quotepdf/internal/config"
	"go-quotepdf/internal/generator"
	"go-quotepdf/internal/htmltpl"
	"go-quotepdf/internal/pdf"
	"go-quotepdf/internal/pdftest"
	"go-quotepdf/internal/utils"

	"go.uber.org/zap"
)

// fakeRenderer stands in for the browser and returns a fixed-size PDF.
type fakeRenderer struct {
	t     *testing.T
	pages int
	err   error
	calls atomic.Int32
}

func (f *fakeRenderer) Render(_ context.Context, html string) ([]byte, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return pdftest.PDF(f.t, f.pages), nil
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.WorkDir = "tmp"
	return cfg
}

func setupTestServer(t *testing.T, cfg config.Config, r *fakeRenderer) *httptest.Server {
	t.Helper()
	r.t = t
	s := &Server{
		Config: cfg,
		Logger: zap.NewNop(),
		Generator: &generator.Generator{
			Template:    htmltpl.New(cfg.TemplatePath, cfg.LogoPath),
			Renderer:    r,
			AnnexPaths:  cfg.AnnexPaths,
			GeneratedBy: cfg.GeneratedBy,
			Location:    time.UTC,
			Log:         zap.NewNop(),
		},
	}
	server := httptest.NewServer(s.RegisterRoutes())
	t.Cleanup(server.Close)
	return server
}

func TestMain(m *testing.M) {
	os.Chdir("../../") // Change to project root
	code := m.Run()
	utils.CleanDir("tmp")
	os.Exit(code)
}

func post(t *testing.T, url, body string, header map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	if body["ok"] != false {
		t.Errorf("expected ok=false, got %v", body["ok"])
	}
	return body
}

func TestHealth(t *testing.T) {
	server := setupTestServer(t, testConfig(), &fakeRenderer{pages: 1})

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("Failed to call health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", resp.StatusCode)
	}
	var result map[string]bool
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !result["ok"] {
		t.Error("Expected ok=true")
	}
}

func TestGenerateQuotation(t *testing.T) {
	server := setupTestServer(t, testConfig(), &fakeRenderer{pages: 2})

	resp := post(t, server.URL+"/pdf/cotizacion", `{
		"cotNumber": "1234",
		"organizacion": "Acme",
		"items": [{"tecnologia": "LED", "cantidad": 2, "valorUnitario": 150000, "acr": "SI"}]
	}`, nil)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected 200 OK, got %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `inline; filename="COT-1234.pdf"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	data, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatal("response is not a PDF")
	}
	n, err := pdf.PageCount(data)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 pages with no annexes on disk, got %d", n)
	}
}

func TestGenerateQuotation_Annexes(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.AnnexPaths = []string{
		pdftest.WriteFile(t, dir, "anexo1.pdf", 1),
		filepath.Join(dir, "anexo2.pdf"),
		pdftest.WriteFile(t, dir, "anexo3.pdf", 2),
	}
	server := setupTestServer(t, cfg, &fakeRenderer{pages: 1})

	resp := post(t, server.URL+"/pdf/cotizacion", `{}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `inline; filename="COT-.pdf"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	data, _ := io.ReadAll(resp.Body)
	n, err := pdf.PageCount(data)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("expected 1 main + 3 annex pages, got %d", n)
	}
}

func TestGenerateQuotation_APIKey(t *testing.T) {
	t.Run("no key configured", func(t *testing.T) {
		server := setupTestServer(t, testConfig(), &fakeRenderer{pages: 1})
		resp := post(t, server.URL+"/pdf/cotizacion", `{}`, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200 OK without a configured key, got %d", resp.StatusCode)
		}
	})

	cfg := testConfig()
	cfg.APIKey = "s3cret"

	cases := []struct {
		name   string
		header map[string]string
		want   int
	}{
		{"missing key", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{"x-api-key": "guess"}, http.StatusUnauthorized},
		{"prefix of key", map[string]string{"x-api-key": "s3cre"}, http.StatusUnauthorized},
		{"correct key", map[string]string{"X-Api-Key": "s3cret"}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &fakeRenderer{pages: 1}
			server := setupTestServer(t, cfg, r)

			resp := post(t, server.URL+"/pdf/cotizacion", `{}`, tc.header)
			if resp.StatusCode != tc.want {
				t.Fatalf("Expected %d, got %d", tc.want, resp.StatusCode)
			}
			if tc.want == http.StatusUnauthorized {
				body := decodeError(t, resp)
				if body["error"] != "Unauthorized" {
					t.Errorf("error = %v", body["error"])
				}
				if r.calls.Load() != 0 {
					t.Error("renderer called for an unauthorized request")
				}
			}
		})
	}
}

func TestGenerateQuotation_MissingTemplate(t *testing.T) {
	cfg := testConfig()
	cfg.TemplatePath = "templates/does-not-exist.html"
	r := &fakeRenderer{pages: 1}
	server := setupTestServer(t, cfg, r)

	resp := post(t, server.URL+"/pdf/cotizacion", `{"cotNumber":"9"}`, nil)

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected a JSON error, got Content-Type %q", ct)
	}
	body := decodeError(t, resp)
	if msg, _ := body["error"].(string); !strings.Contains(msg, "does-not-exist.html") {
		t.Errorf("error should name the template, got %q", msg)
	}
	if r.calls.Load() != 0 {
		t.Error("renderer called without a template")
	}
}

func TestGenerateQuotation_RenderFailure(t *testing.T) {
	server := setupTestServer(t, testConfig(), &fakeRenderer{err: errors.New("chrome exited")})

	resp := post(t, server.URL+"/pdf/cotizacion", `{}`, nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", resp.StatusCode)
	}
	if body := decodeError(t, resp); body["error"] != "chrome exited" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestGenerateQuotation_BadBodies(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodyBytes = 64
	server := setupTestServer(t, cfg, &fakeRenderer{pages: 1})

	cases := []struct {
		name string
		body string
		want int
	}{
		{"not an object", `[1,2,3]`, http.StatusBadRequest},
		{"invalid json", `{"cot":`, http.StatusBadRequest},
		{"too large", `{"extraText":"` + strings.Repeat("x", 128) + `"}`, http.StatusRequestEntityTooLarge},
		{"empty body", ``, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := post(t, server.URL+"/pdf/cotizacion", tc.body, nil)
			if resp.StatusCode != tc.want {
				t.Fatalf("Expected %d, got %d", tc.want, resp.StatusCode)
			}
			if tc.want != http.StatusOK {
				decodeError(t, resp)
			}
		})
	}
}

func TestPreviewQuotation(t *testing.T) {
	r := &fakeRenderer{pages: 1}
	server := setupTestServer(t, testConfig(), r)

	resp := post(t, server.URL+"/html/cotizacion", `{"cot":"COT-77","firstname":"<script>x</script>"}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	html, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(html), "<script>") {
		t.Error("user text rendered as live markup")
	}
	if !strings.Contains(string(html), "COT-77") || !strings.Contains(string(html), htmltpl.EmptyRow) {
		t.Error("preview missing label or placeholder row")
	}
	if r.calls.Load() != 0 {
		t.Error("preview should not render a PDF")
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	server := setupTestServer(t, cfg, &fakeRenderer{pages: 1})

	if resp := post(t, server.URL+"/html/cotizacion", `{}`, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", resp.StatusCode)
	}
	resp := post(t, server.URL+"/html/cotizacion", `{}`, nil)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", resp.StatusCode)
	}
	decodeError(t, resp)

	health, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Errorf("health should not be rate limited, got %d", health.StatusCode)
	}
}

func TestSwaggerLocalhostOnly(t *testing.T) {
	handler := localhostOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for addr, want := range map[string]int{
		"127.0.0.1:5555":   http.StatusOK,
		"[::1]:5555":       http.StatusOK,
		"203.0.113.9:5555": http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("%s: expected %d, got %d", addr, want, rec.Code)
		}
	}
}
