package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/use-agent/pagedrop/config"
	"github.com/use-agent/pagedrop/extract"
	"github.com/use-agent/pagedrop/models"
	"github.com/use-agent/pagedrop/process"
)

const productPage = `<html><body>
<h1 class="product-title">Brass Lamp</h1>
<p class="actual-price">$12.50</p>
<div class="product-image-wrapper product-wrapper-inline"><picture><source srcset="https://cdn.example/lamp.webp 1x"></picture></div>
<div class="product-description-list"><li>Warm light</li></div>
</body></html>`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Server.Mode = "test"
	cfg.Server.MaxBodyBytes = 1 << 20
	cfg.RateLimit.RequestsPerSecond = 1000
	cfg.RateLimit.Burst = 1000
	return cfg
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	prod, err := extract.NewProductProfile(extract.Selectors{
		Title:       cfg.Extract.TitleSelector,
		Price:       cfg.Extract.PriceSelector,
		Image:       cfg.Extract.ImageSelector,
		Description: cfg.Extract.DescriptionSelector,
	})
	if err != nil {
		t.Fatal(err)
	}
	ex, err := extract.New("product", prod, extract.NewPageProfile())
	if err != nil {
		t.Fatal(err)
	}
	return NewRouter(process.New(ex, process.Options{}), cfg)
}

func do(h http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGreetings(t *testing.T) {
	h := newTestRouter(t, testConfig(t))

	tests := []struct {
		path string
		want string
	}{
		{"/", "Hello, world!"},
		{"/api/", `{"message":"Hello World!!!"}`},
		{"/api/health-check", `{"message":"Server is running"}`},
	}
	for _, tt := range tests {
		w := do(h, http.MethodGet, tt.path, "", "")
		if w.Code != http.StatusOK || w.Body.String() != tt.want {
			t.Errorf("GET %s = %d %q, want %q", tt.path, w.Code, w.Body.String(), tt.want)
		}
	}
	if got := do(h, http.MethodGet, "/", "", "").Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS origin = %q", got)
	}
}

func TestProcess_RawRoutes(t *testing.T) {
	h := newTestRouter(t, testConfig(t))
	for _, path := range []string{"/", "/api"} {
		w := do(h, http.MethodPost, path, "text/plain", productPage)
		if w.Code != http.StatusOK {
			t.Fatalf("POST %s = %d %s", path, w.Code, w.Body.String())
		}
		want := `{"message":"Processing successful","data":{"name":"Brass Lamp","slug":"brass-lamp","description":"Warm light","price":"12.50","image_url":"https://cdn.example/lamp.webp","image_name":"brass-lamp.png"}}`
		if w.Body.String() != want {
			t.Errorf("POST %s body =\n%s\nwant\n%s", path, w.Body.String(), want)
		}
	}
}

func TestProcess_JSONRoute(t *testing.T) {
	h := newTestRouter(t, testConfig(t))
	body, _ := json.Marshal(models.ProcessHTMLRequest{HTML: productPage})
	w := do(h, http.MethodPost, "/api/process_html", "application/json", string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d %s", w.Code, w.Body.String())
	}
	var resp models.BackendResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message != "Processing successful" || resp.Data == nil {
		t.Errorf("resp = %+v", resp)
	}
}

func TestProcess_Failures(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.MaxBodyBytes = 64
	h := newTestRouter(t, cfg)

	tests := []struct {
		name        string
		path        string
		contentType string
		body        string
		status      int
		code        string
	}{
		{"no product", "/", "text/plain", "<p>hi</p>", http.StatusBadRequest, models.ErrCodeExtraction},
		{"empty body", "/api", "text/plain", "", http.StatusBadRequest, models.ErrCodeExtraction},
		{"bad json", "/api/process_html", "application/json", "{", http.StatusBadRequest, models.ErrCodeInvalidInput},
		{"unknown profile", "/?profile=zzz", "text/plain", "<p>hi</p>", http.StatusBadRequest, models.ErrCodeInvalidInput},
		{"too large", "/", "text/plain", strings.Repeat("x", 100), http.StatusRequestEntityTooLarge, models.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, http.MethodPost, tt.path, tt.contentType, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			var resp models.BackendResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Message != "Failed to process HTML content" || resp.Error == nil || resp.Error.Code != tt.code {
				t.Errorf("resp = %+v, error = %+v", resp, resp.Error)
			}
		})
	}
}

func TestAuthAndRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.Enabled = true
	cfg.Auth.APIKeys = []string{"k1"}
	cfg.RateLimit.RequestsPerSecond = 0.001
	cfg.RateLimit.Burst = 1
	h := newTestRouter(t, cfg)

	if w := do(h, http.MethodPost, "/", "text/plain", productPage); w.Code != http.StatusUnauthorized {
		t.Errorf("no key = %d, want 401", w.Code)
	}
	// Health stays open.
	if w := do(h, http.MethodGet, "/api/health-check", "", ""); w.Code != http.StatusOK {
		t.Errorf("health = %d", w.Code)
	}

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(productPage))
		req.Header.Set("Authorization", "Bearer k1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}
	if code := send(); code != http.StatusOK {
		t.Fatalf("first = %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Errorf("second = %d, want 429", code)
	}
}

func TestPreflight(t *testing.T) {
	h := newTestRouter(t, testConfig(t))
	w := do(h, http.MethodOptions, "/api/process_html", "", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("allow-methods missing")
	}
}
