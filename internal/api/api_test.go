package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/starford/filecat/internal/expansion"
	"github.com/starford/filecat/internal/filter"
	"github.com/starford/filecat/internal/render"
	"github.com/starford/filecat/internal/testutil"
)

func testEnv(t *testing.T, authToken string) (http.Handler, *expansion.Memory) {
	t.Helper()
	svc, mem := testutil.TestService(t, testutil.SitePaths...)
	return NewRouter(svc, authToken != "", authToken, nil), mem
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestTree(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/catalog?sort=name", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	v := decodeBody[render.DirectoryView](t, w)
	if v.Root != "/" || !v.Expanded {
		t.Errorf("root = %+v", v)
	}
	var names []string
	for _, d := range v.Directories {
		names = append(names, d.Name)
	}
	if !slices.Equal(names, []string{"content", "views"}) {
		t.Errorf("directories = %v", names)
	}
}

func TestFiles(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/catalog/files", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decodeBody[FileListResponse](t, w)
	if resp.Total != 5 || len(resp.Files) != 5 {
		t.Fatalf("total = %d, files = %v", resp.Total, resp.Files)
	}
	if resp.Files[0].Path != "/content/pages/index.yaml" {
		t.Errorf("first file = %s", resp.Files[0].Path)
	}
}

func TestToggle(t *testing.T) {
	router, mem := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/catalog/toggle", ToggleRequest{Root: "/content/"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if resp := decodeBody[ToggleResponse](t, w); !resp.Expanded {
		t.Errorf("resp = %+v", resp)
	}
	persisted, _ := mem.GetArray(expansion.StorageName)
	if !slices.Equal(persisted, []string{"/content/"}) {
		t.Errorf("persisted = %v", persisted)
	}

	w = do(t, router, http.MethodPost, "/catalog/toggle", ToggleRequest{Root: "/content/"})
	if resp := decodeBody[ToggleResponse](t, w); resp.Expanded {
		t.Errorf("second toggle should collapse: %+v", resp)
	}
}

func TestToggleErrors(t *testing.T) {
	router, _ := testEnv(t, "")

	tests := []struct {
		name string
		body any
		want int
	}{
		{"unknown root", ToggleRequest{Root: "/missing/"}, http.StatusNotFound},
		{"empty root", ToggleRequest{}, http.StatusBadRequest},
		{"file path", ToggleRequest{Root: "/views/base.html"}, http.StatusBadRequest},
		{"bad json", "not an object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/catalog/toggle", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d, body = %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestReveal(t *testing.T) {
	router, mem := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/catalog/reveal", RevealRequest{Path: "/content/pages/sub/page.yaml"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decodeBody[RevealResponse](t, w)
	want := []string{"/", "/content/", "/content/pages/", "/content/pages/sub/"}
	if !slices.Equal(resp.Expanded, want) {
		t.Errorf("expanded = %v, want %v", resp.Expanded, want)
	}
	if mem.Writes() != 0 {
		t.Errorf("reveal wrote %d times to the backend", mem.Writes())
	}

	// Unknown and relative paths are not errors.
	for _, p := range []string{"/nope/x.yaml", "relative.yaml"} {
		w = do(t, router, http.MethodPost, "/catalog/reveal", RevealRequest{Path: p})
		if w.Code != http.StatusOK {
			t.Errorf("reveal %q status = %d", p, w.Code)
		}
	}
}

func TestFilter(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(t, router, http.MethodPut, "/catalog/filter", FilterRequest{Includes: []string{"(["}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid pattern status = %d", w.Code)
	}
	w = do(t, router, http.MethodGet, "/catalog/filter", nil)
	if cfg := decodeBody[filter.Config](t, w); !slices.Equal(cfg.Includes, filter.SiteConfig.Includes) {
		t.Errorf("filter changed after invalid update: %+v", cfg)
	}

	w = do(t, router, http.MethodPut, "/catalog/filter", FilterRequest{Includes: []string{`\.png$`}, Excludes: []string{`/_`}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	w = do(t, router, http.MethodGet, "/catalog/files", nil)
	resp := decodeBody[FileListResponse](t, w)
	if resp.Total != 2 {
		t.Errorf("files = %v", resp.Files)
	}

	w = do(t, router, http.MethodPut, "/catalog/filter", FilterRequest{Includes: []string{""}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty pattern status = %d", w.Code)
	}
}

func TestRebuild(t *testing.T) {
	router, _ := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/catalog/rebuild", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d", w.Code)
	}
}

func TestReferenceOptions(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/reference/options", nil)
	resp := decodeBody[OptionsResponse](t, w)
	var values []string
	for _, o := range resp.Options {
		values = append(values, o.Value)
	}
	if !slices.Equal(values, []string{"/static/img/a.png", "/static/img/b.png"}) {
		t.Errorf("options = %v", values)
	}

	w = do(t, router, http.MethodGet, "/reference/options?q=B.PNG", nil)
	if resp := decodeBody[OptionsResponse](t, w); len(resp.Options) != 1 {
		t.Errorf("query options = %v", resp.Options)
	}

	w = do(t, router, http.MethodGet, "/reference/options?limit=1", nil)
	if resp := decodeBody[OptionsResponse](t, w); len(resp.Options) != 1 {
		t.Errorf("limited options = %v", resp.Options)
	}

	w = do(t, router, http.MethodGet, "/reference/options?q=zzz", nil)
	if !strings.Contains(w.Body.String(), `"options":[]`) {
		t.Errorf("empty options should encode as []: %s", w.Body.String())
	}
}

func TestAuth(t *testing.T) {
	router, _ := testEnv(t, "secret")

	w := do(t, router, http.MethodGet, "/catalog", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/catalog", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token status = %d", w.Code)
	}
}
