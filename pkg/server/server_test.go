package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/matzehuels/vardump/pkg/errors"
	"github.com/matzehuels/vardump/pkg/observability"
	"github.com/matzehuels/vardump/pkg/store"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	s := New(store.NewMemoryStore(), opts...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, method, url, contentType, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(data)
}

func create(t *testing.T, ts *httptest.Server, query, contentType, body string) uuid.UUID {
	t.Helper()
	resp, data := do(t, http.MethodPost, ts.URL+"/dumps"+query, contentType, body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /dumps status = %d, body %s", resp.StatusCode, data)
	}
	var out createResponse
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		t.Fatal(err)
	}
	if got := resp.Header.Get("Location"); got != out.URL {
		t.Errorf("Location = %s, want %s", got, out.URL)
	}
	return out.ID
}

func TestCreateAndShow(t *testing.T) {
	_, ts := newTestServer(t)
	id := create(t, ts, "?name=demo", "application/json", `{"users": [{"name": "ada"}], "ok": true}`)

	resp, page := do(t, http.MethodGet, ts.URL+"/dumps/"+id.String(), "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %s, want text/html", ct)
	}
	for _, want := range []string{
		`data-snapshot="` + id.String() + `"`,
		`<span class="name">users</span>`,
		`<li class="collapsed" data-node="1">`,
		`<span class="boolean">true</span>`,
		"<script>",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %s", want)
		}
	}
}

func TestCreateFormats(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name        string
		query       string
		contentType string
		body        string
	}{
		{"yaml content type", "", "application/yaml", "a: 1\n"},
		{"toml query", "?format=toml", "text/plain", "a = 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := create(t, ts, tt.query, tt.contentType, tt.body)
			_, page := do(t, http.MethodGet, ts.URL+"/dumps/"+id.String(), "", "")
			if !strings.Contains(page, `<span class="name">a</span>`) {
				t.Errorf("page missing key a:\n%s", page)
			}
		})
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name   string
		query  string
		body   string
		status int
	}{
		{"invalid json", "", `{"a": `, http.StatusBadRequest},
		{"unknown format", "?format=xml", `<a/>`, http.StatusBadRequest},
		{"bad name", "?name=a/b", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, ts.URL+"/dumps"+tt.query, "application/json", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.status, body)
			}
			var e errorResponse
			if err := json.Unmarshal([]byte(body), &e); err != nil || e.Error == "" {
				t.Errorf("body %q is not an error response", body)
			}
		})
	}
}

func TestToggleBuildsOnceAndRendersFragment(t *testing.T) {
	_, ts := newTestServer(t)
	id := create(t, ts, "", "application/json", `{"list": [1, 2], "empty": {}}`)
	base := ts.URL + "/dumps/" + id.String() + "/nodes/"

	resp, frag := do(t, http.MethodPost, base+"1/toggle", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle status = %d, body %s", resp.StatusCode, frag)
	}
	if !strings.HasPrefix(frag, `<li class="expanded" data-node="1">`) {
		t.Errorf("fragment should start with the expanded row:\n%s", frag)
	}
	if !strings.Contains(frag, `<span class="number">2</span>`) {
		t.Errorf("fragment should list the children:\n%s", frag)
	}

	_, frag = do(t, http.MethodPost, base+"1/toggle", "", "")
	if !strings.Contains(frag, `<li class="collapsed" data-node="1">`) ||
		!strings.Contains(frag, `style="display:none"`) {
		t.Errorf("second toggle should collapse and keep the hidden list:\n%s", frag)
	}

	_, frag = do(t, http.MethodPost, base+"2/toggle", "", "")
	if !strings.Contains(frag, `<span class="empty">empty</span>`) {
		t.Errorf("empty container should render the placeholder:\n%s", frag)
	}

	_, page := do(t, http.MethodGet, ts.URL+"/dumps/"+id.String(), "", "")
	if !strings.Contains(page, `<li class="expanded" data-node="2">`) {
		t.Error("page should reflect toggled state")
	}
}

func TestToggleErrors(t *testing.T) {
	_, ts := newTestServer(t)
	id := create(t, ts, "", "application/json", `[1]`)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"unknown node", "/dumps/" + id.String() + "/nodes/99/toggle", http.StatusNotFound},
		{"bad node", "/dumps/" + id.String() + "/nodes/x/toggle", http.StatusBadRequest},
		{"bad tree id", "/dumps/" + id.String() + "/nodes/0/toggle?tree=x", http.StatusBadRequest},
		{"unknown dump", "/dumps/" + uuid.NewString() + "/nodes/0/toggle", http.StatusNotFound},
		{"bad dump id", "/dumps/nope/nodes/0/toggle", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, ts.URL+tt.path, "", "")
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.status, body)
			}
		})
	}
}

func TestListAndDelete(t *testing.T) {
	s, ts := newTestServer(t)
	first := create(t, ts, "?name=one", "application/json", `1`)
	time.Sleep(2 * time.Millisecond)
	second := create(t, ts, "?name=two", "application/json", `2`)

	_, body := do(t, http.MethodGet, ts.URL+"/dumps", "", "")
	var infos []store.Info
	if err := json.Unmarshal([]byte(body), &infos); err != nil {
		t.Fatal(err)
	}
	var ids []uuid.UUID
	for _, info := range infos {
		ids = append(ids, info.ID)
	}
	if diff := cmp.Diff([]uuid.UUID{second, first}, ids); diff != "" {
		t.Errorf("listed ids (-want +got):\n%s", diff)
	}

	resp, _ := do(t, http.MethodGet, ts.URL+"/dumps?limit=x", "", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", resp.StatusCode)
	}

	resp, _ = do(t, http.MethodDelete, ts.URL+"/dumps/"+first.String(), "", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want 204", resp.StatusCode)
	}
	if _, ok := s.trees[first]; ok {
		t.Error("deleted dump should drop its live tree")
	}
	resp, _ = do(t, http.MethodGet, ts.URL+"/dumps/"+first.String(), "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET deleted status = %d, want 404", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodDelete, ts.URL+"/dumps/"+first.String(), "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second DELETE status = %d, want 404", resp.StatusCode)
	}
}

func TestLiveTreesAreBounded(t *testing.T) {
	s, ts := newTestServer(t, WithMaxTrees(2))
	a := create(t, ts, "", "application/json", `[[1]]`)
	create(t, ts, "", "application/json", `2`)
	create(t, ts, "", "application/json", `3`)

	if len(s.trees) != 2 {
		t.Errorf("live trees = %d, want 2", len(s.trees))
	}
	if _, ok := s.trees[a]; ok {
		t.Error("oldest tree should have been dropped")
	}

	// An evicted dump is rebuilt from its snapshot.
	resp, frag := do(t, http.MethodPost, ts.URL+"/dumps/"+a.String()+"/nodes/1/toggle", "", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(frag, "expanded") {
		t.Errorf("toggle after eviction = %d %s", resp.StatusCode, frag)
	}
}

var treePattern = regexp.MustCompile(`data-tree="([^"]+)"`)

// pageTree returns the tree id the dump page was rendered from.
func pageTree(t *testing.T, ts *httptest.Server, id uuid.UUID) string {
	t.Helper()
	_, page := do(t, http.MethodGet, ts.URL+"/dumps/"+id.String(), "", "")
	m := treePattern.FindStringSubmatch(page)
	if m == nil {
		t.Fatalf("page has no tree id:\n%s", page)
	}
	return m[1]
}

func TestToggleRejectsRebuiltTree(t *testing.T) {
	_, ts := newTestServer(t, WithMaxTrees(1))
	a := create(t, ts, "", "application/json", `{"p": {"x": 1}, "q": {"y": 2}}`)
	base := ts.URL + "/dumps/" + a.String() + "/nodes/"

	oldTree := pageTree(t, ts, a)
	// Expanding q builds y as node 3.
	resp, frag := do(t, http.MethodPost, base+"2/toggle?tree="+oldTree, "", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(frag, `<span class="name">y</span>`) {
		t.Fatalf("toggle q = %d %s", resp.StatusCode, frag)
	}

	// A second dump evicts the first.
	create(t, ts, "", "application/json", `2`)

	resp, body := do(t, http.MethodPost, base+"3/toggle?tree="+oldTree, "", "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("stale toggle status = %d, want 409 (%s)", resp.StatusCode, body)
	}
	var e errorResponse
	if err := json.Unmarshal([]byte(body), &e); err != nil || e.Code != errors.ErrCodeStaleTree {
		t.Errorf("stale toggle body = %s, want code %s", body, errors.ErrCodeStaleTree)
	}

	newTree := pageTree(t, ts, a)
	if newTree == oldTree {
		t.Fatal("rebuilt dump should get a new tree id")
	}
	resp, frag = do(t, http.MethodPost, base+"1/toggle?tree="+newTree, "", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(frag, `<span class="name">x</span>`) {
		t.Errorf("toggle on the reloaded page = %d %s", resp.StatusCode, frag)
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route)
}

func TestHTTPHooksUseRoutePatterns(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	_, ts := newTestServer(t)
	id := create(t, ts, "", "application/json", `[1]`)
	do(t, http.MethodPost, ts.URL+"/dumps/"+id.String()+"/nodes/0/toggle", "", "")

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if len(hooks.routes) != 2 {
		t.Fatalf("hook calls = %v, want 2", hooks.routes)
	}
	if got, want := hooks.routes[1], "POST /dumps/{id}/nodes/{node}/toggle"; got != want {
		t.Errorf("toggle route = %q, want %q", got, want)
	}
	for _, r := range hooks.routes {
		if strings.Contains(r, id.String()) {
			t.Errorf("route %q leaks the snapshot id", r)
		}
	}
}
