package intercept

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/gfsync/app"
	"github.com/etnz/gfsync/store"
	"golang.org/x/time/rate"
)

const degiroURL = "https://trader.degiro.nl/reporting/secure/v4/transactions?fromDate=01/01/2025&toDate=01/05/2025"

const degiroBody = `{"data":[
	{"id": 9002, "productId": 332111, "date": "2025-04-02T15:30:00+02:00", "buysell": "S", "price": 101.25, "quantity": -3, "feeInBaseCurrency": -2.5},
	{"id": 9001, "productId": 1153605, "date": "2025-04-01T09:00:00+02:00", "buysell": "B", "price": 75.1, "quantity": 10, "feeInBaseCurrency": -1}
]}`

type testServer struct {
	*httptest.Server
}

// newTestServer starts a server; configure runs before the event loop starts.
func newTestServer(t *testing.T, configure func(ctx context.Context, ctl *app.Controller), opts ...func(*Server)) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	dir, err := store.NewDir(filepath.Join(t.TempDir(), "store"))
	if err != nil {
		t.Fatal(err)
	}
	views := NewViews()
	ctl, err := app.New(ctx, app.Deps{Store: dir, UI: views})
	if err != nil {
		t.Fatal(err)
	}
	if configure != nil {
		configure(ctx, ctl)
		views.Drain()
	}
	srv := NewServer(ctl, views)
	for _, opt := range opts {
		opt(srv)
	}
	go srv.Run(ctx)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return &testServer{Server: ts}
}

func (ts *testServer) post(t *testing.T, path, body string) (int, apiResponse) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var r apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		t.Fatalf("POST %s: cannot decode response: %v", path, err)
	}
	return resp.StatusCode, r
}

func (ts *testServer) get(t *testing.T, path string) string {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status = %d", path, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func (ts *testServer) views(t *testing.T) map[app.Target]string {
	t.Helper()
	var views map[app.Target]string
	if err := json.Unmarshal([]byte(ts.get(t, "/api/views")), &views); err != nil {
		t.Fatal(err)
	}
	return views
}

func postedBody(url, body string) string {
	data, _ := json.Marshal(postedResponse{URL: url, Body: body})
	return string(data)
}

func hasNotice(notices []Notice, msg string) bool {
	for _, n := range notices {
		if n.Message == msg {
			return true
		}
	}
	return false
}

func TestServerMissingConfigs(t *testing.T) {
	ts := newTestServer(t, nil)

	code, r := ts.post(t, "/api/responses", postedBody(degiroURL, degiroBody))
	if code != http.StatusOK || r.Status != "ok" {
		t.Fatalf("POST /api/responses = %d %+v", code, r)
	}
	if !hasNotice(r.Notices, "Missing configs. Go to configs menu.") {
		t.Errorf("notices = %+v, want the missing configs notice", r.Notices)
	}

	views := ts.views(t)
	if !strings.Contains(views[app.TargetConfigs], "| 332111 | _Yahoo Finance symbol of this asset_ |") {
		t.Errorf("configs view =\n%s", views[app.TargetConfigs])
	}
	if !strings.Contains(views[app.TargetNewTxns], "1153605") {
		t.Errorf("new transactions view does not list the missing assets:\n%s", views[app.TargetNewTxns])
	}
}

func TestServerFlow(t *testing.T) {
	ts := newTestServer(t, func(ctx context.Context, ctl *app.Controller) {
		settings := ctl.State().Settings
		settings.ExportDir = t.TempDir()
		ctl.SaveSettings(ctx, settings)
		ctl.SetSymbol(ctx, "332111", "ASML.AS")
		ctl.SetSymbol(ctx, "1153605", "IWDA.AS")
		ctl.SetAccount(ctx, "Degiro", "", "gf-degiro")
	})

	if code, r := ts.post(t, "/api/responses", postedBody(degiroURL, degiroBody)); code != http.StatusOK || len(r.Notices) != 0 {
		t.Fatalf("POST /api/responses = %d %+v", code, r)
	}
	if got := ts.views(t)[app.TargetNewTxns]; !strings.Contains(got, "2 new transaction(s)") {
		t.Fatalf("new transactions view =\n%s", got)
	}

	html := ts.get(t, "/")
	for _, want := range []string{`<section id="id-platforms">`, "<strong>Degiro</strong> (current)", "<table>", "ASML.AS"} {
		if !strings.Contains(html, want) {
			t.Errorf("page does not contain %q:\n%s", want, html)
		}
	}

	code, r := ts.post(t, "/api/actions/export", "")
	if code != http.StatusOK {
		t.Fatalf("POST /api/actions/export = %d %+v", code, r)
	}
	data, _ := r.Data.(map[string]any)
	if path, _ := data["path"].(string); !strings.HasSuffix(path, "degiro-transactions.json") {
		t.Errorf("export data = %v", r.Data)
	}

	if code, r := ts.post(t, "/api/actions/imported", ""); code != http.StatusOK || !hasNotice(r.Notices, "Import marked successful.") {
		t.Fatalf("POST /api/actions/imported = %d %+v", code, r)
	}
	if code, r := ts.post(t, "/api/actions/imported", ""); code != http.StatusUnprocessableEntity {
		t.Errorf("second POST /api/actions/imported = %d %+v, want an error", code, r)
	}

	ts.post(t, "/api/responses", postedBody(degiroURL, degiroBody))
	if got := ts.views(t)[app.TargetNewTxns]; !strings.Contains(got, "No new transaction.") {
		t.Errorf("new transactions view after import =\n%s", got)
	}

	if code, r := ts.post(t, "/api/actions/reset", ""); code != http.StatusOK || !hasNotice(r.Notices, "Last Transaction has been reset") {
		t.Errorf("POST /api/actions/reset = %d %+v", code, r)
	}
	if code, r := ts.post(t, "/api/actions/sync", ""); code != http.StatusUnprocessableEntity || r.Status != "error" {
		t.Errorf("POST /api/actions/sync without ghostfolio = %d %+v", code, r)
	}
}

func TestServerOpenPlatform(t *testing.T) {
	ts := newTestServer(t, nil)

	code, r := ts.post(t, "/api/platforms/amundi/open", "")
	if code != http.StatusOK {
		t.Fatalf("POST open = %d %+v", code, r)
	}
	if data, _ := r.Data.(map[string]any); data["url"] != "https://epargnant.amundi-ee.com/#/operations" {
		t.Errorf("open data = %v", r.Data)
	}
	if code, _ := ts.post(t, "/api/platforms/nowhere/open", ""); code != http.StatusNotFound {
		t.Errorf("POST open of an unknown platform = %d, want 404", code)
	}
}

func TestServerHAR(t *testing.T) {
	ts := newTestServer(t, nil)
	code, r := ts.post(t, "/api/har", har)
	if code != http.StatusOK {
		t.Errorf("POST /api/har = %d %+v", code, r)
	}
	if got := ts.views(t)[app.TargetPlatforms]; !strings.Contains(got, "**Amundi** (current)") {
		t.Errorf("platforms view =\n%s", got)
	}
}

func TestServerBadRequests(t *testing.T) {
	ts := newTestServer(t, nil)
	for path, body := range map[string]string{
		"/api/responses": `{"url": `,
		"/api/har":       `<html>`,
	} {
		if code, _ := ts.post(t, path, body); code != http.StatusBadRequest {
			t.Errorf("POST %s = %d, want 400", path, code)
		}
	}
	if code, _ := ts.post(t, "/api/responses", `{"body": "{}"}`); code != http.StatusBadRequest {
		t.Errorf("POST without url = %d, want 400", code)
	}
}

func TestServerRateLimit(t *testing.T) {
	ts := newTestServer(t, nil, func(s *Server) { s.limiter = rate.NewLimiter(0, 1) })

	ts.get(t, "/api/views")
	resp, err := http.Get(ts.URL + "/api/views")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}
}
