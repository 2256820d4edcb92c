package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Vaishnavi-Hegde17/enginetwin/collector"
	"github.com/Vaishnavi-Hegde17/enginetwin/config"
	"github.com/Vaishnavi-Hegde17/enginetwin/engine"
	"github.com/Vaishnavi-Hegde17/enginetwin/model"
	"github.com/Vaishnavi-Hegde17/enginetwin/store"
)

func newTestServer(t *testing.T, ticks int, opts Options) (*httptest.Server, *engine.Engine) {
	t.Helper()
	sim := collector.NewSimulator("", 1)
	eng := engine.NewEngine(sim, config.DefaultCatalog(), 40)
	for i := 0; i < ticks; i++ {
		eng.Tick(context.Background())
	}
	opts.Engine = eng
	srv := httptest.NewServer(New(opts).Handler())
	t.Cleanup(srv.Close)
	return srv, eng
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, body
}

func post(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}

func TestHealthAndLatest(t *testing.T) {
	srv, _ := newTestServer(t, 0, Options{})
	if resp, _ := get(t, srv.URL+"/health"); resp.StatusCode != http.StatusOK {
		t.Errorf("/health = %d", resp.StatusCode)
	}
	if resp, _ := get(t, srv.URL+"/api/latest"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("/api/latest before any reading = %d, want 503", resp.StatusCode)
	}

	srv, eng := newTestServer(t, 3, Options{})
	resp, body := get(t, srv.URL+"/api/latest")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/api/latest = %d %s", resp.StatusCode, body)
	}
	var got latestResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	want := eng.History.LatestResult()
	if got.Result.Label != want.Label || got.Alert != want.Anomalous() {
		t.Errorf("latest = %+v, want label %s", got.Result, want.Label)
	}
	if len(got.Result.Parameters) != 7 {
		t.Errorf("got %d parameters", len(got.Result.Parameters))
	}
}

func TestHistory(t *testing.T) {
	srv, _ := newTestServer(t, 5, Options{})
	tests := []struct {
		query  string
		status int
		count  int
	}{
		{"", http.StatusOK, 5},
		{"?n=2", http.StatusOK, 2},
		{"?n=0", http.StatusBadRequest, 0},
		{"?n=abc", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, body := get(t, srv.URL+"/api/history"+tt.query)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if tt.status != http.StatusOK {
				return
			}
			var entries []historyEntry
			if err := json.Unmarshal(body, &entries); err != nil {
				t.Fatal(err)
			}
			if len(entries) != tt.count {
				t.Errorf("got %d entries, want %d", len(entries), tt.count)
			}
		})
	}
}

func TestHistoryFromStore(t *testing.T) {
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	sim := collector.NewSimulator("", 3)
	cat := config.DefaultCatalog()
	for i := 0; i < 50; i++ {
		r := sim.Generate()
		snap := &model.Snapshot{Timestamp: time.Unix(int64(i), 0), Reading: r}
		if err := st.Save(context.Background(), snap, engine.Analyze(r, cat)); err != nil {
			t.Fatal(err)
		}
	}
	srv, _ := newTestServer(t, 1, Options{Store: st})
	_, body := get(t, srv.URL+"/api/history?n=45")
	var entries []historyEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 45 {
		t.Errorf("got %d entries from store, want 45", len(entries))
	}

	_, body = get(t, srv.URL+"/health")
	var health struct {
		Stored int            `json:"stored"`
		Labels map[string]int `json:"labels"`
	}
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, n := range health.Labels {
		total += n
	}
	if health.Stored != 50 || total != 50 {
		t.Errorf("health = %+v, want 50 stored readings", health)
	}
}

func TestRanges(t *testing.T) {
	srv, _ := newTestServer(t, 0, Options{})
	_, body := get(t, srv.URL+"/api/ranges")
	var entries []rangeEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 7 || entries[0].Name != model.ParamEGT {
		t.Fatalf("ranges = %+v", entries)
	}
	// EGT: [400, 750] on [200, 900]
	if b := entries[0].Band; b.StartPct < 28.57 || b.StartPct > 28.58 || b.EndPct < 78.57 || b.EndPct > 78.58 {
		t.Errorf("EGT band = %+v", b)
	}
}

func TestNormalize(t *testing.T) {
	srv, _ := newTestServer(t, 0, Options{})
	tests := []struct {
		name   string
		body   string
		status int
		pct    float64
		score  float64
	}{
		{"in band", `{"value":575,"range":{"min":400,"max":750,"min_possible":200,"max_possible":900}}`, 200, 53.571, 0},
		{"above", `{"value":820,"range":{"min":400,"max":750,"min_possible":200,"max_possible":900}}`, 200, 88.571, 0.1},
		{"clamped", `{"value":1200,"range":{"min":400,"max":750,"min_possible":200,"max_possible":900}}`, 200, 100, 0.642857},
		{"degenerate", `{"value":5,"range":{"min":5,"max":5,"min_possible":5,"max_possible":5}}`, 422, 0, 0},
		{"bad json", `{"value":`, 400, 0, 0},
		{"unknown field", `{"value":1,"rng":{}}`, 400, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, srv.URL+"/api/normalize", tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d (%s)", resp.StatusCode, body)
			}
			if tt.status != 200 {
				return
			}
			var got normalizeResponse
			if err := json.Unmarshal(body, &got); err != nil {
				t.Fatal(err)
			}
			if d := got.ValuePct - tt.pct; d > 0.001 || d < -0.001 {
				t.Errorf("value_pct = %v, want %v", got.ValuePct, tt.pct)
			}
			if d := got.Score - tt.score; d > 0.001 || d < -0.001 {
				t.Errorf("score = %v, want %v", got.Score, tt.score)
			}
		})
	}
}

func TestWorst(t *testing.T) {
	srv, _ := newTestServer(t, 0, Options{})
	body := `{"samples":[
		{"name":"A","value":110,"range":{"min":0,"max":100,"min_possible":0,"max_possible":100}},
		{"name":"B","value":120,"range":{"min":0,"max":100,"min_possible":0,"max_possible":100}},
		{"name":"C","value":120,"range":{"min":0,"max":100,"min_possible":0,"max_possible":100}},
		{"name":"D","value":999}
	]}`
	resp, out := post(t, srv.URL+"/api/worst", body)
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got worstResponse
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Found || got.Worst.Name != "B" {
		t.Errorf("worst = %+v, want B", got.Worst)
	}
	if len(got.Scores) != 3 {
		t.Errorf("scores = %+v, unranged sample should be skipped", got.Scores)
	}

	_, out = post(t, srv.URL+"/api/worst", `{"samples":[]}`)
	got = worstResponse{}
	json.Unmarshal(out, &got)
	if got.Found || got.Worst != nil {
		t.Errorf("empty input = %+v", got)
	}
}

func TestPaginate(t *testing.T) {
	srv, _ := newTestServer(t, 0, Options{})
	resp, out := post(t, srv.URL+"/api/paginate", `{"width_px":2000,"height_px":6000}`)
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d %s", resp.StatusCode, out)
	}
	var got paginateResponse
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Slices) != 3 || got.Slices[2].SourceHeightPx != 170 {
		t.Errorf("slices = %+v", got.Slices)
	}

	resp, _ = post(t, srv.URL+"/api/paginate", `{"width_px":100,"height_px":100,"page":{"width":20,"height":20,"margin":10}}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("too-small page status = %d", resp.StatusCode)
	}
	resp, _ = post(t, srv.URL+"/api/paginate", `{"width_px":0,"height_px":100}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("zero width status = %d", resp.StatusCode)
	}

	resp, out = post(t, srv.URL+"/api/paginate", `{"width_px":1,"height_px":3000000}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("one-row-per-page status = %d", resp.StatusCode)
	}
	if len(out) > 1024 {
		t.Errorf("one-row-per-page response is %d bytes", len(out))
	}
}

func TestReportPDF(t *testing.T) {
	srv, _ := newTestServer(t, 0, Options{})
	if resp, _ := get(t, srv.URL+"/api/report.pdf"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("report without data = %d", resp.StatusCode)
	}

	srv, _ = newTestServer(t, 10, Options{})
	resp, body := get(t, srv.URL+"/api/report.pdf")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "prediction_report.pdf") {
		t.Errorf("disposition = %q", resp.Header.Get("Content-Disposition"))
	}
	if !bytes.HasPrefix(body, []byte("%PDF-")) {
		t.Error("body is not a PDF")
	}
}

func TestSensorLatestBackend(t *testing.T) {
	srv, _ := newTestServer(t, 0, Options{})
	if resp, _ := get(t, srv.URL+"/sensor/latest"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("backend disabled: status = %d", resp.StatusCode)
	}

	srv, _ = newTestServer(t, 0, Options{Backend: collector.NewSimulator("SIM-1", 9)})
	feed := collector.NewHTTPFeed(srv.URL, time.Second)
	r, err := feed.Collect(context.Background())
	if err != nil {
		t.Fatalf("HTTP feed against simulated backend: %v", err)
	}
	if r.Sample.AircraftID != "SIM-1" || r.Prediction.Label == "" {
		t.Errorf("reading = %+v", r)
	}
}

func TestMetricsAndCORS(t *testing.T) {
	srv, _ := newTestServer(t, 0, Options{AllowedOrigins: []string{"http://localhost:3000"}})
	get(t, srv.URL+"/health")
	resp, body := get(t, srv.URL+"/metrics")
	if resp.StatusCode != 200 || !strings.Contains(string(body), `enginetwin_http_requests_total{route="/health",status="200"} 1`) {
		t.Errorf("metrics = %d\n%s", resp.StatusCode, body)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	cresp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	cresp.Body.Close()
	if got := cresp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
