package blender

import (
	"bytes"
	"embed"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

//go:embed testdata/*.html
var fixtures embed.FS

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	contents, err := fixtures.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatal(err)
	}
	return contents
}

func fixtureDocument(t *testing.T, name string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(readFixture(t, name)))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

// fragment parses a single build list item.
func fragment(t *testing.T, markup string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewBufferString(
		`<ul class="builds-list">` + markup + `</ul>`,
	))
	if err != nil {
		t.Fatal(err)
	}
	return doc.Find(".builds-list > li").First()
}

// servePages serves each fixture at its path as html.
func servePages(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, name := range pages {
		contents := readFixture(t, name)
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("content-type", "text/html; charset=utf-8")
			w.Write(contents)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type recordingTel struct {
	mu       sync.Mutex
	broken   []string
	warnings []string
}

func (r *recordingTel) ReportBroken(id string, params ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broken = append(r.broken, id)
}

func (r *recordingTel) ReportWarning(id string, params ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, id)
}

func (r *recordingTel) ReportDebug(message string, params ...any) {}
func (r *recordingTel) ReportCount(id string, count int64)        {}

func testClient(tel *recordingTel) Client {
	return NewClient(tel, ClientOptions{Timeout: 10 * time.Second})
}
