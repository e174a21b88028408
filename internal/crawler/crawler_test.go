package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/goleak"

	"github.com/openlms/ask4summary/internal/config"
	"github.com/openlms/ask4summary/internal/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
	)
}

func testCrawler() *Crawler {
	return New(config.CrawlerConfig{
		UserAgent: "test-agent",
		DelayMS:   0,
		TimeoutMS: 5000,
	}, log.NewNop())
}

// TestCrawl_CycleVisitedOnce crawls two pages that link to each other and
// checks each is fetched exactly once.
func TestCrawl_CycleVisitedOnce(t *testing.T) {
	var mu sync.Mutex
	fetches := map[string]int{}

	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		fetches["/a"]++
		mu.Unlock()
		fmt.Fprintf(w, `<html><head><title>Page A</title></head><body>
			<p>Reports are due on Friday.</p>
			<a href="/b">next</a>
		</body></html>`)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		fetches["/b"]++
		mu.Unlock()
		fmt.Fprintf(w, `<html><head><title>Page B</title></head><body>
			<p>Submit through the portal.</p>
			<a href="/a">back</a>
		</body></html>`)
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nAllow: /\n")
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	pages, err := testCrawler().Crawl(context.Background(), server.URL+"/a", 2)
	if err != nil {
		t.Fatalf("Crawl() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if fetches["/a"] != 1 || fetches["/b"] != 1 {
		t.Errorf("expected each page fetched once, got %v", fetches)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0].Depth != 2 || pages[1].Depth != 1 {
		t.Errorf("depths = %d, %d; want 2, 1", pages[0].Depth, pages[1].Depth)
	}
	if pages[0].Sentences[0] != "Reports are due on Friday." {
		t.Errorf("seed sentences = %v", pages[0].Sentences)
	}
}

// TestCrawl_DepthZeroFetchesNothing checks a zero depth budget fetches no
// pages at all, not even the seed.
func TestCrawl_DepthZeroFetchesNothing(t *testing.T) {
	var mu sync.Mutex
	fetched := map[string]int{}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		fetched[r.URL.Path]++
		mu.Unlock()
		if r.URL.Path == "/robots.txt" {
			fmt.Fprint(w, "User-agent: *\nAllow: /\n")
			return
		}
		fmt.Fprint(w, `<html><body><p>Only page here.</p><a href="/deeper">link</a></body></html>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	pages, err := testCrawler().Crawl(context.Background(), server.URL+"/seed", 0)
	if err != nil {
		t.Fatalf("Crawl() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(pages) != 0 {
		t.Fatalf("expected no pages, got %d", len(pages))
	}
	if fetched["/seed"] != 0 {
		t.Errorf("seed was fetched %d times with an exhausted budget", fetched["/seed"])
	}
}

// TestCrawl_DepthOneSeedOnly checks a budget of one fetches the seed and
// follows no links.
func TestCrawl_DepthOneSeedOnly(t *testing.T) {
	var mu sync.Mutex
	fetched := map[string]int{}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		fetched[r.URL.Path]++
		mu.Unlock()
		if r.URL.Path == "/robots.txt" {
			fmt.Fprint(w, "User-agent: *\nAllow: /\n")
			return
		}
		fmt.Fprint(w, `<html><body><p>Only page here.</p><a href="/deeper">link</a></body></html>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	pages, err := testCrawler().Crawl(context.Background(), server.URL+"/seed", 1)
	if err != nil {
		t.Fatalf("Crawl() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(pages) != 1 {
		t.Fatalf("expected seed page only, got %d pages", len(pages))
	}
	if pages[0].Depth != 1 {
		t.Errorf("seed depth = %d, want 1", pages[0].Depth)
	}
	if fetched["/deeper"] != 0 {
		t.Error("link below depth budget should not be fetched")
	}
}

func TestCrawl_RobotsDisallowed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /\n")
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		t.Error("disallowed page should not be fetched")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	if _, err := testCrawler().Crawl(context.Background(), server.URL+"/page", 1); err == nil {
		t.Fatal("expected error for robots.txt disallow")
	}
}

func TestCrawl_InvalidSeed(t *testing.T) {
	if _, err := testCrawler().Crawl(context.Background(), "://bad", 1); err == nil {
		t.Fatal("expected error for invalid seed URL")
	}
}

func TestHarvestSentences(t *testing.T) {
	html := `<html><body>
		<p>First paragraph sentence. Second one here.</p>
		<p>No terminal punctuation</p>
		<p>Tab	separated content.</p>
		<ul>
			<li>A bullet that qualifies.</li>
			<li>bare bullet</li>
		</ul>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse html: %v", err)
	}

	got := harvestSentences(doc.Selection)
	want := []string{
		"First paragraph sentence.",
		"Second one here.",
		"A bullet that qualifies.",
	}
	if len(got) != len(want) {
		t.Fatalf("sentences = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}
}
