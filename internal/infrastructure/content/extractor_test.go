package content

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Test Article</title></head>
<body>
<nav><a href="/">Home</a> <a href="/about">About</a></nav>
<article>
<h1>Test Article</h1>
<p>This is the first paragraph of the article body. It contains enough
text for the readability pass to consider it real content instead of
boilerplate, which needs a few full sentences to happen reliably.</p>
<p>The second paragraph keeps going with more meaningful prose so that
the extraction has something substantial to return to the caller.</p>
</article>
<footer>Copyright notice</footer>
</body>
</html>`

func TestExtractReturnsReadableText(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "FeedAgent/1.0" {
			t.Errorf("unexpected user agent: %q", got)
		}
		fmt.Fprint(w, articlePage)
	}))
	defer server.Close()

	extractor := NewExtractor(server.Client(), 5*time.Second, nil)
	text, err := extractor.Extract(context.Background(), server.URL+"/post")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if !strings.Contains(text, "first paragraph of the article body") {
		t.Fatalf("article text missing: %q", text)
	}
	if strings.Contains(text, "Copyright notice") {
		t.Fatalf("boilerplate survived extraction: %q", text)
	}
}

func TestExtractNonOKStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	extractor := NewExtractor(server.Client(), 5*time.Second, nil)
	if _, err := extractor.Extract(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for 404 page")
	}
}
