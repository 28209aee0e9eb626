package domain

import "testing"

func TestArticleID(t *testing.T) {
	t.Parallel()

	id := ArticleID("https://example.com/post")
	if len(id) != 16 {
		t.Fatalf("expected 16-char id, got %d: %s", len(id), id)
	}
	for _, r := range id {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			t.Fatalf("id should be lowercase hex: %s", id)
		}
	}

	if id != ArticleID("https://example.com/post") {
		t.Fatal("id must be deterministic")
	}
	if id == ArticleID("https://example.com/post2") {
		t.Fatal("different URLs must map to different ids")
	}
}
