package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tubevault/internal/model"
	"tubevault/pkg/logger"
)

func init() {
	logger.InitNop()
}

// newFakeAPI serves canned search and videos payloads. The search call
// deliberately returns items out of publish-date order to exercise the
// defensive re-sort.
func newFakeAPI(t *testing.T, failDetails bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "" {
			http.Error(w, "missing key", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `{
			"items": [
				{"id": {"videoId": "old1"}, "snippet": {"title": "Older Long", "channelTitle": "ch", "publishedAt": "2024-01-01T00:00:00Z", "thumbnails": {"medium": {"url": "http://t/old1.jpg"}}}},
				{"id": {"videoId": "new1"}, "snippet": {"title": "Newest Short", "channelTitle": "ch", "publishedAt": "2024-03-01T00:00:00Z", "thumbnails": {"medium": {"url": "http://t/new1.jpg"}}}},
				{"id": {"videoId": "mid1"}, "snippet": {"title": "Middle Short", "channelTitle": "ch", "publishedAt": "2024-02-01T00:00:00Z", "thumbnails": {"medium": {"url": "http://t/mid1.jpg"}}}}
			],
			"nextPageToken": "NEXT",
			"pageInfo": {"totalResults": 3}
		}`)
	})
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		if failDetails {
			http.Error(w, "quota exceeded", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `{
			"items": [
				{"id": "new1", "contentDetails": {"duration": "PT45S"}, "statistics": {"viewCount": "100"}},
				{"id": "old1", "contentDetails": {"duration": "PT10M"}, "statistics": {"viewCount": "5000"}},
				{"id": "mid1", "contentDetails": {"duration": "PT59S"}, "statistics": {"viewCount": "250"}}
			]
		}`)
	})

	return httptest.NewServer(mux)
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(&model.YouTubeConfig{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		MaxResults: 10,
		Timeout:    5,
	})
}

func TestSearchShortsFilterAndOrdering(t *testing.T) {
	srv := newFakeAPI(t, false)
	defer srv.Close()

	page, err := newTestClient(srv).Search(context.Background(), Params{
		Query:     "lofi",
		VideoType: "shorts",
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(page.Items) != 2 {
		t.Fatalf("expected 2 shorts, got %d: %+v", len(page.Items), page.Items)
	}
	// Newest first even though the upstream interleaved them.
	if page.Items[0].ID != "new1" || page.Items[1].ID != "mid1" {
		t.Errorf("wrong order: %q, %q", page.Items[0].ID, page.Items[1].ID)
	}
	for _, item := range page.Items {
		if item.Duration > 60 {
			t.Errorf("item %q duration %ds leaked through shorts filter", item.ID, item.Duration)
		}
	}
	if page.NextPageToken != "NEXT" {
		t.Errorf("nextPageToken = %q", page.NextPageToken)
	}
}

func TestSearchVideosFilter(t *testing.T) {
	srv := newFakeAPI(t, false)
	defer srv.Close()

	page, err := newTestClient(srv).Search(context.Background(), Params{
		Query:     "lofi",
		VideoType: "videos",
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(page.Items) != 1 || page.Items[0].ID != "old1" {
		t.Fatalf("expected only old1, got %+v", page.Items)
	}
	if page.Items[0].Duration != 600 {
		t.Errorf("duration = %d, want 600", page.Items[0].Duration)
	}
	if page.Items[0].ViewCount != 5000 {
		t.Errorf("viewCount = %d, want 5000", page.Items[0].ViewCount)
	}
}

func TestSearchBothDisablesFilter(t *testing.T) {
	srv := newFakeAPI(t, false)
	defer srv.Close()

	page, err := newTestClient(srv).Search(context.Background(), Params{
		Query:     "lofi",
		VideoType: "both",
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(page.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(page.Items))
	}
}

func TestSearchDetailFailureReturnsNoPartialResults(t *testing.T) {
	srv := newFakeAPI(t, true)
	defer srv.Close()

	page, err := newTestClient(srv).Search(context.Background(), Params{Query: "lofi"})
	if !errors.Is(err, ErrSearchFailed) {
		t.Fatalf("expected ErrSearchFailed, got %v", err)
	}
	if page != nil {
		t.Errorf("expected nil page on failure, got %+v", page)
	}
}

func TestSearchTransportFailure(t *testing.T) {
	srv := newFakeAPI(t, false)
	srv.Close() // connection refused

	_, err := newTestClient(srv).Search(context.Background(), Params{Query: "lofi"})
	if !errors.Is(err, ErrSearchFailed) {
		t.Fatalf("expected ErrSearchFailed, got %v", err)
	}
}
