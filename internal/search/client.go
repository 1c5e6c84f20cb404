package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"tubevault/internal/model"
	"tubevault/pkg/logger"

	"go.uber.org/zap"
)

// ErrSearchFailed wraps every transport and decode failure so callers see a
// single error condition; no partial results are ever returned.
var ErrSearchFailed = errors.New("search failed")

// shortsMaxSeconds is the computed-duration boundary between shorts and
// regular videos.
const shortsMaxSeconds = 60

// Params are the user-facing search inputs
type Params struct {
	Query          string
	Duration       string // any | short | medium | long, passed to the API
	PublishedAfter time.Time
	VideoType      string // videos | shorts | both, applied post-hoc
	PageToken      string
}

// Client queries the metadata API
type Client struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
}

// NewClient creates a new metadata search client
func NewClient(cfg *model.YouTubeConfig) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxResults: cfg.MaxResults,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// searchResponse mirrors the API's search.list payload
type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
			Thumbnails   struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
	PrevPageToken string `json:"prevPageToken"`
	PageInfo      struct {
		TotalResults int `json:"totalResults"`
	} `json:"pageInfo"`
}

// detailsResponse mirrors the API's videos.list payload
type detailsResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// Search runs a catalog search, enriches each candidate with duration and
// view statistics from a batch detail lookup, applies the content-type
// filter, and re-sorts by publish date descending.
func (c *Client) Search(ctx context.Context, p Params) (*model.SearchPage, error) {
	page, ids, err := c.primarySearch(ctx, p)
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return page, nil
	}

	details, err := c.lookupDetails(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]model.SearchResult, 0, len(page.Items))
	for _, item := range page.Items {
		if d, ok := details[item.ID]; ok {
			item.Duration = d.duration
			item.ViewCount = d.viewCount
		}
		if !matchesVideoType(item.Duration, p.VideoType) {
			continue
		}
		items = append(items, item)
	}

	// The detail lookup does not guarantee the search call's ordering.
	sort.Slice(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})

	page.Items = items

	logger.LogInfo("Search completed",
		zap.String("query", p.Query),
		zap.Int("results", len(items)))

	return page, nil
}

// primarySearch issues the search call and extracts candidate identifiers
// in the API's order
func (c *Client) primarySearch(ctx context.Context, p Params) (*model.SearchPage, []string, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("order", "date")
	q.Set("maxResults", strconv.Itoa(c.maxResults))
	q.Set("q", p.Query)
	q.Set("key", c.apiKey)
	if p.Duration != "" && p.Duration != "any" {
		q.Set("videoDuration", p.Duration)
	}
	if !p.PublishedAfter.IsZero() {
		q.Set("publishedAfter", p.PublishedAfter.UTC().Format(time.RFC3339))
	}
	if p.PageToken != "" {
		q.Set("pageToken", p.PageToken)
	}

	var sr searchResponse
	if err := c.getJSON(ctx, c.baseURL+"/search?"+q.Encode(), &sr); err != nil {
		return nil, nil, err
	}

	page := &model.SearchPage{
		Items:         make([]model.SearchResult, 0, len(sr.Items)),
		NextPageToken: sr.NextPageToken,
		PrevPageToken: sr.PrevPageToken,
		TotalResults:  sr.PageInfo.TotalResults,
	}
	ids := make([]string, 0, len(sr.Items))

	for _, item := range sr.Items {
		if item.ID.VideoID == "" {
			continue
		}
		publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: bad publish timestamp %q", ErrSearchFailed, item.Snippet.PublishedAt)
		}
		page.Items = append(page.Items, model.SearchResult{
			ID:           item.ID.VideoID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			ChannelTitle: item.Snippet.ChannelTitle,
			PublishedAt:  publishedAt,
			Thumbnail:    item.Snippet.Thumbnails.Medium.URL,
		})
		ids = append(ids, item.ID.VideoID)
	}

	return page, ids, nil
}

type videoDetail struct {
	duration  int
	viewCount uint64
}

// lookupDetails runs the batch detail call and parses durations and view
// counts per identifier
func (c *Client) lookupDetails(ctx context.Context, ids []string) (map[string]videoDetail, error) {
	q := url.Values{}
	q.Set("part", "contentDetails,statistics")
	q.Set("id", strings.Join(ids, ","))
	q.Set("key", c.apiKey)

	var dr detailsResponse
	if err := c.getJSON(ctx, c.baseURL+"/videos?"+q.Encode(), &dr); err != nil {
		return nil, err
	}

	details := make(map[string]videoDetail, len(dr.Items))
	for _, item := range dr.Items {
		secs, err := ParseDuration(item.ContentDetails.Duration)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
		}
		views, _ := strconv.ParseUint(item.Statistics.ViewCount, 10, 64)
		details[item.ID] = videoDetail{duration: secs, viewCount: views}
	}

	return details, nil
}

// getJSON performs one API GET and decodes the body
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.LogError("Metadata API request failed", err)
		return fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.LogWarn("Metadata API returned non-OK status", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: metadata API returned status %d", ErrSearchFailed, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	return nil
}

// matchesVideoType applies the post-hoc shorts/videos discriminator on
// computed duration. "both" and unknown values disable filtering.
func matchesVideoType(durationSecs int, videoType string) bool {
	switch videoType {
	case "shorts":
		return durationSecs <= shortsMaxSeconds
	case "videos":
		return durationSecs > shortsMaxSeconds
	default:
		return true
	}
}
