package model

import "time"

// JobStatus is the lifecycle stage of a download job
type JobStatus string

const (
	StatusWaiting          JobStatus = "waiting"
	StatusDownloading      JobStatus = "downloading"
	StatusDownloadingVideo JobStatus = "downloading-video"
	StatusDownloadingAudio JobStatus = "downloading-audio"
	StatusMerging          JobStatus = "merging"
	StatusComplete         JobStatus = "complete"
	StatusError            JobStatus = "error"
)

// String returns the string representation of the status
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the job has finished, successfully or not
func (s JobStatus) IsTerminal() bool {
	return s == StatusComplete || s == StatusError
}

// JobProgress is a point-in-time snapshot of a download job
type JobProgress struct {
	Status  JobStatus `json:"status"`
	Percent float64   `json:"progress"`
	Error   string    `json:"error,omitempty"`
}

// SearchResult is one video returned by the metadata API
type SearchResult struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ChannelTitle string    `json:"channelTitle"`
	PublishedAt  time.Time `json:"publishedAt"`
	Thumbnail    string    `json:"thumbnail"`
	Duration     int       `json:"duration"` // seconds, 0 when the API omits it
	ViewCount    uint64    `json:"viewCount"`
}

// SearchPage is one page of enriched search results
type SearchPage struct {
	Items         []SearchResult `json:"items"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
	PrevPageToken string         `json:"prevPageToken,omitempty"`
	TotalResults  int            `json:"totalResults"`
}

// Artifact is a completed download stored in the library
type Artifact struct {
	ID           string    `json:"id"`
	VideoID      string    `json:"videoId"`
	Filename     string    `json:"filename"`
	Title        string    `json:"title"`
	Thumbnail    string    `json:"thumbnail,omitempty"`
	Size         int64     `json:"size"`
	Collection   string    `json:"collection,omitempty"`
	DownloadedAt time.Time `json:"downloadedAt"`
}

// Collection is a named grouping of artifacts
type Collection struct {
	Name   string     `json:"name"`
	Videos []Artifact `json:"videos"`
}

// DownloadRequest represents a user's download request
type DownloadRequest struct {
	VideoID   string `json:"videoId" binding:"required"`
	Format    string `json:"format" binding:"required"` // "video" or "audio"
	Title     string `json:"title" binding:"required"`
	Thumbnail string `json:"thumbnail"`
}

// DownloadResponse represents the response to a download request
type DownloadResponse struct {
	Success bool   `json:"success"`
	FileURL string `json:"fileUrl"`
}

// CreateCollectionRequest names a collection to create
type CreateCollectionRequest struct {
	Name string `json:"name" binding:"required"`
}

// MoveVideoRequest moves an artifact into a collection
type MoveVideoRequest struct {
	VideoID   string `json:"videoId"`
	Filename  string `json:"filename" binding:"required"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
