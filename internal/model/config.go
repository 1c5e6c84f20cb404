package model

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	Library    LibraryConfig
	Downloader DownloaderConfig
	YouTube    YouTubeConfig
	Logging    LoggingConfig
	RateLimit  RateLimitConfig
	DiskBudget DiskBudgetConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port    int
	Host    string
	Timeout int // seconds
}

// LibraryConfig holds paths for the media library
type LibraryConfig struct {
	RootDir string // finished artifacts and collection subdirectories
	TempDir string // in-flight stream files
}

// DownloaderConfig holds external tool configuration
type DownloaderConfig struct {
	YtdlpPath         string // yt-dlp binary name or absolute path
	FfmpegPath        string // ffmpeg binary name or absolute path
	MaxHeight         int    // resolution ceiling for the two-phase video path
	FallbackMaxHeight int    // ceiling for the single-stream fallback
}

// YouTubeConfig holds metadata API configuration
type YouTubeConfig struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	Timeout    int // seconds
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string
	FilePath string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	BurstSize         int
	CleanupInterval   int // seconds
}

// DiskBudgetConfig bounds total bytes stored under the library root
type DiskBudgetConfig struct {
	Enabled      bool
	MaxLibraryMB int64
}
