package config

import (
	"os"
	"strconv"
	"strings"

	"tubevault/internal/model"

	"github.com/joho/godotenv"
)

// Load loads configuration from environment variables
func Load() *model.Config {
	godotenv.Load()

	return &model.Config{
		Server: model.ServerConfig{
			Port:    getEnvInt("SERVER_PORT", 3001),
			Host:    getEnvStr("SERVER_HOST", "0.0.0.0"),
			Timeout: getEnvInt("SERVER_TIMEOUT", 600),
		},
		Library: model.LibraryConfig{
			RootDir: getEnvStr("LIBRARY_DIR", "./downloads"),
			TempDir: getEnvStr("LIBRARY_TEMP_DIR", "./downloads/.tmp"),
		},
		Downloader: model.DownloaderConfig{
			YtdlpPath:         getEnvStr("YTDLP_PATH", "yt-dlp"),
			FfmpegPath:        getEnvStr("FFMPEG_PATH", "ffmpeg"),
			MaxHeight:         getEnvInt("MAX_VIDEO_HEIGHT", 1080),
			FallbackMaxHeight: getEnvInt("FALLBACK_VIDEO_HEIGHT", 720),
		},
		YouTube: model.YouTubeConfig{
			APIKey:     getEnvStr("YOUTUBE_API_KEY", ""),
			BaseURL:    getEnvStr("YOUTUBE_API_BASE_URL", "https://www.googleapis.com/youtube/v3"),
			MaxResults: getEnvInt("YOUTUBE_MAX_RESULTS", 10),
			Timeout:    getEnvInt("YOUTUBE_TIMEOUT", 30),
		},
		Logging: model.LoggingConfig{
			Level:    getEnvStr("LOG_LEVEL", "info"),
			FilePath: getEnvStr("LOG_FILE", "./log/app.log"),
		},
		RateLimit: model.RateLimitConfig{
			Enabled:           getEnvBool("RATELIMIT_ENABLED", false),
			RequestsPerMinute: getEnvInt("RATELIMIT_REQUESTS_PER_MINUTE", 120),
			BurstSize:         getEnvInt("RATELIMIT_BURST_SIZE", 20),
			CleanupInterval:   getEnvInt("RATELIMIT_CLEANUP_INTERVAL", 1800),
		},
		DiskBudget: model.DiskBudgetConfig{
			Enabled:      getEnvBool("DISK_BUDGET_ENABLED", false),
			MaxLibraryMB: getEnvInt64("DISK_BUDGET_MAX_MB", 10240),
		},
	}
}

func getEnvStr(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	valStr := getEnvStr(key, "")
	if val, err := strconv.Atoi(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	valStr := getEnvStr(key, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	valStr := strings.ToLower(getEnvStr(key, ""))
	if valStr == "true" || valStr == "1" || valStr == "yes" {
		return true
	}
	if valStr == "false" || valStr == "0" || valStr == "no" {
		return false
	}
	return defaultVal
}
