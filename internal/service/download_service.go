package service

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"tubevault/internal/model"
	"tubevault/internal/progress"
	"tubevault/internal/storage"
	"tubevault/pkg/logger"
	"tubevault/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrToolMissing is returned when the external downloader is not installed
var ErrToolMissing = errors.New("yt-dlp is not installed or not on PATH")

const (
	watchURLPrefix = "https://www.youtube.com/watch?v="
	maxBaseNameLen = 120

	// progressToken is the prefix yt-dlp emits per line under
	// --progress-template; everything after it is a percentage.
	progressToken = "progress:"
)

// Percent ranges per phase in the two-phase video mode
const (
	videoPhaseFloor   = 0.0
	videoPhaseCeil    = 40.0
	audioPhaseCeil    = 80.0
	mergeCheckpoint   = 80.0
	completionPercent = 100.0
)

// DownloadService drives external downloader subprocesses and reports their
// progress through the registry. Video downloads use two stream fetches plus
// an ffmpeg merge when ffmpeg is available, and a capped single-stream fetch
// otherwise. Every temporary file is removed on success and failure alike.
type DownloadService struct {
	cfg      *model.DownloaderConfig
	tempDir  string
	registry *progress.Registry
	store    *storage.Store
}

// NewDownloadService creates a new download service
func NewDownloadService(cfg *model.DownloaderConfig, lib *model.LibraryConfig, reg *progress.Registry, store *storage.Store) *DownloadService {
	return &DownloadService{
		cfg:      cfg,
		tempDir:  lib.TempDir,
		registry: reg,
		store:    store,
	}
}

// StartDownload materializes one video or audio artifact. It registers the
// job, runs the subprocess pipeline for the requested format, records the
// artifact on success, and guarantees the registry holds a terminal state
// before returning.
func (s *DownloadService) StartDownload(ctx context.Context, req *model.DownloadRequest) (*model.Artifact, error) {
	if _, err := exec.LookPath(s.cfg.YtdlpPath); err != nil {
		return nil, ErrToolMissing
	}

	if err := s.registry.Begin(req.VideoID); err != nil {
		return nil, err
	}

	baseName := deriveBaseName(req.VideoID, req.Title)

	var (
		outputPath string
		err        error
	)
	if req.Format == "audio" {
		outputPath, err = s.downloadAudio(ctx, req.VideoID, baseName)
	} else {
		// Capability check at call time, not a static config flag.
		if _, probeErr := exec.LookPath(s.cfg.FfmpegPath); probeErr == nil {
			outputPath, err = s.downloadTwoPhase(ctx, req.VideoID, baseName)
		} else {
			logger.LogWarn("Merge tool unavailable, using single-stream fallback",
				zap.String("ffmpeg", s.cfg.FfmpegPath))
			outputPath, err = s.downloadFallback(ctx, req.VideoID, baseName)
		}
	}
	if err != nil {
		// The registry reaches its terminal error state before the HTTP
		// response is written, so pollers stay consistent even if the
		// response is lost.
		s.registry.Fail(req.VideoID, err.Error())
		logger.LogError("Download failed", err, zap.String("video_id", req.VideoID))
		return nil, err
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		s.registry.Fail(req.VideoID, "download failed")
		return nil, fmt.Errorf("stat artifact: %w", err)
	}

	artifact := &model.Artifact{
		ID:        uuid.NewString(),
		VideoID:   req.VideoID,
		Filename:  filepath.Base(outputPath),
		Title:     req.Title,
		Thumbnail: req.Thumbnail,
		Size:      info.Size(),
	}
	if err := s.store.RecordDownload(ctx, artifact); err != nil {
		s.registry.Fail(req.VideoID, "download failed")
		return nil, err
	}

	s.registry.Complete(req.VideoID)
	logger.LogInfo("Download complete",
		zap.String("video_id", req.VideoID),
		zap.String("filename", artifact.Filename),
		zap.Int64("size", artifact.Size))
	return artifact, nil
}

// downloadAudio extracts and transcodes the audio stream in one invocation.
// The output path is derived up front; --audio-format fixes the extension.
func (s *DownloadService) downloadAudio(ctx context.Context, videoID, baseName string) (string, error) {
	outputPath := filepath.Join(s.store.RootDir(), baseName+".mp3")

	args := []string{
		"-x", "--audio-format", "mp3",
		"-o", outputPath,
	}
	err := s.runDownloader(ctx, videoID, model.StatusWaiting, model.StatusDownloading,
		0, completionPercent, args)
	if err != nil {
		removeQuietly(outputPath)
		return "", err
	}
	return outputPath, nil
}

// downloadTwoPhase fetches video and audio streams into temporary files and
// merges them with ffmpeg: stream copy for video, re-encode for audio.
// Temporary files are deleted unconditionally once the pipeline ends.
func (s *DownloadService) downloadTwoPhase(ctx context.Context, videoID, baseName string) (string, error) {
	videoTemp := filepath.Join(s.tempDir, baseName+".video.mp4")
	audioTemp := filepath.Join(s.tempDir, baseName+".audio.m4a")
	outputPath := filepath.Join(s.store.RootDir(), baseName+".mp4")

	defer func() {
		removeQuietly(videoTemp)
		removeQuietly(audioTemp)
	}()

	videoArgs := []string{
		"-f", fmt.Sprintf("bestvideo[height<=%d]", s.cfg.MaxHeight),
		"-o", videoTemp,
	}
	if err := s.runDownloader(ctx, videoID, model.StatusWaiting, model.StatusDownloadingVideo,
		videoPhaseFloor, videoPhaseCeil, videoArgs); err != nil {
		return "", err
	}

	audioArgs := []string{
		"-f", "bestaudio",
		"-o", audioTemp,
	}
	if err := s.runDownloader(ctx, videoID, model.StatusDownloadingVideo, model.StatusDownloadingAudio,
		videoPhaseCeil, audioPhaseCeil, audioArgs); err != nil {
		return "", err
	}

	s.registry.Update(videoID, model.StatusDownloadingAudio, model.StatusMerging, mergeCheckpoint)
	if err := s.runMerge(ctx, videoTemp, audioTemp, outputPath); err != nil {
		removeQuietly(outputPath)
		return "", err
	}

	return outputPath, nil
}

// downloadFallback fetches a combined stream capped at a lower resolution,
// used when no merge tool is available
func (s *DownloadService) downloadFallback(ctx context.Context, videoID, baseName string) (string, error) {
	outputPath := filepath.Join(s.store.RootDir(), baseName+".mp4")

	args := []string{
		"-f", fmt.Sprintf("best[height<=%d]", s.cfg.FallbackMaxHeight),
		"-o", outputPath,
	}
	err := s.runDownloader(ctx, videoID, model.StatusWaiting, model.StatusDownloading,
		0, completionPercent, args)
	if err != nil {
		removeQuietly(outputPath)
		return "", err
	}
	return outputPath, nil
}

// runDownloader runs one yt-dlp invocation, advancing the registry from the
// prior phase and mapping the tool's self-reported percentage into
// [floor, ceil]. A non-zero exit is classified from the diagnostic stream.
func (s *DownloadService) runDownloader(ctx context.Context, videoID string,
	from, phase model.JobStatus, floor, ceil float64, extraArgs []string) error {

	args := []string{
		"--newline",
		"--progress-template", progressToken + "%(progress._percent_str)s",
	}
	args = append(args, extraArgs...)
	args = append(args, watchURLPrefix+videoID)

	cmd := exec.CommandContext(ctx, s.cfg.YtdlpPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe error: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	s.registry.Update(videoID, from, phase, floor)
	logger.LogDebug("Starting downloader",
		zap.String("video_id", videoID),
		zap.String("phase", phase.String()),
		zap.Strings("args", args))

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("command start error: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			pct, ok := parseProgressLine(scanner.Text())
			if !ok {
				continue
			}
			mapped := floor + pct*(ceil-floor)/100
			s.registry.Update(videoID, phase, phase, mapped)
		}
	}()

	waitErr := cmd.Wait()
	<-done

	if waitErr != nil {
		return errors.New(classifyFailure(stderr.String()))
	}

	// Close out the phase even if the tool never reported 100.
	s.registry.Update(videoID, phase, phase, ceil)
	return nil
}

// runMerge combines the two stream files into the final artifact. ffmpeg is
// signaled only by exit code.
func (s *DownloadService) runMerge(ctx context.Context, videoTemp, audioTemp, outputPath string) error {
	cmd := exec.CommandContext(ctx, s.cfg.FfmpegPath,
		"-y",
		"-i", videoTemp,
		"-i", audioTemp,
		"-c:v", "copy",
		"-c:a", "aac",
		outputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.LogError("Merge failed", err, zap.String("output", outputPath))
		return errors.New("failed to merge video and audio streams")
	}
	return nil
}

// parseProgressLine extracts the percentage from a "progress:<pct>" token
func parseProgressLine(line string) (float64, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, progressToken) {
		return 0, false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(line, progressToken))
	raw = strings.TrimSuffix(raw, "%")
	raw = strings.TrimSpace(raw)

	pct, err := strconv.ParseFloat(raw, 64)
	if err != nil || pct < 0 || pct > 100 {
		return 0, false
	}
	return pct, true
}

// classifyFailure maps known substrings of the downloader's diagnostic
// output to user-facing messages. The substrings are not a stable contract
// of the tool; anything unmatched gets the generic message.
func classifyFailure(stderr string) string {
	lower := strings.ToLower(stderr)

	switch {
	case strings.Contains(lower, "video unavailable"):
		return "the video is unavailable or removed"
	case strings.Contains(lower, "confirm your age"),
		strings.Contains(lower, "age-restricted"),
		strings.Contains(lower, "age restricted"):
		return "the video is age-restricted and cannot be downloaded"
	case strings.Contains(lower, "sign in to confirm"),
		strings.Contains(lower, "requires sign-in"):
		return "the video requires sign-in verification"
	case strings.Contains(lower, "name resolution"),
		strings.Contains(lower, "network is unreachable"),
		strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "timed out"):
		return "network unavailable, check your connection"
	default:
		return "download failed"
	}
}

// deriveBaseName builds the artifact base name from the video identifier and
// a sanitized form of the title
func deriveBaseName(videoID, title string) string {
	slug := validator.SlugifyTitle(title)
	if slug == "" {
		return videoID
	}
	return validator.TruncateFilename(videoID+"_"+slug, maxBaseNameLen)
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.LogWarn("Failed to remove file", zap.String("path", path), zap.Error(err))
	}
}
