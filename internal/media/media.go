// Package media acquires scene files for validation. A locator is either an
// s3:// object reference or a plain HTTP(S) URL; either way the file is
// downloaded to a temporary path, probed or sampled, and released by the
// caller through the returned release func. Every acquisition is a fresh
// download; nothing is cached between calls.
package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/medialint/scene-validator/internal/logging"
	"github.com/medialint/scene-validator/internal/models"
)

// ReleaseFunc deletes the temporary resources behind an acquisition. Safe to
// call exactly once; the orchestrator defers it around each check.
type ReleaseFunc = func()

// Source downloads and inspects media files.
type Source struct {
	downloader *manager.Downloader
	httpClient *http.Client
	tempDir    string
	log        *zap.SugaredLogger
}

// New builds a Source. AWS credentials and region come from the environment,
// same as any other SDK consumer.
func New(ctx context.Context, log *zap.SugaredLogger) (*Source, error) {
	cfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	if log == nil {
		log = logging.NewNop()
	}
	return &Source{
		downloader: manager.NewDownloader(client),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		tempDir:    os.TempDir(),
		log:        log,
	}, nil
}

// FetchMetadata downloads the media file and probes its technical metadata.
// On success the caller owns the release func; on error the temporary file
// is already gone.
func (s *Source) FetchMetadata(ctx context.Context, locator string) (models.TechnicalMetadata, ReleaseFunc, error) {
	path, release, err := s.download(ctx, locator)
	if err != nil {
		return models.TechnicalMetadata{}, nil, err
	}
	meta, err := s.probe(ctx, path)
	if err != nil {
		release()
		return models.TechnicalMetadata{}, nil, err
	}
	return meta, release, nil
}

// SampleFrames downloads the media file and extracts count JPEG frames at
// evenly spaced timestamps. Frames that cannot be decoded are skipped.
func (s *Source) SampleFrames(ctx context.Context, locator string, count int) ([][]byte, ReleaseFunc, error) {
	path, release, err := s.download(ctx, locator)
	if err != nil {
		return nil, nil, err
	}
	meta, err := s.probe(ctx, path)
	if err != nil {
		release()
		return nil, nil, err
	}
	var frames [][]byte
	for _, ts := range frameTimestamps(meta.Duration, count) {
		frame, err := extractFrame(ctx, path, ts)
		if err != nil {
			s.log.Warnw("failed to extract frame", "locator", locator, "timestamp", ts, "error", err)
			continue
		}
		frames = append(frames, frame)
	}
	return frames, release, nil
}

func (s *Source) download(ctx context.Context, locator string) (string, ReleaseFunc, error) {
	f, err := os.CreateTemp(s.tempDir, "scene-*.mp4")
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	release := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.log.Warnw("failed to remove temp file", "path", path, "error", err)
		}
	}

	switch {
	case strings.HasPrefix(locator, "s3://"):
		err = s.downloadS3(ctx, locator, f)
	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		err = s.downloadHTTP(ctx, locator, f)
	default:
		err = fmt.Errorf("unsupported media locator scheme: %s", locator)
	}
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close temp file: %w", cerr)
	}
	if err != nil {
		release()
		return "", nil, err
	}
	return path, release, nil
}

func (s *Source) downloadS3(ctx context.Context, locator string, f *os.File) error {
	bucket, key, err := parseS3Locator(locator)
	if err != nil {
		return err
	}
	if _, err := s.downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("download %s: %w", locator, err)
	}
	return nil
}

func (s *Source) downloadHTTP(ctx context.Context, locator string, f *os.File) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", locator, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", locator, resp.Status)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("write download: %w", err)
	}
	return nil
}

func parseS3Locator(locator string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(locator, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid s3 locator: %s", locator)
	}
	return parts[0], parts[1], nil
}

// frameTimestamps spreads count timestamps evenly across the duration. A
// single frame is taken at the midpoint.
func frameTimestamps(duration float64, count int) []float64 {
	if count <= 0 {
		return nil
	}
	if count == 1 {
		return []float64{duration / 2}
	}
	stamps := make([]float64, count)
	for i := 0; i < count; i++ {
		stamps[i] = duration * float64(i) / float64(count-1)
	}
	return stamps
}
