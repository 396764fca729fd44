package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/medialint/scene-validator/internal/models"
)

// ffprobe JSON output, limited to the fields we read.
type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	Channels     int    `json:"channels"`
	SampleRate   string `json:"sample_rate"`
}

type probeFormat struct {
	Duration string `json:"duration"`
	Size     string `json:"size"`
}

// probe runs ffprobe against a local file and maps its output to the
// technical metadata model.
func (s *Source) probe(ctx context.Context, path string) (models.TechnicalMetadata, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return models.TechnicalMetadata{}, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return parseProbeOutput(stdout.Bytes())
}

func parseProbeOutput(data []byte) (models.TechnicalMetadata, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return models.TechnicalMetadata{}, fmt.Errorf("decode ffprobe output: %w", err)
	}

	var video, audio *probeStream
	for i := range out.Streams {
		switch out.Streams[i].CodecType {
		case "video":
			if video == nil {
				video = &out.Streams[i]
			}
		case "audio":
			if audio == nil {
				audio = &out.Streams[i]
			}
		}
	}
	if video == nil {
		return models.TechnicalMetadata{}, fmt.Errorf("no video stream found")
	}

	meta := models.TechnicalMetadata{
		Width:      video.Width,
		Height:     video.Height,
		Framerate:  parseFrameRate(video.AvgFrameRate),
		Codec:      codecOrDefault(video.CodecName, "unknown"),
		AudioCodec: "none",
	}
	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		meta.Duration = d
	}
	if n, err := strconv.ParseInt(out.Format.Size, 10, 64); err == nil {
		meta.Size = n
	}
	if audio != nil {
		meta.AudioChannels = audio.Channels
		if rate, err := strconv.Atoi(audio.SampleRate); err == nil {
			meta.AudioSampleRate = rate
		}
		meta.AudioCodec = codecOrDefault(audio.CodecName, "none")
	}
	return meta, nil
}

// parseFrameRate converts ffprobe's "num/den" rational into a float. Zero
// denominators and unparseable values map to 0.
func parseFrameRate(rate string) float64 {
	parts := strings.SplitN(rate, "/", 2)
	if len(parts) != 2 {
		if f, err := strconv.ParseFloat(rate, 64); err == nil {
			return f
		}
		return 0
	}
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0
	}
	return num / den
}

func codecOrDefault(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// extractFrame decodes a single JPEG frame at the given timestamp.
func extractFrame(ctx context.Context, path string, timestamp float64) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-ss", strconv.FormatFloat(timestamp, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"pipe:1",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame at %.3fs: %w: %s", timestamp, err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame at %.3fs", timestamp)
	}
	return stdout.Bytes(), nil
}
