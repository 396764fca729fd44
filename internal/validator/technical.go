package validator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/medialint/scene-validator/internal/models"
)

// framerateTolerance is the absolute tolerance for framerate comparison;
// probed rates are rationals and rarely land exactly on the requested value.
const framerateTolerance = 0.01

// CheckTechnical compares probed media metadata against the declared
// requirements. Only requirements that were expressed are checked; a nil
// field is no constraint, not a constraint satisfied by default. Each rule
// produces at most one issue, in a fixed order: resolution, framerate,
// audio channels, audio sample rate. The only error case is a resolution
// requirement that cannot be parsed as "WxH".
func CheckTechnical(meta models.TechnicalMetadata, reqs models.TechnicalRequirements) (models.ValidationCheck, error) {
	var issues []models.Issue

	if reqs.Resolution != nil {
		reqWidth, reqHeight, err := parseResolution(*reqs.Resolution)
		if err != nil {
			return models.ValidationCheck{}, err
		}
		if meta.Width != reqWidth || meta.Height != reqHeight {
			issues = append(issues, models.Issue{
				Type:        "resolution_mismatch",
				Description: fmt.Sprintf("Resolution %dx%d does not match required %s", meta.Width, meta.Height, *reqs.Resolution),
				Severity:    models.SeverityHigh,
				Property:    "resolution",
			})
		}
	}

	if reqs.Framerate != nil {
		if math.Abs(meta.Framerate-*reqs.Framerate) > framerateTolerance {
			issues = append(issues, models.Issue{
				Type:        "framerate_mismatch",
				Description: fmt.Sprintf("Framerate %g does not match required %g", meta.Framerate, *reqs.Framerate),
				Severity:    models.SeverityHigh,
				Property:    "framerate",
			})
		}
	}

	if reqs.AudioChannels != nil {
		if meta.AudioChannels != *reqs.AudioChannels {
			issues = append(issues, models.Issue{
				Type:        "audio_channels_mismatch",
				Description: fmt.Sprintf("Audio channels %d does not match required %d", meta.AudioChannels, *reqs.AudioChannels),
				Severity:    models.SeverityMedium,
				Property:    "audio_channels",
			})
		}
	}

	if reqs.AudioSampleRate != nil {
		if meta.AudioSampleRate != *reqs.AudioSampleRate {
			issues = append(issues, models.Issue{
				Type:        "audio_sample_rate_mismatch",
				Description: fmt.Sprintf("Audio sample rate %d does not match required %d", meta.AudioSampleRate, *reqs.AudioSampleRate),
				Severity:    models.SeverityMedium,
				Property:    "audio_sample_rate",
			})
		}
	}

	return models.ValidationCheck{Passes: len(issues) == 0, Issues: issues}, nil
}

func parseResolution(resolution string) (width, height int, err error) {
	parts := strings.SplitN(strings.ToLower(resolution), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid resolution requirement %q: expected WxH", resolution)
	}
	width, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid resolution requirement %q: %w", resolution, err)
	}
	height, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid resolution requirement %q: %w", resolution, err)
	}
	return width, height, nil
}
