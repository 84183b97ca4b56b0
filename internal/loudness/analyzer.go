package loudness

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"podjoin/internal/ffmpeg"
	"podjoin/internal/services"
)

// Params are the loudnorm filter parameters used for the analysis pass.
type Params struct {
	TargetI       float64
	TruePeak      float64
	LoudnessRange float64
}

// Measurement is the typed result of a loudnorm analysis run.
type Measurement struct {
	// InputI is the integrated loudness of the reference clip in LUFS.
	InputI float64
}

// report mirrors the fields of the loudnorm JSON block. The engine prints
// numeric values as strings.
type report struct {
	InputI      string `json:"input_i"`
	InputTP     string `json:"input_tp"`
	InputLRA    string `json:"input_lra"`
	InputThresh string `json:"input_thresh"`
}

// The engine prints the loudnorm report as the last JSON object on its
// diagnostic stream, after the regular progress output.
var jsonBlock = regexp.MustCompile(`(?s)\{.*?\}`)

// Measure runs the engine in measurement-only mode against the reference
// file and extracts its integrated loudness. Blocking; the caller must not
// start normalization before it returns.
func Measure(ctx context.Context, client *ffmpeg.Client, file string, params Params) (Measurement, error) {
	args := []string{
		"-hide_banner", "-nostdin",
		"-i", file,
		"-af", analysisFilter(params),
		"-f", "null", "-",
	}

	result, err := client.Run(ctx, args...)
	if err != nil {
		return Measurement{}, services.Wrap(services.ErrAnalysis, "measuring", filepath.Base(file),
			ffmpeg.StderrExcerpt(result, 20), err)
	}

	measurement, err := parseReport(result.Stderr)
	if err != nil {
		return Measurement{}, services.Wrap(services.ErrAnalysis, "measuring", filepath.Base(file),
			err.Error(), nil)
	}
	return measurement, nil
}

func analysisFilter(params Params) string {
	return fmt.Sprintf("loudnorm=I=%g:TP=%g:LRA=%g:print_format=json",
		params.TargetI, params.TruePeak, params.LoudnessRange)
}

func parseReport(stderr string) (Measurement, error) {
	blocks := jsonBlock.FindAllString(stderr, -1)
	if len(blocks) == 0 {
		return Measurement{}, fmt.Errorf("no loudnorm JSON block in engine output")
	}

	var rep report
	if err := json.Unmarshal([]byte(blocks[len(blocks)-1]), &rep); err != nil {
		return Measurement{}, fmt.Errorf("decode loudnorm JSON: %w", err)
	}

	raw := strings.TrimSpace(rep.InputI)
	if raw == "" {
		return Measurement{}, fmt.Errorf("loudnorm report has no input_i field")
	}
	if strings.EqualFold(raw, "nan") || strings.EqualFold(raw, "-nan") {
		return Measurement{}, fmt.Errorf("loudnorm reported input_i=%s; the reference clip may be silent", raw)
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Measurement{}, fmt.Errorf("parse input_i %q: %w", raw, err)
	}
	return Measurement{InputI: value}, nil
}
