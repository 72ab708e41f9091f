package acoustics

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

//go:embed scripts/*.praat
var scripts embed.FS

const (
	formantWindowLength     = 0.025
	spectrogramWindowLength = 0.005
)

// undefined is what Praat prints for measurements it cannot make.
const undefined = "--undefined--"

// Praat runs measurements through the praat CLI. The embedded analysis
// scripts are extracted to a temp directory at construction.
type Praat struct {
	command   string
	scriptDir string
	logger    *slog.Logger
}

var _ Analyzer = (*Praat)(nil)

type PraatOpt func(*Praat)

// WithCommand overrides the praat binary path.
func WithCommand(command string) PraatOpt {
	return func(p *Praat) {
		if command != "" {
			p.command = command
		}
	}
}

func NewPraat(logger *slog.Logger, opts ...PraatOpt) (*Praat, error) {
	p := &Praat{
		command: "praat",
		logger:  logger.With("component", "praat"),
	}
	for _, opt := range opts {
		opt(p)
	}

	dir, err := os.MkdirTemp("", "praat-scripts-*")
	if err != nil {
		return nil, fmt.Errorf("create script dir: %w", err)
	}
	if err := fs.WalkDir(scripts, "scripts", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := scripts.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, filepath.Base(path)), data, 0o600)
	}); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("extract scripts: %w", err)
	}
	p.scriptDir = dir

	return p, nil
}

// Close removes the extracted scripts.
func (p *Praat) Close() error {
	return os.RemoveAll(p.scriptDir)
}

func (p *Praat) Pitch(ctx context.Context, wavPath string) (*PitchTrack, error) {
	lines, err := p.run(ctx, "pitch_track.praat", wavPath)
	if err != nil {
		return nil, err
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("pitch track: short output (%d lines)", len(lines))
	}

	timeStep, err := parseValue(lines[0])
	if err != nil {
		return nil, fmt.Errorf("pitch track: %w", err)
	}
	startTime, err := parseValue(lines[1])
	if err != nil {
		return nil, fmt.Errorf("pitch track: %w", err)
	}

	freqs := make([]float64, 0, len(lines)-2)
	for _, line := range lines[2:] {
		v, err := parseValue(line)
		if err != nil {
			return nil, fmt.Errorf("pitch track: %w", err)
		}
		// Unvoiced frames come back undefined; the contour carries them
		// as zero.
		if math.IsNaN(v) {
			v = 0
		}
		freqs = append(freqs, v)
	}

	return &PitchTrack{TimeStep: timeStep, StartTime: startTime, Frequencies: freqs}, nil
}

func (p *Praat) Formants(ctx context.Context, wavPath string) (*FormantTrack, error) {
	return p.formantTrack(ctx, "formant_track.praat", wavPath, 2, formantWindowLength)
}

func (p *Praat) SpectrogramFormants(ctx context.Context, wavPath string) (*FormantTrack, error) {
	return p.formantTrack(ctx, "spectrogram_formants.praat", wavPath, 5, spectrogramWindowLength)
}

func (p *Praat) formantTrack(ctx context.Context, script, wavPath string, count int, window float64) (*FormantTrack, error) {
	lines, err := p.run(ctx, script, wavPath)
	if err != nil {
		return nil, err
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("formant track: short output (%d lines)", len(lines))
	}

	timeStep, err := parseValue(lines[0])
	if err != nil {
		return nil, fmt.Errorf("formant track: %w", err)
	}
	startTime, err := parseValue(lines[1])
	if err != nil {
		return nil, fmt.Errorf("formant track: %w", err)
	}

	frames := make([][]float64, 0, len(lines)-2)
	for _, line := range lines[2:] {
		fields := strings.Fields(line)
		if len(fields) != count {
			return nil, fmt.Errorf("formant track: want %d values per frame, got %d", count, len(fields))
		}
		frame := make([]float64, count)
		for i, field := range fields {
			v, err := parseValue(field)
			if err != nil {
				return nil, fmt.Errorf("formant track: %w", err)
			}
			frame[i] = v
		}
		frames = append(frames, frame)
	}

	return &FormantTrack{
		TimeStep:     timeStep,
		WindowLength: window,
		StartTime:    startTime,
		Frames:       frames,
	}, nil
}

func (p *Praat) FramePitch(ctx context.Context, wavPath string) (float64, error) {
	lines, err := p.run(ctx, "frame_pitch.praat", wavPath)
	if err != nil {
		return math.NaN(), err
	}
	if len(lines) != 1 {
		return math.NaN(), fmt.Errorf("frame pitch: want 1 output line, got %d", len(lines))
	}
	return parseValue(lines[0])
}

func (p *Praat) FrameFormants(ctx context.Context, wavPath string) (float64, float64, error) {
	lines, err := p.run(ctx, "frame_formants.praat", wavPath)
	if err != nil {
		return math.NaN(), math.NaN(), err
	}
	if len(lines) != 2 {
		return math.NaN(), math.NaN(), fmt.Errorf("frame formants: want 2 output lines, got %d", len(lines))
	}
	f1, err := parseValue(lines[0])
	if err != nil {
		return math.NaN(), math.NaN(), err
	}
	f2, err := parseValue(lines[1])
	if err != nil {
		return math.NaN(), math.NaN(), err
	}
	return f1, f2, nil
}

func (p *Praat) run(ctx context.Context, script string, args ...string) ([]string, error) {
	cmdArgs := append([]string{"--run", filepath.Join(p.scriptDir, script)}, args...)
	cmd := exec.CommandContext(ctx, p.command, cmdArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	p.logger.Debug("running praat", "script", script)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("praat %s: %w: %s", script, err, strings.TrimSpace(stderr.String()))
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return nil, nil
	}
	lines := strings.Split(out, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines, nil
}

func parseValue(s string) (float64, error) {
	if s == undefined {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse praat value %q: %w", s, err)
	}
	return v, nil
}
