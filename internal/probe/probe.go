// SPDX-License-Identifier: MIT

// Package probe inspects remote media sources with ffprobe to enumerate
// audio and subtitle tracks without decoding the stream.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrProbe wraps all inspection failures. A probe failure marks the owning
// job as failed; it never crashes the service.
var ErrProbe = errors.New("probe failed")

// Kind classifies a source stream.
type Kind string

const (
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindSubtitle Kind = "subtitle"
)

// Track describes one stream of the probed source.
type Track struct {
	// Index is the absolute stream index in the source container.
	Index    int
	Kind     Kind
	Language string
	Name     string
}

// DefaultTimeout bounds a single ffprobe invocation.
const DefaultTimeout = 30 * time.Second

// runFunc executes the probe binary and returns stdout, stderr. Tests
// substitute this to avoid spawning processes.
type runFunc func(ctx context.Context, bin string, args []string) ([]byte, []byte, error)

// Prober enumerates tracks of a media source.
type Prober struct {
	bin     string
	timeout time.Duration
	log     zerolog.Logger
	run     runFunc
}

// New creates a Prober using the given ffprobe binary.
func New(bin string, logger zerolog.Logger) *Prober {
	return &Prober{
		bin:     bin,
		timeout: DefaultTimeout,
		log:     logger,
		run:     runProbe,
	}
}

type ffprobeStream struct {
	Index     int    `json:"index"`
	CodecType string `json:"codec_type"`
	Tags      struct {
		Language string `json:"language"`
		Title    string `json:"title"`
	} `json:"tags"`
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
}

// Probe inspects url and returns its tracks in source stream order. Audio
// and subtitle streams are classified; the video track is reported as a
// single fixed track regardless of how many video streams the source has.
func (p *Prober) Probe(ctx context.Context, url string) ([]Track, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		url,
	}

	stdout, stderr, err := p.run(ctx, p.bin, args)
	if err != nil {
		p.log.Error().
			Err(err).
			Str("stderr", tail(stderr, 512)).
			Msg("ffprobe invocation failed")
		return nil, fmt.Errorf("%w: %s", ErrProbe, firstLine(stderr, err))
	}

	var out ffprobeOutput
	if err := json.Unmarshal(stdout, &out); err != nil {
		return nil, fmt.Errorf("%w: unparseable ffprobe output: %v", ErrProbe, err)
	}
	if len(out.Streams) == 0 {
		return nil, fmt.Errorf("%w: source has no streams", ErrProbe)
	}

	var tracks []Track
	videoSeen := false
	audioOrdinal := 0
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if videoSeen {
				continue
			}
			videoSeen = true
			tracks = append(tracks, Track{Index: s.Index, Kind: KindVideo, Name: "Video"})
		case "audio":
			audioOrdinal++
			tracks = append(tracks, Track{
				Index:    s.Index,
				Kind:     KindAudio,
				Language: s.Tags.Language,
				Name:     DisplayName(s.Tags.Language, audioOrdinal),
			})
		case "subtitle":
			tracks = append(tracks, Track{
				Index:    s.Index,
				Kind:     KindSubtitle,
				Language: s.Tags.Language,
				Name:     s.Tags.Title,
			})
		}
	}

	if !videoSeen {
		return nil, fmt.Errorf("%w: source has no video stream", ErrProbe)
	}
	return tracks, nil
}

func runProbe(ctx context.Context, bin string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func tail(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

func firstLine(stderr []byte, fallback error) string {
	s := strings.TrimSpace(string(stderr))
	if s == "" {
		return fallback.Error()
	}
	if i := strings.IndexByte(s, '\n'); i > 0 {
		s = s[:i]
	}
	return s
}
