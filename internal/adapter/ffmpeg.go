package adapter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

var ffmpegExtensions = []string{"mkv", "mp4", "avi", "webm", "mp3", "ogg", "flac", "m4a"}

var ffmpegMimeTypes = []string{
	"video/x-matroska",
	"video/webm",
	"video/mp4",
	"video/quicktime",
	"video/x-msvideo",
	"audio/mp4",
	"audio/mpeg",
	"audio/ogg",
	"audio/flac",
}

// FFmpegAdapter extracts container metadata and subtitle text from media files.
type FFmpegAdapter struct {
	meta Metadata
}

// NewFFmpegAdapter creates the ffmpeg adapter
func NewFFmpegAdapter() *FFmpegAdapter {
	return &FFmpegAdapter{meta: Metadata{
		Name:         "ffmpeg",
		Version:      1,
		Description:  "Uses ffmpeg to extract video metadata and subtitles",
		FastMatchers: extensionMatchers(ffmpegExtensions...),
		SlowMatchers: mimeMatchers(ffmpegMimeTypes...),
	}}
}

func (a *FFmpegAdapter) Metadata() *Metadata { return &a.meta }

// Binary is the external program the adapter runs.
func (a *FFmpegAdapter) Binary() string { return "ffmpeg" }

// Adapt needs a real file, ffmpeg seeks around in the container.
func (a *FFmpegAdapter) Adapt(ctx context.Context, ai Info) error {
	if !ai.IsRealFile {
		ai.logger().Warn("ffmpeg adapter can only work on real files", "file", ai.FilepathHint)
		return nil
	}

	err := spawn(ctx, ai, command{
		binary: "ffmpeg",
		args:   []string{"-hide_banner", "-loglevel", "error", "-i", ai.FilepathHint, "-f", "ffmetadata", "-"},
		postproc: func(out io.Writer, stdout io.Reader, prefix string) error {
			return CopyPrefixed(out, stdout, prefix+"metadata: ")
		},
	})
	if err != nil {
		return err
	}

	return spawn(ctx, ai, command{
		binary:   "ffmpeg",
		args:     []string{"-hide_banner", "-loglevel", "error", "-i", ai.FilepathHint, "-map", "0:s?", "-f", "webvtt", "-"},
		postproc: relayWebVTT,
	})
}

// relayWebVTT turns a WebVTT stream into one line per cue text line,
// prefixed with the cue start time.
func relayWebVTT(out io.Writer, stdout io.Reader, prefix string) error {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	start := ""
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case line == "" || line == "WEBVTT":
			start = ""
		case strings.Contains(line, "-->"):
			start = strings.TrimSpace(strings.SplitN(line, "-->", 2)[0])
		case start != "":
			if _, err := fmt.Fprintf(out, "%s%s: %s\n", prefix, start, line); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}
