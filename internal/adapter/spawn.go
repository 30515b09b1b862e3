package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// ErrBinaryNotFound is returned when an external converter is not installed.
var ErrBinaryNotFound = errors.New("binary not found in PATH")

// maxStderr bounds how much of a converter's stderr ends up in an error.
const maxStderr = 4 * 1024

// command describes one run of an external converter.
type command struct {
	binary string
	args   []string
	// stdin is fed to the process. nil leaves stdin empty.
	stdin io.Reader
	// postproc transforms stdout before it reaches the output. nil means
	// every line is prefixed with the line prefix.
	postproc func(out io.Writer, stdout io.Reader, prefix string) error
}

// spawn runs c, relaying its stdout to ai.Output.
func spawn(ctx context.Context, ai Info, c command) error {
	path, err := exec.LookPath(c.binary)
	if err != nil {
		return fmt.Errorf("%s: %w", c.binary, ErrBinaryNotFound)
	}

	cmd := exec.CommandContext(ctx, path, c.args...)
	if c.stdin != nil {
		cmd.Stdin = c.stdin
	}
	stderr := &limitedBuffer{max: maxStderr}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%s: stdout pipe: %w", c.binary, err)
	}

	ai.logger().Debug("spawning converter", "binary", path, "args", strings.Join(c.args, " "), "file", ai.FilepathHint)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: start: %w", c.binary, err)
	}

	postproc := c.postproc
	if postproc == nil {
		postproc = CopyPrefixed
	}
	copyErr := postproc(ai.Output, stdout, ai.LinePrefix)
	if copyErr != nil {
		// Nobody reads the rest of stdout anymore.
		_ = cmd.Process.Kill()
	}

	waitErr := cmd.Wait()
	if copyErr != nil {
		return fmt.Errorf("%s: relay output: %w", c.binary, copyErr)
	}
	if waitErr != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", c.binary, waitErr, msg)
		}
		return fmt.Errorf("%s: %w", c.binary, waitErr)
	}
	return nil
}

// limitedBuffer keeps the first max bytes written to it.
type limitedBuffer struct {
	buf bytes.Buffer
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}
