package waveform

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	// DefaultTool is the binary expected on PATH.
	DefaultTool = "audiowaveform"

	defaultTimeout = 60 * time.Second

	// waveformBits is the sample resolution of the generated .dat output.
	waveformBits = "8"

	maxReportedOutput = 512
)

// Extractor derives a waveform data file from an audio file by invoking an
// external tool as a synchronous subprocess. The invocation is bounded by a
// timeout so a stuck tool cannot hang the calling request forever.
type Extractor struct {
	tool    string
	timeout time.Duration
}

func NewExtractor(tool string, timeout time.Duration) *Extractor {
	if tool == "" {
		tool = DefaultTool
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Extractor{tool: tool, timeout: timeout}
}

// Generate writes the waveform for src to dst. A non-zero exit, a tool that
// cannot be started, or a timeout all fail the call; the caller decides what
// to do with any partial dst file.
func (e *Extractor) Generate(ctx context.Context, src, dst string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.tool, "-i", src, "-o", dst, "-b", waveformBits)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("waveform tool %s timed out after %s", e.tool, e.timeout)
		}
		return fmt.Errorf("waveform tool %s failed: %w (%s)", e.tool, err, trimOutput(output))
	}

	return nil
}

func trimOutput(output []byte) string {
	s := strings.TrimSpace(string(output))
	if len(s) > maxReportedOutput {
		s = s[:maxReportedOutput]
	}
	return s
}
