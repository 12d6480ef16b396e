// Package forward runs a cached binary with verbatim arguments,
// resolving (and downloading on first use) before handing off.
package forward

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/ZebulonRouseFrantzich/ffstatic/internal/ffbin"
)

// Run resolves the named logical binary ("ffmpeg" or "ffprobe"),
// executes it with the given arguments wired to this process's stdio,
// and returns the child's exit code. Resolution failures report on
// stderr and return 1.
func Run(ctx context.Context, logical string, args []string) int {
	paths, err := ffbin.GetFFmpeg(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	binPath := paths.FFmpeg
	if logical == ffbin.BinFFprobe {
		binPath = paths.FFprobe
	}

	cmd := exec.CommandContext(ctx, binPath, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		// A nonzero child exit is not our error; pass its code through
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error: run %s: %v\n", binPath, err)
		return 1
	}

	return 0
}
