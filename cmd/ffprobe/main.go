// Command ffprobe resolves the cached static ffprobe binary for this
// platform (downloading it on first use) and executes it with all
// arguments forwarded verbatim, propagating the child's exit code.
package main

import (
	"context"
	"os"

	"github.com/ZebulonRouseFrantzich/ffstatic/internal/ffbin"
	"github.com/ZebulonRouseFrantzich/ffstatic/internal/forward"
)

func main() {
	os.Exit(forward.Run(context.Background(), ffbin.BinFFprobe, os.Args[1:]))
}
