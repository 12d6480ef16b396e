package main

import (
	"fmt"
	"os"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

func main() {
	// Handle subcommands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version":
			fmt.Printf("ffstatic %s\n", Version)
			return
		case "fetch":
			// Resolve the binaries, downloading if needed
			if err := runFetch(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "clear":
			// Clear cached binaries
			if err := runClear(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "status":
			// Show platform and cache state
			if err := runStatus(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	// Default: show help
	fmt.Println("ffstatic - static FFmpeg/FFprobe binaries without a system install")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  ffstatic --version        Show version information")
	fmt.Println("  ffstatic fetch            Download (if needed) and print the binary paths")
	fmt.Println("  ffstatic clear [key]      Clear the cache for one platform key, or everything")
	fmt.Println("  ffstatic status           Show detected platform and per-key cache state")
	fmt.Println()
	fmt.Println("The ffmpeg and ffprobe commands installed alongside ffstatic forward")
	fmt.Println("their arguments to the cached binaries, downloading them on first use.")
}
