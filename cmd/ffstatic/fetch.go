package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ZebulonRouseFrantzich/ffstatic/internal/ffbin"
)

// runFetch handles the `ffstatic fetch` subcommand
func runFetch(args []string) error {
	for _, arg := range args {
		switch arg {
		case "--help", "-h":
			fmt.Println("Usage: ffstatic fetch")
			fmt.Println()
			fmt.Println("Resolves the static ffmpeg and ffprobe binaries for this platform,")
			fmt.Println("downloading and caching them on first use, and prints their paths.")
			return nil
		}
	}

	// Downloads run into the tens of megabytes; allow for slow links
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	paths, err := ffbin.GetFFmpeg(ctx)
	if err != nil {
		return err
	}

	fmt.Println(paths.FFmpeg)
	fmt.Println(paths.FFprobe)
	return nil
}
