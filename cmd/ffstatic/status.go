package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ZebulonRouseFrantzich/ffstatic/internal/ffbin"
	"github.com/ZebulonRouseFrantzich/ffstatic/internal/platform"
)

// runStatus handles the `ffstatic status` subcommand
func runStatus(args []string) error {
	for _, arg := range args {
		switch arg {
		case "--help", "-h":
			fmt.Println("Usage: ffstatic status")
			fmt.Println()
			fmt.Println("Shows the detected platform and the cache state for every")
			fmt.Println("supported platform key. Performs no downloads.")
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	root, err := ffbin.DefaultCacheRoot()
	if err != nil {
		return err
	}
	store := ffbin.NewStore(root)

	info, err := platform.NewDetector().Detect(ctx)
	if err != nil {
		fmt.Printf("Platform:   unsupported (%v)\n", err)
	} else {
		fmt.Printf("Platform:   %s (%s/%s)\n", info.Key, info.OSRaw, info.ArchRaw)
		if distro := info.GetDistro(); distro != nil {
			fmt.Printf("Distro:     %s %s (%s family)\n", distro.ID, distro.Version, distro.Family)
		}
	}
	fmt.Printf("Cache root: %s\n", root)
	fmt.Println()

	for _, key := range platform.Keys {
		state := "absent"
		if store.IsValid(key) {
			state = "cached"
			if stamp, err := store.ReadStamp(key); err == nil {
				state = fmt.Sprintf("cached (fetched %s)", stamp.FetchedAt.Format(time.RFC3339))
			}
		}
		fmt.Printf("  %-16s %s\n", key, state)
	}

	return nil
}
