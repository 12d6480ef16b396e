package main

import (
	"fmt"
	"strings"

	"github.com/ZebulonRouseFrantzich/ffstatic/internal/ffbin"
	"github.com/ZebulonRouseFrantzich/ffstatic/internal/platform"
)

// runClear handles the `ffstatic clear` subcommand
func runClear(args []string) error {
	var keyArg string
	for _, arg := range args {
		switch arg {
		case "--help", "-h":
			fmt.Println("Usage: ffstatic clear [<os>-<arch>]")
			fmt.Println()
			fmt.Println("Removes cached binaries. With a platform key (e.g. linux-x86_64)")
			fmt.Println("only that entry is removed; without one the entire cache goes.")
			fmt.Println("Clearing an absent cache succeeds silently.")
			return nil
		case "--all":
			// Explicit form of the no-argument default
		default:
			if keyArg != "" {
				return fmt.Errorf("expected at most one platform key, got %q and %q", keyArg, arg)
			}
			keyArg = arg
		}
	}

	if keyArg == "" {
		if err := ffbin.ClearCache(nil); err != nil {
			return err
		}
		fmt.Println("Cleared all cached binaries.")
		return nil
	}

	key, err := parseKey(keyArg)
	if err != nil {
		return err
	}

	if err := ffbin.ClearCache(&key); err != nil {
		return err
	}
	fmt.Printf("Cleared cached binaries for %s.\n", key)
	return nil
}

// parseKey parses an "<os>-<arch>" argument into a supported platform key.
func parseKey(arg string) (platform.Key, error) {
	osName, archName, ok := strings.Cut(arg, "-")
	if !ok {
		return platform.Key{}, fmt.Errorf("invalid platform key %q, expected <os>-<arch> (e.g. linux-x86_64)", arg)
	}
	return platform.KeyFor(osName, archName)
}
