/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.ExactArgs(0),
	// no config needed to say who we are
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return fmt.Errorf("version: could not read build info")
		}
		fmt.Printf("issue-posts version %s\n", shortVersion(info))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Version is overridden at link time with -ldflags "-X main.Version=v1.2.3".
var Version = "unknown"

func shortVersion(info *debug.BuildInfo) string {
	version := Version
	if version == "unknown" && info.Main.Version != "" {
		version = info.Main.Version
	}

	var revision string
	dirty := false
	for _, kv := range info.Settings {
		switch kv.Key {
		case "vcs.revision":
			revision = kv.Value
		case "vcs.modified":
			dirty = kv.Value == "true"
		}
	}

	parts := make([]string, 0, 3)
	if version != "unknown" && version != "(devel)" {
		parts = append(parts, version)
	}
	if revision != "" {
		parts = append(parts, "rev", revision)
		if dirty {
			parts = append(parts, "dirty")
		}
	}
	if len(parts) == 0 {
		return "devel"
	}
	return strings.Join(parts, "-")
}
