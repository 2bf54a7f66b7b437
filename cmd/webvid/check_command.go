package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"webvid/internal/deps"
	"webvid/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report whether ffmpeg, ffprobe, and the state directory are usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			lines := renderSectionHeader("Configuration", colorize)
			configDetail := ctx.configPath
			if !ctx.configSeen {
				configDetail += " (not found, using defaults)"
			}
			lines = append(lines, renderStatusLine("Config file", statusInfo, configDetail, colorize))
			lines = append(lines, renderStatusLine("Parallel steps", statusInfo, yesNo(cfg.Pipeline.Parallel), colorize))
			lines = append(lines, renderStatusLine("Atomic bundles", statusInfo, yesNo(cfg.Pipeline.Atomic), colorize))
			lines = append(lines, renderStatusLine("Run history", statusInfo, yesNo(cfg.History.Enabled), colorize))
			lines = append(lines, "")

			statuses := preflight.CheckSystemDeps(cfg)
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyLines(statuses, colorize)...)
			lines = append(lines, "")

			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			results := preflight.RunAll(cfg)
			if output := strings.TrimSpace(outputFlag); output != "" {
				results = append(results, preflight.CheckOutputParent(output))
			}
			lines = append(lines, renderSectionHeader("Filesystem", colorize)...)
			lines = append(lines, checkLines(results, colorize)...)

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return checkFailure(statuses, results)
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Also check that a bundle could be written to this folder")
	return cmd
}

func checkFailure(statuses []deps.Status, results []preflight.Result) error {
	var failed []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			failed = append(failed, status.Name)
		}
	}
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result.Name)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("environment not ready: %s", strings.Join(failed, ", "))
}
