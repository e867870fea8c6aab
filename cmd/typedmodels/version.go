/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/suparena/typedmodels"
)

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the typedmodels version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			info := typedmodels.GetVersionInfo()
			if info.GoVersion == "unknown" {
				info.GoVersion = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)

			titleColor.Fprint(out, "typedmodels version: ")
			valueColor.Fprintln(out, info.Version)

			titleColor.Fprint(out, "Git commit: ")
			valueColor.Fprintln(out, info.GitCommit)

			titleColor.Fprint(out, "Build date: ")
			valueColor.Fprintln(out, info.BuildDate)

			titleColor.Fprint(out, "Go version: ")
			valueColor.Fprintln(out, info.GoVersion)
		},
	}
}
