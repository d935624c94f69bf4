package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cmmoran/pbmodelgen/pkg/action/generate"
	"github.com/cmmoran/pbmodelgen/pkg/action/snapshot"
)

var errDrift = errors.New("generated file is out of date")

func init() {
	rootCmd.AddCommand(NewCheckCommand())
}

func NewCheckCommand() *cobra.Command {
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "fail when the generated file differs from the schema",
		PreRunE: func(c *cobra.Command, _ []string) error {
			return bindGenerateFlags(c)
		},
		RunE: func(c *cobra.Command, _ []string) error {
			src, closeSrc, err := sourceFromConfig()
			if err != nil {
				return err
			}
			defer func() { _ = closeSrc() }()

			diff, err := generate.Check(c.Context(), src, optionsFromConfig())
			if err != nil {
				return err
			}
			if diff == "" {
				return nil
			}
			if _, err = fmt.Fprintln(c.OutOrStdout(), snapshot.Colorize(diff)); err != nil {
				return err
			}
			return errDrift
		},
	}
	addGenerateFlags(checkCmd.Flags())
	return checkCmd
}
