package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cmmoran/pbmodelgen/pkg/action/snapshot"
)

const defaultManifest = ".pbmodelgen/manifest.yaml"

func init() {
	rootCmd.AddCommand(NewSnapshotCommand())
}

func NewSnapshotCommand() *cobra.Command {
	var manifestPath string

	snapCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "record and compare versions of the generated file",
	}
	snapCmd.PersistentFlags().StringVarP(&manifestPath, "manifest", "m", defaultManifest, "manifest file tracking snapshots")

	var name, version string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "generate and record a snapshot",
		PreRunE: func(c *cobra.Command, _ []string) error {
			return bindGenerateFlags(c)
		},
		RunE: func(c *cobra.Command, _ []string) error {
			src, closeSrc, err := sourceFromConfig()
			if err != nil {
				return err
			}
			defer func() { _ = closeSrc() }()

			file, err := snapshot.Generate(c.Context(), src, optionsFromConfig(), manifestPath, name, version)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.OutOrStdout(), "snapshot %s written to %s\n", version, file)
			return err
		},
	}
	createCmd.Flags().StringVarP(&name, "name", "n", "", "snapshot name")
	createCmd.Flags().StringVarP(&version, "version", "v", "", "snapshot version")
	_ = createCmd.MarkFlagRequired("version")
	addGenerateFlags(createCmd.Flags())

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded snapshots",
		RunE: func(c *cobra.Command, _ []string) error {
			m, err := snapshot.List(manifestPath)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "VERSION\tNAME\tCOLLECTIONS\tFILE\t")
			for _, s := range m.Snapshots {
				marker := ""
				if s.Version == m.CurrentVersion {
					marker = " *"
				}
				_, _ = fmt.Fprintf(w, "%s%s\t%s\t%d\t%s\t\n", s.Version, marker, s.Name, len(s.Collections), s.File)
			}
			return w.Flush()
		},
	}

	diffCmd := &cobra.Command{
		Use:   "diff",
		Short: "diff the current snapshot against the previous one",
		RunE: func(c *cobra.Command, _ []string) error {
			diff, err := snapshot.DiffCurrentWithPrevious(manifestPath)
			if err != nil {
				return err
			}
			if diff == "" {
				_, err = fmt.Fprintln(c.OutOrStdout(), "no changes")
				return err
			}
			_, err = fmt.Fprintln(c.OutOrStdout(), snapshot.Colorize(diff))
			return err
		},
	}

	snapCmd.AddCommand(createCmd, listCmd, diffCmd)
	return snapCmd
}
