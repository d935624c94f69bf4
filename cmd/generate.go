package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cmmoran/pbmodelgen/pkg/action/generate"
	"github.com/cmmoran/pbmodelgen/pkg/parser"
	"github.com/cmmoran/pbmodelgen/pkg/source"
)

func init() {
	rootCmd.AddCommand(NewGenerateCommand())
}

// generateFlags maps config keys to flag names.
var generateFlags = map[string]string{
	"generate.package":             "package",
	"generate.out_dir":             "output-directory",
	"generate.out_file":            "output-file",
	"generate.create_suffix":       "create-suffix",
	"generate.update_suffix":       "update-suffix",
	"generate.enum_name":           "enum-name",
	"generate.enum_prefix":         "enum-prefix",
	"generate.singularize":         "singularize",
	"generate.exclude_system":      "exclude-system",
	"generate.exclude_collections": "exclude-collections",
	"generate.exclude_fields":      "exclude-fields",
	"generate.goimports":           "goimports",
	"source.db":                    "db",
	"source.export":                "export",
	"source.column":                "column",
}

// addGenerateFlags declares the flags shared by every command that renders
// the artifact.
func addGenerateFlags(fs *pflag.FlagSet) {
	defaults := parser.NewOptions()
	fs.String("db", "", "path to the backend data file (data.db)")
	fs.String("export", "", "path to a collections export (JSON)")
	fs.String("column", source.ColumnSchema, "column of _collections holding the field list (schema or fields)")
	fs.StringP("package", "p", "", "package name of the generated file (default: base of the output directory)")
	fs.StringP("output-directory", "o", defaults.OutDir, "directory to write generated types")
	fs.StringP("output-file", "f", defaults.OutFile, "output file where types will be written")
	fs.String("create-suffix", defaults.CreateSuffix, "suffix of creation input types")
	fs.String("update-suffix", defaults.UpdateSuffix, "suffix of partial update types")
	fs.String("enum-name", defaults.EnumName, "name of the collection enumeration type")
	fs.String("enum-prefix", defaults.EnumPrefix, "prefix of each collection constant")
	fs.BoolP("singularize", "s", false, "singular record type names (posts -> Post)")
	fs.BoolP("exclude-system", "S", false, "skip collections whose name starts with _")
	fs.StringSliceP("exclude-collections", "c", []string{}, "collections to skip")
	fs.StringSliceP("exclude-fields", "x", []string{}, "fields to skip, as collection.field or field")
	fs.Bool("goimports", false, "run goimports over the generated file")
}

// bindGenerateFlags binds the running command's flags so that flags win over
// config and env. Binding happens per run since several commands declare
// the same flags.
func bindGenerateFlags(cmd *cobra.Command) error {
	for key, name := range generateFlags {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("bind %s: %w", name, err)
		}
	}
	return nil
}

func optionsFromConfig() *parser.Options {
	o := &parser.Options{
		Package:            viper.GetString("generate.package"),
		OutDir:             viper.GetString("generate.out_dir"),
		OutFile:            viper.GetString("generate.out_file"),
		CreateSuffix:       viper.GetString("generate.create_suffix"),
		UpdateSuffix:       viper.GetString("generate.update_suffix"),
		EnumName:           viper.GetString("generate.enum_name"),
		EnumPrefix:         viper.GetString("generate.enum_prefix"),
		Singularize:        viper.GetBool("generate.singularize"),
		ExcludeSystem:      viper.GetBool("generate.exclude_system"),
		ExcludeCollections: viper.GetStringSlice("generate.exclude_collections"),
		Goimports:          viper.GetBool("generate.goimports"),
	}
	o.Normalize(viper.GetStringSlice("generate.exclude_fields")...)
	return o
}

// sourceFromConfig opens the configured schema source. The returned close
// func is never nil.
func sourceFromConfig() (source.Source, func() error, error) {
	db, export := viper.GetString("source.db"), viper.GetString("source.export")
	switch {
	case db != "" && export != "":
		return nil, nil, fmt.Errorf("--db and --export are mutually exclusive")
	case export != "":
		return &source.Export{Path: export}, func() error { return nil }, nil
	case db != "":
		s, err := source.OpenSQLite(db, source.WithColumn(viper.GetString("source.column")))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("one of --db or --export is required")
}

func NewGenerateCommand() *cobra.Command {
	genCmd := &cobra.Command{
		Use:   "generate",
		Short: "generate collection types",
		Long:  "Read the collection schema and write Record, Create and Update types plus the Collections enumeration",
		PreRunE: func(c *cobra.Command, _ []string) error {
			return bindGenerateFlags(c)
		},
		RunE: func(c *cobra.Command, _ []string) error {
			src, closeSrc, err := sourceFromConfig()
			if err != nil {
				return err
			}
			defer func() { _ = closeSrc() }()

			res, err := generate.Generate(c.Context(), src, optionsFromConfig())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.OutOrStdout(), "wrote %s (%d collections)\n", res.Path, res.Collections)
			return err
		},
	}
	addGenerateFlags(genCmd.Flags())
	return genCmd
}
