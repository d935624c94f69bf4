package cmd

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cmmoran/pbmodelgen/pkg/client"
	"github.com/cmmoran/pbmodelgen/pkg/record"
	"github.com/cmmoran/pbmodelgen/pkg/repository"
)

func init() {
	rootCmd.AddCommand(NewRecordsCommand())
}

func clientFromConfig() (*client.Client, error) {
	return client.NewFromConfig(client.Config{
		BaseURL: viper.GetString("pocketbase.base_url"),
		Token:   viper.GetString("pocketbase.token"),
		Mode:    viper.GetString("pocketbase.mode"),
		Timeout: viper.GetDuration("pocketbase.timeout"),
		Headers: viper.GetStringMapString("pocketbase.headers"),
	})
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func NewRecordsCommand() *cobra.Command {
	recCmd := &cobra.Command{
		Use:   "records",
		Short: "read records through the typed client",
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			for key, name := range map[string]string{
				"pocketbase.base_url": "url",
				"pocketbase.token":    "token",
				"pocketbase.mode":     "mode",
				"pocketbase.timeout":  "timeout",
			} {
				if err := viper.BindPFlag(key, c.Flags().Lookup(name)); err != nil {
					return fmt.Errorf("bind %s: %w", name, err)
				}
			}
			return nil
		},
	}
	recCmd.PersistentFlags().String("url", "http://127.0.0.1:8090/api", "base address of the API")
	recCmd.PersistentFlags().String("token", "", "auth token sent as a bearer token")
	recCmd.PersistentFlags().String("mode", client.ModeBlocking.String(), "client mode (blocking, awaitable)")
	recCmd.PersistentFlags().Duration("timeout", 0, "per call timeout")

	var (
		listOpts repository.ListOptions
		all      bool
	)
	listCmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "list records of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cl, err := clientFromConfig()
			if err != nil {
				return err
			}
			repo := repository.New(cl)
			if all {
				items, err := repository.FindAll[record.Raw](c.Context(), repo, record.Name(args[0]), listOpts)
				if err != nil {
					return err
				}
				return printJSON(c.OutOrStdout(), items)
			}
			page, err := repository.FindMany[record.Raw](c.Context(), repo, record.Name(args[0]), listOpts)
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), page)
		},
	}
	listCmd.Flags().IntVar(&listOpts.Page, "page", repository.DefaultPage, "page number")
	listCmd.Flags().IntVar(&listOpts.PerPage, "per-page", repository.DefaultPerPage, "records per page")
	listCmd.Flags().StringVar(&listOpts.Sort, "sort", "", "sort expression, e.g. -created")
	listCmd.Flags().StringVar(&listOpts.Filter, "filter", "", "filter expression")
	listCmd.Flags().StringVar(&listOpts.Expand, "expand", "", "relations to expand")
	listCmd.Flags().StringVar(&listOpts.Fields, "fields", "", "fields to return")
	listCmd.Flags().BoolVar(&listOpts.SkipTotal, "skip-total", false, "skip total counts")
	listCmd.Flags().BoolVar(&all, "all", false, "fetch every page")

	var recOpts repository.RecordOptions
	getCmd := &cobra.Command{
		Use:   "get <collection> <id>",
		Short: "fetch one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			cl, err := clientFromConfig()
			if err != nil {
				return err
			}
			rec, err := repository.FindOne[record.Raw](c.Context(), repository.New(cl), record.Name(args[0]), args[1], recOpts)
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), rec)
		},
	}
	getCmd.Flags().StringVar(&recOpts.Expand, "expand", "", "relations to expand")
	getCmd.Flags().StringVar(&recOpts.Fields, "fields", "", "fields to return")

	recCmd.AddCommand(listCmd, getCmd)
	return recCmd
}
