package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"pharmadmin/internal/domain"
	"pharmadmin/internal/listquery"
)

func newListCmd(a *app) *cobra.Command {
	var rawQuery string
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "Print one page of a resource",
		Long: `Print one page of a resource.

The --query flag takes the same keys the browse command mirrors, e.g.
  pharmadmin list products --query "page=1&size=25&search=par&sortBy=price&sortOrder=desc"`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: resourceNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := domain.ParseResource(args[0])
			if err != nil {
				return err
			}
			values, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
			if err != nil {
				return fmt.Errorf("invalid --query: %w", err)
			}

			opts := listquery.OptionsFromValues(values, a.cfg.ListOptions(res))
			opts.DebounceDelay = -1
			state := listquery.New(opts)
			defer state.Close()

			fetch, err := rowFetcher(a.client, res)
			if err != nil {
				return err
			}
			resp, err := fetch(cmd.Context(), state.Query())
			if err != nil {
				return err
			}

			if a.jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Columns []string `json:"columns"`
					domain.ListResponse[row]
				}{res.Spec().Columns, resp})
			}
			return printTable(cmd.OutOrStdout(), res.Spec().Columns, resp)
		},
	}
	cmd.Flags().StringVarP(&rawQuery, "query", "q", "", "list query in URL form")
	return cmd
}

func newResourcesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "Show the searchable, sortable and filterable columns of each resource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := a.client.Resources(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(infos)
			}
			out := cmd.OutOrStdout()
			for _, info := range infos {
				fmt.Fprintf(out, "%s (%s)\n", info.Name, info.Path)
				fmt.Fprintf(out, "  search: %s\n", strings.Join(info.Searchable, ", "))
				fmt.Fprintf(out, "  sort:   %s\n", strings.Join(info.Sortable, ", "))
				fmt.Fprintf(out, "  filter: %s\n", strings.Join(info.Filterable, ", "))
			}
			return nil
		},
	}
}

func resourceNames() []string {
	names := make([]string, len(domain.Resources))
	for i, r := range domain.Resources {
		names[i] = string(r)
	}
	return names
}
