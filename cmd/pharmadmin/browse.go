package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"pharmadmin/internal/domain"
	"pharmadmin/internal/listpage"
	"pharmadmin/internal/listquery"
	"pharmadmin/internal/observability"
)

const browseHelp = `commands:
  /<term>            search (a bare / clears the search)
  scope [column]     search only in column; no column searches the default scope
  n, p               next or previous page
  size <n>           rows per page
  sort [column [asc|desc]]  sort by column; no column clears sorting
  filter [k=v ...]   replace filters; no pairs clears them
  clear              drop search, scope, sort and filters
  r                  reload the current page
  url                print the shareable URL of the current view
  q                  quit`

var errQuit = errors.New("quit")

func newBrowseCmd(a *app) *cobra.Command {
	var rawQuery string
	cmd := &cobra.Command{
		Use:       "browse <resource>",
		Short:     "Page through a resource interactively",
		Long:      "Page through a resource interactively.\n\n" + browseHelp,
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
			fetch, err := rowFetcher(a.client, res)
			if err != nil {
				return err
			}

			defaults := a.cfg.ListOptions(res)
			b := newBrowser(res, fetch, listquery.OptionsFromValues(values, defaults), defaults,
				a.client.BaseURL(), cmd.OutOrStdout(), a.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return b.run(ctx, cmd.InOrStdin())
		},
	}
	cmd.Flags().StringVarP(&rawQuery, "query", "q", "", "initial list query in URL form")
	return cmd
}

// browser is an interactive list page over one resource.
type browser struct {
	res    domain.Resource
	spec   domain.ResourceSpec
	page   *listpage.Page[row]
	mirror *listquery.Mirror
	base   string

	mu     sync.Mutex
	out    io.Writer
	logger observability.Logger
}

func newBrowser(res domain.Resource, fetch listpage.Fetch[row], opts, defaults listquery.Options, base string, out io.Writer, logger observability.Logger) *browser {
	b := &browser{
		res:    res,
		spec:   res.Spec(),
		mirror: listquery.NewMirror(defaults),
		base:   strings.TrimRight(base, "/"),
		out:    out,
		logger: logger,
	}
	b.page = listpage.New(listpage.Config[row]{
		Options:  opts,
		Fetch:    fetch,
		Mirror:   b.mirror,
		OnResult: b.show,
		Logger:   logger,
	})
	return b
}

func (b *browser) run(ctx context.Context, in io.Reader) error {
	defer b.page.Close()
	b.page.Start(ctx)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := b.exec(line); errors.Is(err, errQuit) {
				return nil
			} else if err != nil {
				b.printf("error: %v\n", err)
			}
		}
	}
}

// exec applies one console command to the list state.
func (b *browser) exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	state := b.page.State()
	if strings.HasPrefix(line, "/") {
		state.SetSearchTerm(strings.TrimSpace(line[1:]))
		return nil
	}

	fields := strings.Fields(line)
	args := fields[1:]
	switch fields[0] {
	case "q", "quit", "exit":
		return errQuit
	case "help", "?":
		b.printf("%s\n", browseHelp)
	case "n", "next":
		if !b.page.NextPage() {
			b.printf("already on the last page\n")
		}
	case "p", "prev":
		if !b.page.PrevPage() {
			b.printf("already on the first page\n")
		}
	case "size":
		if len(args) != 1 {
			return errors.New("usage: size <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid page size %q", args[0])
		}
		state.SetPageSize(n)
	case "scope":
		if len(args) == 0 {
			state.SetSearchBy("")
			return nil
		}
		if !b.spec.CanSearch(args[0]) {
			return fmt.Errorf("cannot search %s by %q (searchable: %s)", b.res, args[0], strings.Join(b.spec.Searchable, ", "))
		}
		state.SetSearchBy(args[0])
	case "sort":
		return b.sort(args)
	case "filter":
		filters, err := b.parseFilters(args)
		if err != nil {
			return err
		}
		state.SetFilters(filters)
	case "clear":
		state.Update(func(batch *listquery.Batch) {
			batch.SetSearchTerm("")
			batch.SetSearchBy("")
			batch.SetSortBy("")
			batch.SetFilters(nil)
		})
	case "r", "refresh":
		b.page.Refresh()
	case "url":
		b.printf("%s\n", b.url())
	default:
		return fmt.Errorf("unknown command %q (try help)", fields[0])
	}
	return nil
}

func (b *browser) sort(args []string) error {
	state := b.page.State()
	if len(args) == 0 {
		state.SetSortBy("")
		return nil
	}
	if len(args) > 2 {
		return errors.New("usage: sort [column [asc|desc]]")
	}
	if !b.spec.CanSort(args[0]) {
		return fmt.Errorf("cannot sort %s by %q (sortable: %s)", b.res, args[0], strings.Join(b.spec.Sortable, ", "))
	}
	if len(args) == 1 {
		state.SelectSort(args[0])
		return nil
	}
	order, ok := listquery.ParseSortOrder(args[1])
	if !ok || order == "" {
		return fmt.Errorf("invalid sort order %q", args[1])
	}
	state.Update(func(batch *listquery.Batch) {
		batch.SetSortBy(args[0])
		batch.SetSortOrder(order)
	})
	return nil
}

func (b *browser) parseFilters(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid filter %q (expected key=value)", arg)
		}
		if !b.spec.CanFilter(k) {
			return nil, fmt.Errorf("cannot filter %s by %q (filterable: %s)", b.res, k, strings.Join(b.spec.Filterable, ", "))
		}
		switch prev := out[k].(type) {
		case nil:
			out[k] = v
		case string:
			out[k] = []string{prev, v}
		case []string:
			out[k] = append(prev, v)
		}
	}
	return out, nil
}

// url returns the address of the current view, including a search term
// that has not settled yet.
func (b *browser) url() string {
	b.mirror.Sync(b.page.State().Snapshot())
	u := b.base + b.res.Path()
	if enc := b.mirror.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

func (b *browser) show(r listpage.Result[row]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r.Err != nil {
		fmt.Fprintf(b.out, "error: %v\n", r.Err)
		return
	}
	if err := printTable(b.out, b.spec.Columns, r.Data); err != nil {
		b.logger.Warn("render page failed", "resource", b.res, "error", err)
	}
}

func (b *browser) printf(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.out, format, args...)
}
