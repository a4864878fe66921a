package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"sharppad/internal/config"
	"sharppad/internal/dispatch"
	"sharppad/internal/document"
	"sharppad/internal/domain"
	"sharppad/internal/find"
	"sharppad/internal/logging"
	"sharppad/internal/tasks"
)

func findCmd(configPath *string) *cobra.Command {
	var (
		q     domain.SearchQuery
		count bool
	)

	cmd := &cobra.Command{
		Use:   "find PATTERN FILE...",
		Short: "Search files with the editor's find engine",
		Long: `Search files with the same matching rules as the editor's find bar.

Each match is printed as file:line:column: text. Files are searched
concurrently and reported in argument order. The exit status is 1 when
nothing matched and 2 on errors.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(nil, *configPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Close()

			q.Pattern = args[0]
			matched, err := runFind(cmd.Context(), cmd.OutOrStdout(), cfg.Search, logger.Logger, q, args[1:], count)
			if err != nil {
				return err
			}
			if !matched {
				return exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&q.MatchCase, "match-case", false, "Match case")
	cmd.Flags().BoolVarP(&q.WholeWord, "whole-word", "w", false, "Match whole words only")
	cmd.Flags().BoolVarP(&q.UseRegex, "regex", "E", false, "Treat PATTERN as a regular expression")
	cmd.Flags().BoolVarP(&count, "count", "c", false, "Print the number of matches per file")
	cmd.MarkFlagsMutuallyExclusive("whole-word", "regex")

	return cmd
}

type fileMatches struct {
	path    string
	text    string
	results []domain.TextRange
}

// runFind searches every path and writes the report to w. It reports
// whether anything matched.
func runFind(ctx context.Context, w io.Writer, settings config.SearchSettings, logger *slog.Logger, q domain.SearchQuery, paths []string, count bool) (bool, error) {
	opts := searchOptions(settings, logger)
	found := make([]fileMatches, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			fm, err := searchFile(ctx, path, q, opts, logger)
			if err != nil {
				return err
			}
			found[i] = fm
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	matched := false
	for _, fm := range found {
		if len(fm.results) > 0 {
			matched = true
		}
		if count {
			fmt.Fprintf(w, "%s: %d\n", fm.path, len(fm.results))
			continue
		}
		for _, r := range fm.results {
			pos := document.PositionOf(fm.text, r.Index)
			fmt.Fprintf(w, "%s:%d:%d: %s\n", fm.path, pos.Line+1, pos.Column+1, document.LineAt(fm.text, r.Index))
		}
	}
	return matched, nil
}

// searchFile runs one find model over path on its own owner loop
func searchFile(ctx context.Context, path string, q domain.SearchQuery, opts []find.Option, logger *slog.Logger) (fileMatches, error) {
	doc, err := document.Load(path)
	if err != nil {
		return fileMatches{}, err
	}

	loop := dispatch.NewLoop(logger)
	defer loop.Close()
	manager := tasks.NewManager(tasks.ManagerConfig{Dispatcher: loop, Logger: logger})
	defer manager.Close()

	// no edits arrive, so there is nothing to space passes out for
	model := find.New(doc, loop, manager, append(slices.Clip(opts), find.WithMinimumInterval(0), find.WithQuery(q))...)
	defer model.Close()

	if err := loop.Invoke(ctx, model.Invalidate); err != nil {
		return fileMatches{}, fmt.Errorf("search %s: %w", path, err)
	}
	if err := model.WaitIdle(ctx); err != nil {
		return fileMatches{}, fmt.Errorf("search %s: %w", path, err)
	}
	if model.IsFaulted() {
		return fileMatches{}, fmt.Errorf("invalid pattern: %s", model.FaultMessage())
	}

	logger.Debug("file searched", "path", path, "matches", model.ResultCount())
	return fileMatches{path: path, text: doc.Text(), results: model.Results()}, nil
}
