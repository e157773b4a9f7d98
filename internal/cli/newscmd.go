package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssism/dhammi/internal/news"
)

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Fetch headlines from trusted sources into the ledger once",
	RunE:  runNews,
}

func runNews(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := a.updater().Run(ctx)
	out := cmd.OutOrStdout()
	if d != nil {
		fmt.Fprintln(out, d.Summary())
	}
	switch {
	case errors.Is(err, news.ErrNoHeadlines):
		return err
	case err != nil:
		return fmt.Errorf("record digest: %w", err)
	}
	if d.Fact != nil {
		fmt.Fprintf(out, "\nRecorded digest to %s.\n", a.backend.Name)
	}
	return nil
}
