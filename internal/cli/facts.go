package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssism/dhammi/internal/cttm"
	"github.com/ssism/dhammi/internal/engine"
)

var factsLimit int

var factsCmd = &cobra.Command{
	Use:   "facts [query]",
	Short: "List ledger facts, optionally ranked against a query",
	RunE:  runFacts,
}

func init() {
	factsCmd.Flags().IntVarP(&factsLimit, "limit", "n", 0, "maximum facts to show (default all, or 3 with a query)")
}

func runFacts(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	facts := a.facts.Fetch(ctx)
	if query := strings.Join(args, " "); query != "" {
		limit := factsLimit
		if limit <= 0 {
			limit = cfg.RAG.Limit
		}
		facts = engine.Select(query, facts, limit)
	} else if factsLimit > 0 && factsLimit < len(facts) {
		facts = facts[:factsLimit]
	}

	out := cmd.OutOrStdout()
	if len(facts) == 0 {
		fmt.Fprintf(out, "No facts found (ledger: %s).\n", a.backend.Name)
		return nil
	}
	printFacts(out, facts)
	return nil
}

func printFacts(out io.Writer, facts []cttm.FactRecord) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "V-SCORE\tCATEGORY\tFACT\tSOURCE")
	for _, f := range facts {
		fmt.Fprintf(tw, "%.2f\t%s\t%s\t%s\n", f.Confidence, f.Category, f.Text, f.Source)
	}
	tw.Flush()
}
