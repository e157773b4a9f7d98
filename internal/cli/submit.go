package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssism/dhammi/internal/cttm"
)

var (
	submitCategory   string
	submitConfidence float64
	submitSource     string
)

var submitCmd = &cobra.Command{
	Use:   "submit [fact text]",
	Short: "Append a fact to the ledger",
	Long: "Append a fact to the configured CTTM ledger. Categories: " +
		strings.Join(cttm.Categories, ", ") + ".",
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVarP(&submitCategory, "category", "c", cttm.CategoryPersonalInsight, "fact category")
	submitCmd.Flags().Float64Var(&submitConfidence, "confidence", 0.5, "V-Score between 0 and 1")
	submitCmd.Flags().StringVar(&submitSource, "source", "", "who or what reported the fact")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.facts.Append(ctx, cttm.FactRecord{
		Category:   submitCategory,
		Confidence: submitConfidence,
		Text:       strings.Join(args, " "),
		Source:     submitSource,
	})
	switch {
	case errors.Is(err, cttm.ErrEmptyText):
		return errors.New("Please enter a fact")
	case err != nil:
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded to %s: %s\n", a.backend.Name, rec.Text)
	return nil
}
