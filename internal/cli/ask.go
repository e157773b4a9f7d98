package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssism/dhammi/internal/store"
)

var (
	askSession string
	askPreview bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question locally, without a server",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "record the exchange in this session (created if missing)")
	askCmd.Flags().BoolVar(&askPreview, "preview", false, "print the composed prompt instead of generating")
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	ctx := context.Background()
	out := cmd.OutOrStdout()

	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if askPreview {
		p, err := a.engine.Preview(ctx, query)
		if err != nil {
			return err
		}
		if p.Blocked {
			fmt.Fprintf(out, "blocked by deny-list phrase %q\n", p.Phrase)
			return nil
		}
		fmt.Fprintln(out, p.Prompt)
		if len(p.Related) > 0 {
			fmt.Fprintf(out, "\nrelated topics: %s\n", strings.Join(p.Related, ", "))
		}
		return nil
	}

	var sess *store.Session
	if askSession != "" {
		sess, err = a.db.InitSession(askSession)
	} else {
		sess, err = a.db.CreateSession()
	}
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	reply, err := a.engine.Chat(ctx, sess.SessionID, query)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, reply.Text)
	if reply.GeneratorErr != nil {
		return fmt.Errorf("generation failed: %w", reply.GeneratorErr)
	}
	return nil
}
