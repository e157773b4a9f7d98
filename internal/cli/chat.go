package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssism/dhammi/internal/client"
	"github.com/ssism/dhammi/internal/engine"
)

var (
	chatURL     string
	chatSession string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat against a running server",
	Long: "Opens an interactive session with a running dhammi server.\n" +
		"Type /reset to clear the session history, /facts to list cached facts, /quit to leave.",
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatURL, "url", "", "server URL (default $DHAMMI_URL or the configured listen address)")
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "resume an existing session id")
}

func runChat(cmd *cobra.Command, args []string) error {
	url := chatURL
	if url == "" {
		url = "http://" + cfg.ListenAddr()
	}
	c := client.New(url)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if !c.Healthy(ctx) {
		return fmt.Errorf("no dhammi server at %s (start one with 'dhammi serve')", url)
	}
	sess, err := c.CreateSession(ctx, chatSession)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "session %s\n", sess.SessionID)
	return chatLoop(ctx, c, sess.SessionID, cmd.InOrStdin(), out)
}

// chatLoop reads prompts line by line until EOF or /quit.
func chatLoop(ctx context.Context, c *client.Client, sessionID string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			if err := c.Reset(ctx, sessionID); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			} else {
				fmt.Fprintln(out, "history cleared")
			}
			continue
		case "/facts":
			facts, err := c.Facts(ctx, "", 0)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			printFacts(out, facts)
			continue
		}

		reply, err := c.Chat(ctx, sessionID, line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, reply.Reply)
		if len(reply.Facts) > 0 {
			fmt.Fprintf(out, "\n(grounded on %d fact(s))\n", len(reply.Facts))
			for _, f := range reply.Facts {
				fmt.Fprintf(out, "  %s\n", engine.FactLine(f))
			}
		}
		fmt.Fprintln(out)
	}
}
