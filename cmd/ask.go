package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/udaplay/internal/agent"
)

var (
	askUser   string
	askFormat string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask UdaPlay a question about video games",
	Long: `Answers a single question. Local game data is searched first; when the
local results are judged insufficient the agent searches the web.

Output formats: text (default), json, html, or a structured format
(standard, detailed, minimal, api).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askUser, "user", "", "user ID for personalization (default from config)")
	askCmd.Flags().StringVarP(&askFormat, "format", "f", "text", "output format: text, json, html, standard, detailed, minimal, api")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.Close()

	question := strings.Join(args, " ")
	var opts []agent.QueryOption
	if askUser != "" {
		opts = append(opts, agent.WithUserID(askUser))
	}
	resp := rt.agent.ProcessQuery(cmd.Context(), question, opts...)
	return printResponse(os.Stdout, rt.agent, question, resp, askFormat)
}

func printResponse(w io.Writer, a *agent.Agent, question string, resp agent.Response, format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		fmt.Fprintln(w, resp.Answer)
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Confidence: %.2f | Method: %s | Sources: %s\n",
			resp.Confidence, resp.SearchMethod, strings.Join(resp.Sources, ", "))
		return nil
	case "json":
		return writeIndented(w, resp)
	case "html":
		html, err := a.Formatter().HTML(resp.OutputAnswer(question))
		if err != nil {
			return fmt.Errorf("rendering HTML: %w", err)
		}
		_, err = fmt.Fprint(w, html)
		return err
	default:
		return writeIndented(w, a.StructuredResponse(question, resp, format))
	}
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
