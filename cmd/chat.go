package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/udaplay/internal/agent"
)

var chatUser string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session with UdaPlay",
	Long: `Opens a read-eval-print loop. Type a question to get an answer.
Commands: "history" shows this session's turns, "clear" forgets them,
"exit" or "quit" leaves.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatUser, "user", "", "user ID for personalization (default from config)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.Close()

	var opts []agent.QueryOption
	if chatUser != "" {
		opts = append(opts, agent.WithUserID(chatUser))
	}

	fmt.Println("UdaPlay game research agent. Type \"exit\" to leave.")
	prompt := promptui.Prompt{Label: "You"}
	for {
		line, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "clear":
			rt.agent.ClearConversation()
			fmt.Println("Conversation cleared.")
			continue
		case "history":
			for i, t := range rt.agent.ConversationHistory() {
				fmt.Printf("%d. You: %s\n   UdaPlay: %s\n", i+1, t.User, t.Assistant)
			}
			continue
		}

		resp := rt.agent.ProcessQuery(cmd.Context(), line, opts...)
		fmt.Println()
		if err := printResponse(os.Stdout, rt.agent, line, resp, "text"); err != nil {
			return err
		}
		fmt.Println()
	}
}
