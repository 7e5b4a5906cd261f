package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	agent "github.com/androfit/agent"
	"github.com/androfit/agent/internal/tui"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Chat with the coach in the terminal",
	Long: `Starts a local text session with the agent. Replies render as markdown
when stdout is a terminal. Type 'exit' or press Ctrl+D to leave.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runConsole(cmd); err != nil {
			fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := agent.New(ctx, cfg, agent.WithLogger(logger))
	if err != nil {
		return err
	}
	defer a.Close()

	if tui.IsInteractive() {
		tui.PrintBanner(agent.Version)
	}
	render := tui.NewRenderer()

	s := a.NewSession("")
	defer s.Close(context.WithoutCancel(ctx), nil)

	if greeting := s.Greet(ctx); greeting != "" {
		printReply(render, greeting)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return nil
		}

		reply, err := s.Respond(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(os.Stderr, "coach unavailable: %v\n", err)
			continue
		}
		printReply(render, reply)
	}
}

func printReply(render func(string) (string, error), text string) {
	out, err := render(text)
	if err != nil {
		out = text
	}
	fmt.Println(strings.TrimRight(out, "\n"))
}
