package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/dice-agent/pkg/a2a"
	"github.com/theapemachine/dice-agent/pkg/client"
	"github.com/theapemachine/dice-agent/pkg/logging"
)

var (
	urlFlag string

	clientCmd = &cobra.Command{
		Use:   "client",
		Short: "Chat with an agent from the terminal",
		Long:  longClient,
		RunE:  runClient,
	}

	clientGetCmd = &cobra.Command{
		Use:   "get <task-id>",
		Short: "Print the current state of a task",
		Args:  cobra.ExactArgs(1),
		RunE:  runClientGet,
	}

	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	agentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func init() {
	rootCmd.AddCommand(clientCmd)
	clientCmd.AddCommand(clientGetCmd)
	clientCmd.PersistentFlags().StringVarP(&urlFlag, "url", "u", "", "Agent base URL (default client.url)")
}

type asker interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

type taskGetter interface {
	GetTask(ctx context.Context, id string) (a2a.GetTaskResult, error)
}

func agentURL() string {
	if urlFlag != "" {
		return urlFlag
	}

	return viper.GetString("client.url")
}

func runClient(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if ctx == nil {
		ctx = context.Background()
	}

	if path := viper.GetString("client.logFile"); path != "" {
		if err := logging.ToFile(filepath.Join(configDir(), path)); err != nil {
			return err
		}

		defer logging.Close()
	}

	url := agentURL()
	agent := client.NewAgentClient(url)
	card, err := agent.Card(ctx)

	if err != nil {
		return err
	}

	log.Info("connected to agent", "name", card.Name, "url", url)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, nameStyle.Render(card.Name), card.Version)
	fmt.Fprintln(out, "Type a request, or exit to quit.")

	return chat(ctx, agent, cmd.InOrStdin(), out)
}

func runClientGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if ctx == nil {
		ctx = context.Background()
	}

	return showTask(ctx, client.NewAgentClient(agentURL()), args[0], cmd.OutOrStdout())
}

func showTask(ctx context.Context, agent taskGetter, id string, out io.Writer) error {
	result, err := agent.GetTask(ctx, id)

	if err != nil {
		fmt.Fprintln(out, errorStyle.Render("error: "+err.Error()))
		return err
	}

	task := result.Task()
	fmt.Fprint(out, task.String())

	return nil
}

/*
chat reads one request per line and prints the agent's answer. The
first error is printed and ends the loop.
*/
func chat(ctx context.Context, agent asker, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, promptStyle.Render("you: "))

		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())

		if line == "exit" {
			return nil
		}

		if line == "" {
			continue
		}

		answer, err := agent.Ask(ctx, line)

		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("error: "+err.Error()))
			return err
		}

		fmt.Fprintln(out, agentStyle.Render("agent: ")+answer)
	}
}

var longClient = `
Open an interactive session with an agent. Every line is sent as a new
task and the agent's answer is printed below it. Type exit to quit.

Use "client get <task-id>" to print the stored state of a single task.
`
