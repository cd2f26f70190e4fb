package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/strengths-agent/internal/agent"
	"github.com/spigell/strengths-agent/internal/ai/gemini"
	"github.com/spigell/strengths-agent/internal/secrets"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask the assistant about stored profiles",
	Long: "Start a conversation with the Gemini-backed assistant. It stores, looks up and compares " +
		"profiles through tools. Type exit or quit to leave.",
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("message", "m", "", "ask a single question and exit")
	chatCmd.Flags().Int("max-steps", 0, "maximum model calls per question (default from config)")

	if err := conf.BindPFlag("agent.max-steps", chatCmd.Flags().Lookup("max-steps")); err != nil {
		log.Fatalf("binding max-steps flag: %v", err)
	}
}

type sender interface {
	Send(ctx context.Context, text string) (string, error)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	s, err := newServices(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	g := s.config.AI.Gemini
	apiKey, err := secrets.Load(secrets.Source{Name: "gemini api key", Value: g.APIKey, File: g.APIKeyFile})
	if err != nil {
		return err
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, g.Model, g.MaxRetries, s.logger)
	if err != nil {
		return err
	}
	generator.WithTools(s.tools.Declarations()).WithMaxLogLength(g.MaxLogLength)

	session := agent.New(generator, s.tools, agent.Options{MaxSteps: s.config.Agent.MaxSteps}, s.logger).NewSession()

	s.logger.Info("chat started",
		zap.String("model", generator.Model()),
		zap.Int("max_steps", s.config.Agent.MaxSteps),
		zap.Strings("tools", s.tools.Names()),
	)

	if message, _ := cmd.Flags().GetString("message"); strings.TrimSpace(message) != "" {
		reply, err := session.Send(ctx, message)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), reply)
		return err
	}

	prompt := promptui.Prompt{Label: "You"}
	return chatLoop(ctx, session, prompt.Run, cmd.OutOrStdout(), s.logger)
}

// chatLoop answers questions read with read until the user leaves. A failed
// turn is reported and the conversation goes on.
func chatLoop(ctx context.Context, session sender, read func() (string, error), out io.Writer, logger *zap.Logger) error {
	for {
		line, err := read()
		switch {
		case errors.Is(err, promptui.ErrEOF), errors.Is(err, promptui.ErrInterrupt), errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			return nil
		}

		reply, err := session.Send(ctx, line)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			logger.Error("answering question", zap.Error(err))
			fmt.Fprintf(out, "Error: %s\n", err)
			continue
		}

		fmt.Fprintln(out, reply)
	}
}
