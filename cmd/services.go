package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/strengths-agent/internal/agent"
	"github.com/spigell/strengths-agent/internal/logger"
	"github.com/spigell/strengths-agent/internal/profiles"
	"github.com/spigell/strengths-agent/internal/tools"
)

// services holds what a command needs. The store is built once per process
// and shared by the direct commands and the agent tools.
type services struct {
	config *Config
	logger *zap.Logger
	store  *profiles.Store
	tools  *tools.Registry
}

func newServices(ctx context.Context) (*services, error) {
	log, err := logger.New(conf.GetBool("json"), conf.GetBool("debug"))
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}

	config, err := getConfig(conf)
	if err != nil {
		return nil, err
	}

	storeCfg := config.storeConfig()
	store, err := profiles.NewFromConfig(ctx, storeCfg, log)
	if err != nil {
		return nil, fmt.Errorf("creating profile store: %w", err)
	}

	log.Debug("services ready",
		zap.String("version", version),
		zap.String("region", storeCfg.Region),
		zap.String("table", storeCfg.Table),
		zap.String("name_index", storeCfg.NameIndex),
	)

	return &services{
		config: config,
		logger: log,
		store:  store,
		tools:  tools.New(store, log),
	}, nil
}

func (s *services) close() {
	_ = s.logger.Sync()
}

// call runs a tool directly, outside of the agent loop.
func (s *services) call(ctx context.Context, name string, args map[string]any) map[string]any {
	return s.tools.Dispatch(ctx, agent.ToolCall{ID: uuid.NewString(), Name: name, Args: args}).Response
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// report prints a tool response and turns a reported failure into an error.
func report(w io.Writer, response map[string]any) error {
	if err := printJSON(w, response); err != nil {
		return err
	}
	if success, _ := response["success"].(bool); !success {
		message, _ := response["message"].(string)
		if message == "" {
			message = "operation failed"
		}
		return errors.New(message)
	}
	return nil
}
