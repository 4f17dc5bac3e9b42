package commands

import (
	"fmt"

	"github.com/rafael/multichat/internal/api"
	"github.com/rafael/multichat/internal/config"
	"github.com/rafael/multichat/internal/session"
)

// buildController wires config, API client and session controller. Every
// command that talks to the backend goes through here.
func buildController(cfg config.Config) (*session.Controller, *api.Client, error) {
	client, err := api.NewClient(cfg.APIBaseURL, api.StaticToken(cfg.APIToken))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create client: %w", err)
	}

	var opts []session.ControllerOption
	if cfg.MaxTokens > 0 {
		opts = append(opts, session.WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.Temperature != nil {
		opts = append(opts, session.WithTemperature(*cfg.Temperature))
	}

	return session.NewController(client, opts...), client, nil
}
