package main

import (
	"context"
	"time"

	"docindex/internal/api"
	"docindex/internal/config"
)

const pingTimeout = 2 * time.Second

// withClient runs fn against the configured server after a health check.
func withClient(cfg *config.Config, fn func(*api.Client) error) error {
	client := api.NewClient(cfg.APIURL())

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		return err
	}

	return fn(client)
}
