package main

import (
	"context"
	"fmt"

	"github.com/opsdeck/opsdeck/cmd/opsdeck/runtime"

	"github.com/spf13/cobra"
)

func executeWithRuntime(cmd *cobra.Command, fn func(*runtime.RuntimeComponents) error) error {
	if cfg == nil {
		return fmt.Errorf("config not loaded")
	}

	handler := NewSignalHandler(context.Background())
	handler.Start()
	defer handler.Stop()

	builder := runtime.NewRuntimeBuilder().
		WithContext(handler.ctx).
		WithConfig(cfg)

	components, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize runtime: %w", err)
	}
	defer components.Stop()

	return fn(components)
}
