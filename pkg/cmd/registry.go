package cmd

import (
	"log/slog"

	"github.com/flowgrid/flowgrid/pkg/nodes/email"
	"github.com/flowgrid/flowgrid/pkg/nodes/noop"
	"github.com/flowgrid/flowgrid/pkg/nodes/openai"
	"github.com/flowgrid/flowgrid/pkg/nodes/telegram"
	"github.com/flowgrid/flowgrid/pkg/nodes/trigger"
	"github.com/flowgrid/flowgrid/pkg/registry"
)

// NewRegistry builds the executor registry with every native node kind. The
// no-op executor doubles as the fallback so graphs with unrecognized kinds
// still run end to end.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.Register(trigger.NewExecutor())
	reg.Register(telegram.NewExecutor())
	reg.Register(email.NewExecutor())
	reg.Register(openai.NewExecutor())

	fallback := noop.NewExecutor()
	reg.Register(fallback)
	reg.RegisterFallback(fallback)

	return reg
}
