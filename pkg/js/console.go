package js

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dop251/goja"
)

// consoleAPI routes console.* to the engine's logger.
type consoleAPI struct {
	logger *slog.Logger
}

func (c *consoleAPI) register(vm *goja.Runtime) {
	console := vm.NewObject()
	console.Set("log", c.at(slog.LevelInfo))
	console.Set("info", c.at(slog.LevelInfo))
	console.Set("debug", c.at(slog.LevelDebug))
	console.Set("warn", c.at(slog.LevelWarn))
	console.Set("error", c.at(slog.LevelError))
	vm.Set("console", console)
}

func (c *consoleAPI) at(level slog.Level) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		c.logger.Log(context.Background(), level, formatArgs(call.Arguments), "source", "console")
		return goja.Undefined()
	}
}

func formatArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	return strings.Join(parts, " ")
}
