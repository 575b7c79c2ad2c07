package cli

import (
	"log/slog"

	backend "github.com/redis/go-redis/v9"

	"github.com/listflow/listflow"
	"github.com/listflow/listflow/internal/logging"
	"github.com/listflow/listflow/pkg/adapters/process"
	redisadapter "github.com/listflow/listflow/pkg/adapters/redis"
)

// NewLogger builds the application logger from the settings level.
// Debug mode forces the debug level regardless of settings.
func NewLogger(st Settings, debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	if st.LogLevel == "" {
		return logging.NewNop()
	}
	return logging.New(logging.ParseLevel(st.LogLevel))
}

// BuildEngine wires a listflow engine for the given store directory,
// applying any adapters the settings file asks for.
func BuildEngine(dir string, st Settings, logger *slog.Logger) (*listflow.Engine, error) {
	opts := []listflow.Option{
		listflow.WithLogger(logger),
	}

	if st.Redis.Addr != "" {
		client := backend.NewClient(&backend.Options{Addr: st.Redis.Addr})
		var stashOpts []redisadapter.StashOption
		if st.Redis.Prefix != "" {
			stashOpts = append(stashOpts, redisadapter.WithPrefix(st.Redis.Prefix))
		}
		opts = append(opts, listflow.WithStash(redisadapter.NewStash(client, stashOpts...)))
	}

	if st.Shell.Program != "" {
		runner := process.NewRunner(
			process.WithBaseDir(dir),
			process.WithShell(st.Shell.Program),
			process.WithLogger(logger),
		)
		opts = append(opts, listflow.WithShellRunner(runner))
	}

	return listflow.New(dir, opts...)
}
