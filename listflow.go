package listflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/listflow/listflow/internal/compiler"
	"github.com/listflow/listflow/internal/logging"
	"github.com/listflow/listflow/internal/runtime"
	httpadapter "github.com/listflow/listflow/pkg/adapters/http"
	loamadapter "github.com/listflow/listflow/pkg/adapters/loam"
	"github.com/listflow/listflow/pkg/adapters/memory"
	"github.com/listflow/listflow/pkg/adapters/process"
	"github.com/listflow/listflow/pkg/domain"
	"github.com/listflow/listflow/pkg/ports"
)

// Version is the released engine version.
var Version = "0.3.0"

// Invocation is the starting point of one trigger execution. It aliases
// the runtime type so hosts can construct invocations without reaching
// into internal packages.
type Invocation = runtime.Invocation

// Position is a document cursor position.
type Position = runtime.Position

// Engine is the high-level entry point for the listflow library. It wraps
// the internal runtime and compiler behind a simplified API for hosts:
// parse a tag configuration once, then fire triggers against it.
type Engine struct {
	runtime *runtime.Engine
	parser  *compiler.Parser
	docs    ports.DocumentStore
	logger  *slog.Logger
	Name    string

	editor      ports.TaskEditor
	query       ports.QueryService
	http        ports.HTTPDoer
	notifier    ports.Notifier
	stash       ports.ResponseStash
	shell       runtime.ShellRunner
	runtimeOpts []runtime.EngineOption
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithDocumentStore injects a custom document store, bypassing the default
// loam initialization.
func WithDocumentStore(docs ports.DocumentStore) Option {
	return func(e *Engine) { e.docs = docs }
}

// WithTaskEditor injects a custom task editor.
func WithTaskEditor(editor ports.TaskEditor) Option {
	return func(e *Engine) { e.editor = editor }
}

// WithQueryService injects a custom query service.
func WithQueryService(q ports.QueryService) Option {
	return func(e *Engine) { e.query = q }
}

// WithHTTPClient injects the HTTP capability used by fetch actions.
func WithHTTPClient(doer ports.HTTPDoer) Option {
	return func(e *Engine) { e.http = doer }
}

// WithNotifier injects the notification capability.
func WithNotifier(n ports.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithStash injects the pending-response stash; the Redis adapter makes the
// hand-off durable across restarts.
func WithStash(s ports.ResponseStash) Option {
	return func(e *Engine) { e.stash = s }
}

// WithShellRunner injects the shell execution adapter.
func WithShellRunner(r runtime.ShellRunner) Option {
	return func(e *Engine) { e.shell = r }
}

// WithClock overrides the time source used by date actions.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithClock(now))
	}
}

// New initializes a listflow Engine. By default it opens a loam document
// store at storePath; WithDocumentStore skips that, and storePath may then
// be empty.
func New(storePath string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	if eng.docs == nil {
		if storePath == "" {
			return nil, fmt.Errorf("storePath is required when no custom document store is provided")
		}
		store, err := loamadapter.Open(storePath)
		if err != nil {
			return nil, err
		}
		eng.docs = store
		eng.Name = store.Root()
	}

	if eng.editor == nil {
		eng.editor = memory.NewEditor(eng.docs)
	}
	if eng.query == nil {
		if lister, ok := eng.docs.(memory.Lister); ok {
			eng.query = memory.NewQuery(lister)
		}
	}
	if eng.http == nil {
		eng.http = httpadapter.NewClient()
	}
	if eng.notifier == nil {
		eng.notifier = memory.NewNotifier(eng.logger)
	}
	if eng.shell == nil {
		eng.shell = process.NewRunner(
			process.WithBaseDir(eng.docs.Root()),
			process.WithLogger(eng.logger),
		)
	}

	rtOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithDocumentStore(eng.docs),
		runtime.WithTaskEditor(eng.editor),
		runtime.WithHTTPClient(eng.http),
		runtime.WithNotifier(eng.notifier),
		runtime.WithShellRunner(eng.shell),
	}
	if eng.query != nil {
		rtOpts = append(rtOpts, runtime.WithQueryService(eng.query))
	}
	if eng.stash != nil {
		rtOpts = append(rtOpts, runtime.WithStash(eng.stash))
	}
	rtOpts = append(rtOpts, eng.runtimeOpts...)

	eng.runtime = runtime.NewEngine(rtOpts...)
	eng.parser = compiler.NewParser(compiler.WithLogger(eng.logger))
	return eng, nil
}

// LoadConfig parses a bullet-list trigger configuration. The text is the
// raw outline under a tag definition; sourceTag labels diagnostics.
func (e *Engine) LoadConfig(text, sourceTag string) (*domain.Config, error) {
	return e.parser.ParseConfigText(text, sourceTag)
}

// LoadConfigFromDocument reads a document from the store and parses it as a
// trigger configuration.
func (e *Engine) LoadConfigFromDocument(ctx context.Context, path, sourceTag string) (*domain.Config, error) {
	text, err := e.docs.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return e.parser.ParseConfigText(text, sourceTag)
}

// HasTrigger reports whether the config declares the given trigger kind.
func (e *Engine) HasTrigger(cfg *domain.Config, kind domain.TriggerKind) bool {
	return e.runtime.HasTrigger(cfg, kind)
}

// ExecuteTrigger fires one trigger of the config against the invocation.
func (e *Engine) ExecuteTrigger(ctx context.Context, cfg *domain.Config, kind domain.TriggerKind, inv *runtime.Invocation) domain.Result {
	return e.runtime.ExecuteTrigger(ctx, cfg, kind, inv)
}

// HandleStatusChange runs the trigger cascade for an item's status
// transition: onTrigger first, then the status-specific trigger. A failing
// onTrigger marks the item with the error status and skips the specific
// trigger; onData fires after a done-transition when a pending response was
// consumed.
func (e *Engine) HandleStatusChange(ctx context.Context, cfg *domain.Config, item *domain.WorkItem, status domain.Status) domain.Result {
	inv := &runtime.Invocation{Item: item}

	if res := e.runtime.ExecuteTrigger(ctx, cfg, domain.OnTrigger, inv); res.Err != nil {
		e.markError(ctx, item)
		return res
	}

	kind, ok := domain.TriggerFor(status)
	if !ok {
		return domain.Result{Success: true}
	}
	res := e.runtime.ExecuteTrigger(ctx, cfg, kind, inv)
	if res.Err != nil {
		e.markError(ctx, item)
	}
	return res
}

// markError applies the visible failure marker to the item.
func (e *Engine) markError(ctx context.Context, item *domain.WorkItem) {
	if item == nil || e.editor == nil {
		return
	}
	if err := e.editor.SetStatus(ctx, item, domain.StatusError); err != nil {
		e.logger.Warn("could not mark item as failed", "doc", item.DocPath, "err", err)
	}
}

// Store returns the engine's document store.
func (e *Engine) Store() ports.DocumentStore { return e.docs }
