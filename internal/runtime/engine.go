package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/listflow/listflow/internal/logging"
	"github.com/listflow/listflow/pkg/domain"
	"github.com/listflow/listflow/pkg/ports"
)

// Engine dispatches triggers and runs action sequences depth-first. One
// engine serves many executions; the only state it owns across them is the
// pending-response stash. Execution contexts are created per invocation and
// never shared, so the engine itself needs no locking.
type Engine struct {
	logger *slog.Logger

	docs     ports.DocumentStore
	editor   ports.TaskEditor
	query    ports.QueryService
	http     ports.HTTPDoer
	notifier ports.Notifier
	stash    ports.ResponseStash
	shell    ShellRunner

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// ShellRunner executes one sandboxed shell command with a timeout and a
// bounded output buffer. pkg/adapters/process provides the implementation.
type ShellRunner interface {
	Run(ctx context.Context, command string, timeout time.Duration) (output string, err error)
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDocumentStore sets the document storage collaborator.
func WithDocumentStore(docs ports.DocumentStore) EngineOption {
	return func(e *Engine) { e.docs = docs }
}

// WithTaskEditor sets the task-editing collaborator.
func WithTaskEditor(editor ports.TaskEditor) EngineOption {
	return func(e *Engine) { e.editor = editor }
}

// WithQueryService sets the cross-document query collaborator.
func WithQueryService(q ports.QueryService) EngineOption {
	return func(e *Engine) { e.query = q }
}

// WithHTTPClient sets the HTTP capability used by fetch.
func WithHTTPClient(doer ports.HTTPDoer) EngineOption {
	return func(e *Engine) { e.http = doer }
}

// WithNotifier sets the notification capability.
func WithNotifier(n ports.Notifier) EngineOption {
	return func(e *Engine) { e.notifier = n }
}

// WithStash sets the pending-response stash. Defaults to an in-process
// single-slot map.
func WithStash(s ports.ResponseStash) EngineOption {
	return func(e *Engine) { e.stash = s }
}

// WithShellRunner sets the shell execution adapter.
func WithShellRunner(r ShellRunner) EngineOption {
	return func(e *Engine) { e.shell = r }
}

// WithClock overrides the time source used by the date action.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithSleeper overrides the delay suspension, so tests run instantly.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) EngineOption {
	return func(e *Engine) { e.sleep = sleep }
}

// NewEngine creates an engine with the given collaborators.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: logging.NewNop(),
		now:    time.Now,
		sleep: func(ctx context.Context, d time.Duration) error {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				return nil
			}
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.stash == nil {
		e.stash = newMemoryStash()
	}
	return e
}

// HasTrigger reports whether the config declares the given trigger kind.
func (e *Engine) HasTrigger(cfg *domain.Config, kind domain.TriggerKind) bool {
	return cfg != nil && cfg.HasTrigger(kind)
}

// ExecuteTrigger looks up the matching trigger, builds a fresh context and
// runs the action sequence depth-first. A config without the trigger is a
// no-op success. Failures that reach the trigger boundary come back inside
// the Result; the caller applies its visible failure marker and may retry.
func (e *Engine) ExecuteTrigger(ctx context.Context, cfg *domain.Config, kind domain.TriggerKind, inv *Invocation) domain.Result {
	if cfg == nil {
		return domain.Result{Success: true}
	}
	trig := cfg.Trigger(kind)
	if trig == nil {
		return domain.Result{Success: true}
	}

	ec := e.newContext(inv)
	e.seedHandoff(ctx, kind, ec)

	log := e.logger.With("tag", cfg.SourceTag, "trigger", string(kind))
	log.Debug("executing trigger", "actions", len(trig.Actions))

	if err := e.runSequence(ctx, trig.Actions, ec); err != nil {
		log.Warn("trigger failed", "err", err)
		return domain.Result{Err: err}
	}

	e.storeHandoff(ctx, kind, ec)
	log.Debug("trigger completed", "returned", ec.ShouldReturn)
	return domain.Result{Success: true, Value: ec.ReturnValue}
}

// seedHandoff consumes a pending response on done-transitions. An empty
// slot is the normal no-value case.
func (e *Engine) seedHandoff(ctx context.Context, kind domain.TriggerKind, ec *Context) {
	if kind != domain.OnDone && kind != domain.OnData {
		return
	}
	if ec.DocPath == "" {
		return
	}
	val, ok, err := e.stash.Take(ctx, ec.DocPath)
	if err != nil {
		e.logger.Warn("stash take failed", "doc", ec.DocPath, "err", err)
		return
	}
	if ok {
		ec.Vars["response"] = val
		ec.LastResponse = val
	}
}

// storeHandoff records a successful onTrigger value for the matching
// done-transition. Put overwrites: the slot is single-use, not a queue.
func (e *Engine) storeHandoff(ctx context.Context, kind domain.TriggerKind, ec *Context) {
	if kind != domain.OnTrigger || ec.DocPath == "" {
		return
	}
	val := ec.ReturnValue
	if val == nil {
		val = ec.LastResponse
	}
	if val == nil {
		return
	}
	if err := e.stash.Put(ctx, ec.DocPath, val); err != nil {
		e.logger.Warn("stash put failed", "doc", ec.DocPath, "err", err)
	}
}

// runSequence executes actions in order. A shouldReturn set at any depth
// halts remaining actions at every enclosing level. A failing action runs
// its own error-handler sequence when one is declared; the handler's own
// failures still propagate.
func (e *Engine) runSequence(ctx context.Context, nodes []domain.ActionNode, ec *Context) error {
	for i := range nodes {
		if ec.ShouldReturn {
			return nil
		}
		node := &nodes[i]
		if err := e.execute(ctx, node, ec); err != nil {
			if node.OnError == nil {
				return err
			}
			e.logger.Debug("action failed, running handler", "kind", string(node.Kind), "err", err)
			ec.LastError = err
			ec.Vars["error"] = err.Error()
			if herr := e.runSequence(ctx, node.OnError, ec); herr != nil {
				return herr
			}
		}
	}
	return nil
}

// execute dispatches one action node. The kind set is closed; this switch
// is the single place that maps kinds to behavior.
func (e *Engine) execute(ctx context.Context, node *domain.ActionNode, ec *Context) error {
	var err error
	switch node.Kind {
	case domain.KindRead:
		err = e.runRead(ctx, node, ec)
	case domain.KindFetch:
		err = e.runFetch(ctx, node, ec)
	case domain.KindShell:
		err = e.runShell(ctx, node, ec)
	case domain.KindTransform:
		err = e.runTransform(ctx, node, ec)
	case domain.KindBuild:
		err = e.runBuild(node, ec)
	case domain.KindQuery:
		err = e.runQuery(ctx, node, ec)
	case domain.KindSet:
		err = e.runSet(node, ec)
	case domain.KindMatch:
		err = e.runMatch(node, ec)
	case domain.KindExtract:
		err = e.runExtract(node, ec)
	case domain.KindIf:
		err = e.runIf(ctx, node, ec)
	case domain.KindForeach:
		err = e.runForeach(ctx, node, ec)
	case domain.KindReturn:
		err = e.runReturn(node, ec)
	case domain.KindAppend:
		err = e.runAppend(ctx, node, ec)
	case domain.KindTask:
		err = e.runTask(ctx, node, ec)
	case domain.KindValidate:
		err = e.runValidate(node, ec)
	case domain.KindDelay:
		err = e.runDelay(ctx, node)
	case domain.KindFilter:
		err = e.runFilter(node, ec)
	case domain.KindMap:
		err = e.runMap(node, ec)
	case domain.KindDate:
		err = e.runDate(node, ec)
	case domain.KindNotify:
		err = e.runNotify(ctx, node, ec)
	default:
		err = fmt.Errorf("unhandled action kind %q", node.Kind)
	}
	if err != nil {
		return actionErr(node.Kind, err)
	}
	return nil
}

// actionErr wraps a failure in an ActionError unless it already is one.
func actionErr(kind domain.Kind, err error) error {
	if _, ok := err.(*domain.ActionError); ok {
		return err
	}
	return &domain.ActionError{Kind: kind, Msg: err.Error(), Err: err}
}
