package runtime

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listflow/listflow/pkg/domain"
	"github.com/listflow/listflow/pkg/ports"
)

type editorOp struct {
	Op     string
	Text   string
	Marker string
	Offset int
	Indent int
	Status domain.Status
}

// fakeEditor records every edit so tests can assert on placement and order.
type fakeEditor struct {
	ops []editorOp
}

func (f *fakeEditor) AppendPrimary(_ context.Context, _ *domain.WorkItem, text string) error {
	f.ops = append(f.ops, editorOp{Op: "appendPrimary", Text: text})
	return nil
}

func (f *fakeEditor) PrependPrimary(_ context.Context, _ *domain.WorkItem, text string) error {
	f.ops = append(f.ops, editorOp{Op: "prependPrimary", Text: text})
	return nil
}

func (f *fakeEditor) ReplacePrimary(_ context.Context, _ *domain.WorkItem, text string) error {
	f.ops = append(f.ops, editorOp{Op: "replacePrimary", Text: text})
	return nil
}

func (f *fakeEditor) AppendChild(_ context.Context, _ *domain.WorkItem, text, marker string, indent int) error {
	f.ops = append(f.ops, editorOp{Op: "appendChild", Text: text, Marker: marker, Indent: indent})
	return nil
}

func (f *fakeEditor) PrependChild(_ context.Context, _ *domain.WorkItem, text, marker string, indent int) error {
	f.ops = append(f.ops, editorOp{Op: "prependChild", Text: text, Marker: marker, Indent: indent})
	return nil
}

func (f *fakeEditor) ReplaceChild(_ context.Context, _ *domain.WorkItem, offset int, text, marker string) error {
	f.ops = append(f.ops, editorOp{Op: "replaceChild", Text: text, Marker: marker, Offset: offset})
	return nil
}

func (f *fakeEditor) InjectChildAt(_ context.Context, _ *domain.WorkItem, offset int, text, marker string, indent int) error {
	f.ops = append(f.ops, editorOp{Op: "injectChildAt", Text: text, Marker: marker, Offset: offset, Indent: indent})
	return nil
}

func (f *fakeEditor) RemoveChildrenByMarker(_ context.Context, _ *domain.WorkItem, marker string) error {
	f.ops = append(f.ops, editorOp{Op: "removeChildren", Marker: marker})
	return nil
}

func (f *fakeEditor) RemoveChildByOffset(_ context.Context, _ *domain.WorkItem, offset int) error {
	f.ops = append(f.ops, editorOp{Op: "removeChild", Offset: offset})
	return nil
}

func (f *fakeEditor) SetStatus(_ context.Context, _ *domain.WorkItem, status domain.Status) error {
	f.ops = append(f.ops, editorOp{Op: "setStatus", Status: status})
	return nil
}

// fakeHTTP replays a canned response per URL and records requests.
type fakeHTTP struct {
	responses map[string]ports.HTTPResponse
	err       error
	requests  []ports.HTTPRequest
}

func (f *fakeHTTP) Do(_ context.Context, req ports.HTTPRequest) (ports.HTTPResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return ports.HTTPResponse{}, f.err
	}
	if resp, ok := f.responses[req.URL]; ok {
		return resp, nil
	}
	return ports.HTTPResponse{Status: 404, Body: "not found"}, nil
}

// fakeShell records commands and replays one output.
type fakeShell struct {
	output   string
	err      error
	commands []string
}

func (f *fakeShell) Run(_ context.Context, command string, _ time.Duration) (string, error) {
	f.commands = append(f.commands, command)
	return f.output, f.err
}

type fakeQuery struct {
	items []domain.WorkItem
}

func (f *fakeQuery) Find(_ context.Context, _ string, opts domain.QueryOptionsRequest) ([]domain.WorkItem, error) {
	out := f.items
	if opts.Status != "" {
		filtered := out[:0:0]
		for _, it := range out {
			if string(it.Status) == opts.Status {
				filtered = append(filtered, it)
			}
		}
		out = filtered
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

type fakeDocs struct {
	files map[string]string
}

func (f *fakeDocs) Load(_ context.Context, path string) (string, error) {
	content, ok := f.files[path]
	if !ok {
		return "", fmt.Errorf("no such document %s", path)
	}
	return content, nil
}

func (f *fakeDocs) Save(_ context.Context, path, content string) error {
	f.files[path] = content
	return nil
}

func (f *fakeDocs) Root() string { return "/" }

func singleTrigger(kind domain.TriggerKind, actions ...domain.ActionNode) *domain.Config {
	return &domain.Config{
		SourceTag: "#test",
		Triggers:  []domain.Trigger{{Kind: kind, Actions: actions}},
	}
}

func TestExecuteTriggerMissingTriggerIsNoop(t *testing.T) {
	e := NewEngine()
	cfg := singleTrigger(domain.OnDone, domain.ActionNode{Kind: domain.KindReturn})

	res := e.ExecuteTrigger(context.Background(), cfg, domain.OnError, &Invocation{DocPath: "a.md"})
	require.True(t, res.Success)
	assert.Nil(t, res.Value)
}

func TestSetAndIf(t *testing.T) {
	e := NewEngine()
	cfg := singleTrigger(domain.OnTrigger,
		domain.ActionNode{Kind: domain.KindSet, Value: "n", Set: &domain.SetOptions{Value: "5"}},
		domain.ActionNode{Kind: domain.KindIf, Value: "{{n}} > 3", If: &domain.IfOptions{
			Then: []domain.ActionNode{{Kind: domain.KindSet, Value: "branch", Set: &domain.SetOptions{Value: "big"}}},
			Else: []domain.ActionNode{{Kind: domain.KindSet, Value: "branch", Set: &domain.SetOptions{Value: "small"}}},
		}},
		domain.ActionNode{Kind: domain.KindReturn, Value: "{{branch}}"},
	)

	res := e.ExecuteTrigger(context.Background(), cfg, domain.OnTrigger, &Invocation{DocPath: "a.md"})
	require.True(t, res.Success, "unexpected error: %v", res.Err)
	assert.Equal(t, "big", res.Value)
}

func TestForeachAnchorsSiblingLines(t *testing.T) {
	editor := &fakeEditor{}
	e := NewEngine(WithTaskEditor(editor))
	item := &domain.WorkItem{DocPath: "a.md", Tag: "#test", Text: "#test run"}

	cfg := singleTrigger(domain.OnTrigger,
		domain.ActionNode{Kind: domain.KindForeach, Value: "rows", Foreach: &domain.ForeachOptions{
			Do: []domain.ActionNode{{Kind: domain.KindAppend, Value: "row {{item}} at {{index}}"}},
		}},
	)

	res := e.ExecuteTrigger(context.Background(), cfg, domain.OnTrigger, &Invocation{
		Item: item,
		Vars: map[string]any{"rows": []any{"a", "b", "c"}},
	})
	require.True(t, res.Success, "unexpected error: %v", res.Err)

	require.Len(t, editor.ops, 3)
	for i, op := range editor.ops {
		assert.Equal(t, "appendChild", op.Op)
		assert.Equal(t, 0, op.Indent, "iteration %d must be a sibling, not nested", i)
	}
	assert.Equal(t, "row a at 0", editor.ops[0].Text)
	assert.Equal(t, "row c at 2", editor.ops[2].Text)
}

func TestForeachLoopVarsRemovedAfter(t *testing.T) {
	e := NewEngine()
	ec := e.newContext(&Invocation{Vars: map[string]any{"rows": []any{"x"}}})
	node := &domain.ActionNode{Kind: domain.KindForeach, Value: "rows", Foreach: &domain.ForeachOptions{}}

	require.NoError(t, e.runForeach(context.Background(), node, ec))
	_, hasItem := ec.Vars["item"]
	_, hasIndex := ec.Vars["index"]
	assert.False(t, hasItem)
	assert.False(t, hasIndex)
}

func TestForeachNonArrayFails(t *testing.T) {
	e := NewEngine()
	cfg := singleTrigger(domain.OnTrigger,
		domain.ActionNode{Kind: domain.KindForeach, Value: "line", Foreach: &domain.ForeachOptions{}},
	)

	res := e.ExecuteTrigger(context.Background(), cfg, domain.OnTrigger, &Invocation{Line: "plain text"})
	require.False(t, res.Success)
	var actErr *domain.ActionError
	require.ErrorAs(t, res.Err, &actErr)
	assert.Equal(t, domain.KindForeach, actErr.Kind)
}

func TestReturnInsideNestedLevelsHaltsEverything(t *testing.T) {
	editor := &fakeEditor{}
	e := NewEngine(WithTaskEditor(editor))
	item := &domain.WorkItem{DocPath: "a.md", Text: "#test go"}

	// return fires on the second element, inside if, inside foreach; the
	// third element and the trailing append must never run.
	cfg := singleTrigger(domain.OnTrigger,
		domain.ActionNode{Kind: domain.KindForeach, Value: "rows", Foreach: &domain.ForeachOptions{
			Do: []domain.ActionNode{
				{Kind: domain.KindIf, Value: "{{item}} == b", If: &domain.IfOptions{
					Then: []domain.ActionNode{{Kind: domain.KindReturn, Value: "stopped at {{index}}"}},
				}},
				{Kind: domain.KindAppend, Value: "saw {{item}}"},
			},
		}},
		domain.ActionNode{Kind: domain.KindAppend, Value: "after loop"},
	)

	res := e.ExecuteTrigger(context.Background(), cfg, domain.OnTrigger, &Invocation{
		Item: item,
		Vars: map[string]any{"rows": []any{"a", "b", "c"}},
	})
	require.True(t, res.Success, "unexpected error: %v", res.Err)
	assert.Equal(t, "stopped at 1", res.Value)

	require.Len(t, editor.ops, 1)
	assert.Equal(t, "saw a", editor.ops[0].Text)
}

func TestFetchStoresParsedResponse(t *testing.T) {
	client := &fakeHTTP{responses: map[string]ports.HTTPResponse{
		"https://api.test/v1/items": {Status: 200, Body: `{"title": "Widget", "price": 9.5}`},
	}}
	e := NewEngine(WithHTTPClient(client))

	cfg := singleTrigger(domain.OnTrigger,
		domain.ActionNode{Kind: domain.KindFetch, Value: "https://api.test/v1/items", Fetch: &domain.FetchOptions{As: "product"}},
		domain.ActionNode{Kind: domain.KindReturn, Value: "{{product.title}}"},
	)

	res := e.ExecuteTrigger(context.Background(), cfg, domain.OnTrigger, &Invocation{DocPath: "a.md"})
	require.True(t, res.Success, "unexpected error: %v", res.Err)
	assert.Equal(t, "Widget", res.Value)
}

func TestFetchErrorCarriesStatusAndBody(t *testing.T) {
	client := &fakeHTTP{responses: map[string]ports.HTTPResponse{
		"https://api.test/v1/items": {Status: 500, Body: "quota exceeded"},
	}}
	e := NewEngine(WithHTTPClient(client))

	cfg := singleTrigger(domain.OnTrigger,
		domain.ActionNode{Kind: domain.KindFetch, Value: "https://api.test/v1/items"},
	)

	res := e.ExecuteTrigger(context.Background(), cfg, domain.OnTrigger, &Invocation{DocPath: "a.md"})
	require.False(t, res.Success)

	var actErr *domain.ActionError
	require.ErrorAs(t, res.Err, &actErr)
	assert.Equal(t, 500, actErr.Status)
	assert.Contains(t, actErr.Msg, "500")
	assert.Contains(t, actErr.Msg, "quota exceeded")
}

func TestFetchErrorHandlerRecovers(t *testing.T) {
	client := &fakeHTTP{responses: map[string]ports.HTTPResponse{
		"https://api.test/v1/items": {Status: 500, Body: "quota exceeded"},
	}}
	editor := &fakeEditor{}
	e := NewEngine(WithHTTPClient(client), WithTaskEditor(editor))
	item := &domain.WorkItem{DocPath: "a.md", Text: "#test fetch it"}

	cfg := singleTrigger(domain.OnTrigger,
		domain.ActionNode{
			Kind:  domain.KindFetch,
			Value: "https://api.test/v1/items",
			OnError: []domain.ActionNode{
				{Kind: domain.KindAppend, Value: "failed: {{error}}"},
			},
		},
		domain.ActionNode{Kind: domain.KindReturn, Value: "recovered"},
	)

	res := e.ExecuteTrigger(context.Background(), cfg, domain.OnTrigger, &Invocation{Item: item})
	require.True(t, res.Success, "handled failure must not fail the trigger: %v", res.Err)
	assert.Equal(t, "recovered", res.Value)

	require.Len(t, editor.ops, 1)
	assert.Contains(t, editor.ops[0].Text, "quota exceeded")
}

func TestFetchAuthSchemes(t *testing.T) {
	tests := []struct {
		name   string
		auth   *domain.AuthOptions
		header string
		want   string
	}{
		{
			name:   "basic",
			auth:   &domain.AuthOptions{Type: "basic", User: "bob", Pass: "secret"},
			header: "Authorization",
			want:   "Basic Ym9iOnNlY3JldA==",
		},
		{
			name:   "bearer",
			auth:   &domain.AuthOptions{Type: "bearer", Token: "tok123"},
			header: "Authorization",
			want:   "Bearer tok123",
		},
		{
			name:   "apiKey default header",
			auth:   &domain.AuthOptions{Type: "apiKey", Key: "k-1"},
			header: "X-Api-Key",
			want:   "k-1",
		},
		{
			name:   "apiKey custom header",
			auth:   &domain.AuthOptions{Type: "apiKey", Key: "k-2", Header: "X-Custom"},
			header: "X-Custom",
			want:   "k-2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeHTTP{responses: map[string]ports.HTTPResponse{
				"https://api.test/": {Status: 200, Body: "ok"},
			}}
			e := NewEngine(WithHTTPClient(client))
			cfg := singleTrigger(domain.OnTrigger, domain.ActionNode{
				Kind:  domain.KindFetch,
				Value: "https://api.test/",
				Fetch: &domain.FetchOptions{Auth: tt.auth},
			})

			res := e.ExecuteTrigger(context.Background(), cfg, domain.OnTrigger, &Invocation{DocPath: "a.md"})
			require.True(t, res.Success, "unexpected error: %v", res.Err)
			require.Len(t, client.requests, 1)
			assert.Equal(t, tt.want, client.requests[0].Headers[tt.header])
		})
	}
}

func TestShellRejectsEscapingPaths(t *testing.T) {
	tests := []struct {
		name    string
		command string
	}{
		{"absolute path", "cat /etc/passwd"},
		{"parent traversal", "cat ../secrets"},
		{"home path", "ls ~/private"},
		{"nested traversal", "cat notes/../../secrets"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shell := &fakeShell{output: "should not run"}
			e := NewEngine(WithShellRunner(shell))
			cfg := singleTrigger(domain.OnTrigger,
				domain.ActionNode{Kind: domain.KindShell, Value: tt.command},
			)

			res := e.ExecuteTrigger(context.Background(), cfg, domain.OnTrigger, &Invocation{DocPath: "a.md"})
			require.False(t, res.Success)
			assert.ErrorIs(t, res.Err, domain.ErrSandbox)
			assert.Empty(t, shell.commands, "rejected command must never reach the shell")
		})
	}
}

func TestShellQuotesInterpolatedValues(t *testing.T) {
	shell := &fakeShell{output: "done"}
	e := NewEngine(WithShellRunner(shell))
	cfg := singleTrigger(domain.OnTrigger,
		domain.ActionNode{Kind: domain.KindShell, Value: "echo {{msg}}", Shell: &domain.ShellOptions{As: "out"}},
		domain.ActionNode{Kind: domain.KindReturn, Value: "{{out}}"},
	)

	res := e.ExecuteTrigger(context.Background(), cfg, domain.OnTrigger, &Invocation{
		DocPath: "a.md",
		Vars:    map[string]any{"msg": "hello; rm -rf ."},
	})
	require.True(t, res.Success, "unexpected error: %v", res.Err)
	assert.Equal(t, "done", res.Value)
	require.Len(t, shell.commands, 1)
	assert.Equal(t, `echo 'hello; rm -rf .'`, shell.commands[0])
}

func TestShellOutputBecomesGeneratedChildren(t *testing.T) {
	shell := &fakeShell{output: "line one\nline two\n"}
	editor := &fakeEditor{}
	e := NewEngine(WithShellRunner(shell), WithTaskEditor(editor))
	item := &domain.WorkItem{DocPath: "a.md", Text: "#test build"}

	cfg := singleTrigger(domain.OnTrigger,
		domain.ActionNode{Kind: domain.KindShell, Value: "make test"},
	)

	res := e.ExecuteTrigger(context.Background(), cfg, domain.OnTrigger, &Invocation{Item: item})
	require.True(t, res.Success, "unexpected error: %v", res.Err)
	require.Len(t, editor.ops, 2)
	assert.Equal(t, "line one", editor.ops[0].Text)
	assert.Equal(t, "line two", editor.ops[1].Text)
}

func TestHandoffPutOnTriggerTakeOnDone(t *testing.T) {
	e := NewEngine()
	onTrigger := singleTrigger(domain.OnTrigger,
		domain.ActionNode{Kind: domain.KindReturn, Value: "deploy-42"},
	)
	onDone := singleTrigger(domain.OnDone,
		domain.ActionNode{Kind: domain.KindReturn, Value: "got {{response}}"},
	)

	res := e.ExecuteTrigger(context.Background(), onTrigger, domain.OnTrigger, &Invocation{DocPath: "a.md"})
	require.True(t, res.Success, "unexpected error: %v", res.Err)

	res = e.ExecuteTrigger(context.Background(), onDone, domain.OnDone, &Invocation{DocPath: "a.md"})
	require.True(t, res.Success, "unexpected error: %v", res.Err)
	assert.Equal(t, "got deploy-42", res.Value)

	// The slot is consume-once: a second done-transition sees nothing.
	res = e.ExecuteTrigger(context.Background(), onDone, domain.OnDone, &Invocation{DocPath: "a.md"})
	require.False(t, res.Success, "missing response variable must surface as an error")
}

func TestHandoffIsKeyedByDocPath(t *testing.T) {
	e := NewEngine()
	onTrigger := singleTrigger(domain.OnTrigger,
		domain.ActionNode{Kind: domain.KindReturn, Value: "for-a"},
	)
	onDone := singleTrigger(domain.OnDone,
		domain.ActionNode{Kind: domain.KindReturn, Value: "{{response}}"},
	)

	res := e.ExecuteTrigger(context.Background(), onTrigger, domain.OnTrigger, &Invocation{DocPath: "a.md"})
	require.True(t, res.Success)

	res = e.ExecuteTrigger(context.Background(), onDone, domain.OnDone, &Invocation{DocPath: "b.md"})
	require.False(t, res.Success, "a different document must not see the stashed value")
}

func TestTaskClearAppendAndStatus(t *testing.T) {
	editor := &fakeEditor{}
	e := NewEngine(WithTaskEditor(editor))
	item := &domain.WorkItem{DocPath: "a.md", Text: "#test deploy", Status: domain.StatusInProgress}

	cfg := singleTrigger(domain.OnDone,
		domain.ActionNode{Kind: domain.KindTask, Value: "finished", Task: &domain.TaskOptions{
			Clear:  "*",
			Status: "done",
		}},
	)

	res := e.ExecuteTrigger(context.Background(), cfg, domain.OnDone, &Invocation{Item: item})
	require.True(t, res.Success, "unexpected error: %v", res.Err)

	require.Len(t, editor.ops, 3)
	assert.Equal(t, "removeChildren", editor.ops[0].Op)
	assert.Equal(t, "*", editor.ops[0].Marker)
	assert.Equal(t, "appendChild", editor.ops[1].Op)
	assert.Equal(t, "finished", editor.ops[1].Text)
	assert.Equal(t, "setStatus", editor.ops[2].Op)
	assert.Equal(t, domain.StatusDone, editor.ops[2].Status)
	assert.Equal(t, domain.StatusDone, item.Status)
}

func TestTaskRefusesHumanMarker(t *testing.T) {
	editor := &fakeEditor{}
	e := NewEngine(WithTaskEditor(editor))
	item := &domain.WorkItem{DocPath: "a.md", Text: "#test x"}

	cfg := singleTrigger(domain.OnDone,
		domain.ActionNode{Kind: domain.KindTask, Task: &domain.TaskOptions{Clear: "-"}},
	)

	res := e.ExecuteTrigger(context.Background(), cfg, domain.OnDone, &Invocation{Item: item})
	require.False(t, res.Success)
	assert.Empty(t, editor.ops)
}

func TestTransformReplacesPrimaryAndAddsChildren(t *testing.T) {
	editor := &fakeEditor{}
	e := NewEngine(WithTaskEditor(editor))
	item := &domain.WorkItem{DocPath: "a.md", Text: "#log run tests"}

	cfg := singleTrigger(domain.OnDone,
		domain.ActionNode{Kind: domain.KindTransform, Value: "{{line}} ✓", Transform: &domain.TransformOptions{
			Templates: []domain.TemplateLine{
				{Text: "completed at {{when}}", Indent: 0},
				{Text: "detail", Indent: 1},
			},
		}},
	)

	res := e.ExecuteTrigger(context.Background(), cfg, domain.OnDone, &Invocation{
		Item: item,
		Vars: map[string]any{"when": "noon"},
	})
	require.True(t, res.Success, "unexpected error: %v", res.Err)

	require.Len(t, editor.ops, 3)
	assert.Equal(t, "replacePrimary", editor.ops[0].Op)
	assert.Equal(t, "#log run tests ✓", editor.ops[0].Text)
	assert.Equal(t, "completed at noon", editor.ops[1].Text)
	assert.Equal(t, 1, editor.ops[2].Indent)
}

func TestValidateFailureMessage(t *testing.T) {
	e := NewEngine()
	cfg := singleTrigger(domain.OnTrigger,
		domain.ActionNode{Kind: domain.KindSet, Value: "count", Set: &domain.SetOptions{Value: "0"}},
		domain.ActionNode{Kind: domain.KindValidate, Value: "{{count}} > 0", Validate: &domain.ValidateOptions{
			Message: "need at least one item, got {{count}}",
		}},
	)

	res := e.ExecuteTrigger(context.Background(), cfg, domain.OnTrigger, &Invocation{DocPath: "a.md"})
	require.False(t, res.Success)
	assert.Contains(t, res.Err.Error(), "need at least one item, got 0")
}

func TestDelayParsesAndHonorsContext(t *testing.T) {
	var slept time.Duration
	e := NewEngine(WithSleeper(func(_ context.Context, d time.Duration) error {
		slept = d
		return nil
	}))
	cfg := singleTrigger(domain.OnTrigger,
		domain.ActionNode{Kind: domain.KindDelay, Value: "250"},
	)

	res := e.ExecuteTrigger(context.Background(), cfg, domain.OnTrigger, &Invocation{DocPath: "a.md"})
	require.True(t, res.Success, "unexpected error: %v", res.Err)
	assert.Equal(t, 250*time.Millisecond, slept)
}

func TestDelayMalformedDuration(t *testing.T) {
	e := NewEngine(WithSleeper(func(_ context.Context, _ time.Duration) error { return nil }))
	cfg := singleTrigger(domain.OnTrigger,
		domain.ActionNode{Kind: domain.KindDelay, Value: "soonish"},
	)

	res := e.ExecuteTrigger(context.Background(), cfg, domain.OnTrigger, &Invocation{DocPath: "a.md"})
	require.False(t, res.Success)
}

func TestFilterAndMap(t *testing.T) {
	e := NewEngine()
	cfg := singleTrigger(domain.OnTrigger,
		domain.ActionNode{Kind: domain.KindFilter, Value: "nums", Filter: &domain.SeqOptions{
			Where: "{{item}} > 2", As: "big",
		}},
		domain.ActionNode{Kind: domain.KindMap, Value: "big", Map: &domain.SeqOptions{
			With: "n={{item}}", As: "labels",
		}},
		domain.ActionNode{Kind: domain.KindReturn, Value: "{{labels}}"},
	)

	res := e.ExecuteTrigger(context.Background(), cfg, domain.OnTrigger, &Invocation{
		DocPath: "a.md",
		Vars:    map[string]any{"nums": []any{1, 3, 2, 5}},
	})
	require.True(t, res.Success, "unexpected error: %v", res.Err)
	assert.Equal(t, `["n=3","n=5"]`, res.Value)
}

func TestDateFormats(t *testing.T) {
	fixed := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
	e := NewEngine(WithClock(func() time.Time { return fixed }))

	tests := []struct {
		format string
		want   any
	}{
		{"iso", "2024-03-15T12:30:00Z"},
		{"date", "2024-03-15"},
		{"epoch", fixed.UnixMilli()},
		{"unix", fixed.Unix()},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			ec := e.newContext(&Invocation{})
			node := &domain.ActionNode{Kind: domain.KindDate, Value: "now", Date: &domain.DateOptions{Format: tt.format}}
			require.NoError(t, e.runDate(node, ec))
			assert.Equal(t, tt.want, ec.Vars["now"])
		})
	}
}

func TestQueryStoresPlainMaps(t *testing.T) {
	q := &fakeQuery{items: []domain.WorkItem{
		{DocPath: "a.md", Line: 4, Text: "#job first", Status: domain.StatusOpen},
		{DocPath: "b.md", Line: 9, Text: "#job second", Status: domain.StatusDone},
	}}
	e := NewEngine(WithQueryService(q))

	cfg := singleTrigger(domain.OnTrigger,
		domain.ActionNode{Kind: domain.KindQuery, Value: "#job", Query: &domain.QueryOptions{}},
		domain.ActionNode{Kind: domain.KindForeach, Value: "results", Foreach: &domain.ForeachOptions{
			Do: []domain.ActionNode{{Kind: domain.KindSet, Value: "last", Set: &domain.SetOptions{Value: "{{item.text}}"}}},
		}},
		domain.ActionNode{Kind: domain.KindReturn, Value: "{{last}}"},
	)

	res := e.ExecuteTrigger(context.Background(), cfg, domain.OnTrigger, &Invocation{DocPath: "a.md"})
	require.True(t, res.Success, "unexpected error: %v", res.Err)
	assert.Equal(t, "#job second", res.Value)
}

func TestReadDocumentAndCrossReference(t *testing.T) {
	docs := &fakeDocs{files: map[string]string{
		"notes.md": "- [ ] #log alpha\n- [ ] #log beta",
		"ref.md":   "referenced content",
	}}
	e := NewEngine(WithDocumentStore(docs))

	ec := e.newContext(&Invocation{DocPath: "notes.md", Vars: map[string]any{"target": "ref.md"}})

	node := &domain.ActionNode{Kind: domain.KindRead, Read: &domain.ReadOptions{Source: domain.ReadDocument}}
	require.NoError(t, e.runRead(context.Background(), node, ec))
	assert.Contains(t, ec.Vars["source"], "#log alpha")

	node = &domain.ActionNode{Kind: domain.KindRead, Read: &domain.ReadOptions{Source: "doc:{{target}}", As: "ref"}}
	require.NoError(t, e.runRead(context.Background(), node, ec))
	assert.Equal(t, "referenced content", ec.Vars["ref"])
}

func TestReadStripsDecoration(t *testing.T) {
	e := NewEngine()
	ec := e.newContext(&Invocation{Line: "- [x] #log ship the release"})

	node := &domain.ActionNode{
		Kind:  domain.KindRead,
		Value: "#log {{what+}}",
		Read:  &domain.ReadOptions{Strip: true},
	}
	require.NoError(t, e.runRead(context.Background(), node, ec))
	assert.Equal(t, "#log ship the release", ec.Vars["source"])
	assert.Equal(t, []string{"ship", "the", "release"}, ec.Vars["what"])
}

func TestExtractNamedGroupsAndFallback(t *testing.T) {
	e := NewEngine()
	ec := e.newContext(&Invocation{Line: "ticket ABC-123 opened"})

	node := &domain.ActionNode{Kind: domain.KindExtract, Value: `(?P<proj>[A-Z]+)-(?P<num>\d+)`}
	require.NoError(t, e.runExtract(node, ec))
	assert.Equal(t, "ABC", ec.Vars["proj"])
	assert.Equal(t, "123", ec.Vars["num"])

	node = &domain.ActionNode{Kind: domain.KindExtract, Value: `/ticket (\S+)/i`, Extract: &domain.ExtractOptions{As: "id"}}
	require.NoError(t, e.runExtract(node, ec))
	assert.Equal(t, "ABC-123", ec.Vars["id"])

	node = &domain.ActionNode{Kind: domain.KindExtract, Value: `nope (\d+)`}
	require.Error(t, e.runExtract(node, ec))
}

func TestBuildStructuredVariable(t *testing.T) {
	e := NewEngine()
	ec := e.newContext(&Invocation{Vars: map[string]any{"title": "Widget", "qty": 3}})

	node := &domain.ActionNode{Kind: domain.KindBuild, Value: "order", Build: &domain.BuildOptions{
		Fields: []domain.BuildField{
			{Key: "name", Value: "{{title}}"},
			{Key: "count", Value: "{{qty}}"},
			{Key: "note", Value: "rush order"},
		},
	}}
	require.NoError(t, e.runBuild(node, ec))

	obj, ok := ec.Vars["order"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Widget", obj["name"])
	assert.Equal(t, float64(3), obj["count"])
	assert.Equal(t, "rush order", obj["note"])
}

func TestHandlerFailurePropagates(t *testing.T) {
	e := NewEngine()
	cfg := singleTrigger(domain.OnTrigger,
		domain.ActionNode{
			Kind:  domain.KindValidate,
			Value: "false",
			OnError: []domain.ActionNode{
				{Kind: domain.KindValidate, Value: "false", Validate: &domain.ValidateOptions{Message: "handler also failed"}},
			},
		},
	)

	res := e.ExecuteTrigger(context.Background(), cfg, domain.OnTrigger, &Invocation{DocPath: "a.md"})
	require.False(t, res.Success)
	assert.Contains(t, res.Err.Error(), "handler also failed")
}

func TestTransportErrorWrapped(t *testing.T) {
	client := &fakeHTTP{err: errors.New("connection refused")}
	e := NewEngine(WithHTTPClient(client))
	cfg := singleTrigger(domain.OnTrigger,
		domain.ActionNode{Kind: domain.KindFetch, Value: "https://api.test/"},
	)

	res := e.ExecuteTrigger(context.Background(), cfg, domain.OnTrigger, &Invocation{DocPath: "a.md"})
	require.False(t, res.Success)
	var actErr *domain.ActionError
	require.ErrorAs(t, res.Err, &actErr)
	assert.Contains(t, actErr.Msg, "connection refused")
}
