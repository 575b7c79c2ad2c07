package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listflow/listflow/pkg/domain"
)

const sampleConfig = `
- onDone:
	- set: status value: finished
	- fetch: ` + "`https://api.example.com/items?q={{line}}`" + ` as: result
		- method: POST
		- headers:
			- Content-Type: application/json
		- auth:
			- type: bearer
			- token: ` + "`{{config.token}}`" + `
		- body: ` + "`" + `{"q": "{{line}}"}` + "`" + `
		- onError:
			- notify: fetch failed
	- if: ` + "`{{result.ok}} == true`" + `
		- then:
			- append: done at {{result.ts}}
		- else:
			- return:
- onEnter:
	- transform:
		- mode: replace
		- '#log {{line}} {{cursor}}'
			- nested detail
`

func parse(t *testing.T, text string) *domain.Config {
	t.Helper()
	cfg, err := NewParser().ParseConfigText(text, "#log")
	require.NoError(t, err)
	return cfg
}

func TestParseOutline_Nesting(t *testing.T) {
	items := ParseOutline("- a\n\t- b\n\t\t- c\n- d\n")
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Text)
	require.Len(t, items[0].Children, 1)
	assert.Equal(t, "b", items[0].Children[0].Text)
	require.Len(t, items[0].Children[0].Children, 1)
	assert.Equal(t, "c", items[0].Children[0].Children[0].Text)
	assert.Equal(t, "d", items[1].Text)
}

func TestParseOutline_MixedIndent(t *testing.T) {
	items := ParseOutline("- a\n  - b\n  - c\n")
	require.Len(t, items, 1)
	assert.Len(t, items[0].Children, 2)
}

func TestParseConfig_Triggers(t *testing.T) {
	cfg := parse(t, sampleConfig)

	assert.True(t, cfg.HasTrigger(domain.OnDone))
	assert.True(t, cfg.HasTrigger(domain.OnEnter))
	assert.False(t, cfg.HasTrigger(domain.OnError))
	assert.Equal(t, "#log", cfg.SourceTag)
}

func TestParseConfig_FetchNode(t *testing.T) {
	cfg := parse(t, sampleConfig)

	actions := cfg.Trigger(domain.OnDone).Actions
	require.Len(t, actions, 3)

	fetch := actions[1]
	assert.Equal(t, domain.KindFetch, fetch.Kind)
	assert.Equal(t, "https://api.example.com/items?q={{line}}", fetch.Value)
	require.NotNil(t, fetch.Fetch)
	assert.Equal(t, "POST", fetch.Fetch.Method)
	assert.Equal(t, "result", fetch.Fetch.As)
	assert.Equal(t, "application/json", fetch.Fetch.Headers["Content-Type"])
	require.NotNil(t, fetch.Fetch.Auth)
	assert.Equal(t, "bearer", fetch.Fetch.Auth.Type)
	assert.Equal(t, "{{config.token}}", fetch.Fetch.Auth.Token)
	assert.Equal(t, `{"q": "{{line}}"}`, fetch.Fetch.Body)

	require.Len(t, fetch.OnError, 1)
	assert.Equal(t, domain.KindNotify, fetch.OnError[0].Kind)
}

func TestParseConfig_IfBranches(t *testing.T) {
	cfg := parse(t, sampleConfig)

	ifNode := cfg.Trigger(domain.OnDone).Actions[2]
	require.Equal(t, domain.KindIf, ifNode.Kind)
	assert.Equal(t, "{{result.ok}} == true", ifNode.Value)
	require.NotNil(t, ifNode.If)
	require.Len(t, ifNode.If.Then, 1)
	assert.Equal(t, domain.KindAppend, ifNode.If.Then[0].Kind)
	require.Len(t, ifNode.If.Else, 1)
	assert.Equal(t, domain.KindReturn, ifNode.If.Else[0].Kind)
}

func TestParseConfig_TransformTemplates(t *testing.T) {
	cfg := parse(t, sampleConfig)

	tr := cfg.Trigger(domain.OnEnter).Actions[0]
	require.Equal(t, domain.KindTransform, tr.Kind)
	require.NotNil(t, tr.Transform)
	assert.Equal(t, "replace", tr.Transform.Mode)
	require.Len(t, tr.Transform.Templates, 2)
	assert.Equal(t, domain.TemplateLine{Text: "#log {{line}} {{cursor}}", Indent: 0}, tr.Transform.Templates[0])
	assert.Equal(t, domain.TemplateLine{Text: "nested detail", Indent: 1}, tr.Transform.Templates[1])
}

func TestParseConfig_UnknownKindDropped(t *testing.T) {
	cfg := parse(t, "- onDone:\n\t- frobnicate: xyz\n\t- set: a value: b\n")
	actions := cfg.Trigger(domain.OnDone).Actions
	require.Len(t, actions, 1)
	assert.Equal(t, domain.KindSet, actions[0].Kind)
}

func TestParseConfig_NoTriggers(t *testing.T) {
	_, err := NewParser().ParseConfigText("- notATrigger:\n\t- set: a value: b\n", "#x")
	require.ErrorIs(t, err, domain.ErrNoTriggers)
}

func TestParseConfig_ForeachDefaults(t *testing.T) {
	cfg := parse(t, "- onDone:\n\t- foreach: items as: row\n\t\t- append: '{{row}}'\n")
	fe := cfg.Trigger(domain.OnDone).Actions[0]
	require.Equal(t, domain.KindForeach, fe.Kind)
	assert.Equal(t, "items", fe.Value)
	assert.Equal(t, "row", fe.Foreach.As)
	require.Len(t, fe.Foreach.Do, 1)
	assert.Equal(t, domain.KindAppend, fe.Foreach.Do[0].Kind)
}

func TestParseConfig_BuildFieldOrder(t *testing.T) {
	cfg := parse(t, "- onDone:\n\t- build: payload\n\t\t- title: '{{line}}'\n\t\t- count: 2\n")
	b := cfg.Trigger(domain.OnDone).Actions[0]
	require.Equal(t, domain.KindBuild, b.Kind)
	require.Len(t, b.Build.Fields, 2)
	assert.Equal(t, domain.BuildField{Key: "title", Value: "{{line}}"}, b.Build.Fields[0])
	assert.Equal(t, domain.BuildField{Key: "count", Value: "2"}, b.Build.Fields[1])
}
