/*
Package listflow is a declarative automation engine for bullet-list
documents. Authors attach trigger configurations to tags; when a tracked
item changes status, the engine runs the matching action sequence: reading
and pattern-matching text, calling HTTP APIs, running sandboxed shell
commands, editing the surrounding lines and handing values between
triggers.

# Concept

A configuration is itself a bullet list. Top-level bullets name triggers
(onTrigger, onDone, onError, ...), their children are actions, and nesting
expresses control flow:

	- onTrigger
	    - read: #log {{activity+}}
	    - fetch: https://api.example.com/log
	        - method: POST
	        - body: `{"entry": "{{activity}}"}`
	    - return: {{response.id}}
	- onDone
	    - task: logged as {{response}} status: done

Patterns like "#log {{activity+}}" both extract values from document lines
and interpolate them back into templates. Values returned by a successful
onTrigger are stashed per document and handed to the matching onDone as
"response".

# Architecture

The engine core is pure dispatch over parsed configurations; all side
effects go through narrow ports (document store, task editor, HTTP, shell,
notifications, response stash). The default wiring stores documents in a
loam repository, executes shell commands confined to the store root and
keeps the stash in process memory; adapters for Redis, HTTP serving and MCP
are available for hosts that need them.

# Usage

	eng, err := listflow.New("./docs")
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := eng.LoadConfig(configText, "#log")
	if err != nil {
		log.Fatal(err)
	}
	res := eng.ExecuteTrigger(ctx, cfg, domain.OnTrigger, &listflow.Invocation{
		Line: "- [ ] #log morning run",
	})
*/
package listflow
