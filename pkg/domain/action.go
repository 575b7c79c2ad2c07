package domain

// Kind identifies the action variant of an ActionNode.
// The set is closed: the runtime dispatches on it with a single exhaustive
// switch, and the compiler drops anything it does not recognize.
type Kind string

const (
	KindRead      Kind = "read"
	KindFetch     Kind = "fetch"
	KindShell     Kind = "shell"
	KindTransform Kind = "transform"
	KindBuild     Kind = "build"
	KindQuery     Kind = "query"
	KindSet       Kind = "set"
	KindMatch     Kind = "match"
	KindExtract   Kind = "extract"
	KindIf        Kind = "if"
	KindForeach   Kind = "foreach"
	KindReturn    Kind = "return"
	KindAppend    Kind = "append"
	KindTask      Kind = "task"
	KindValidate  Kind = "validate"
	KindDelay     Kind = "delay"
	KindFilter    Kind = "filter"
	KindMap       Kind = "map"
	KindDate      Kind = "date"
	KindNotify    Kind = "notify"
)

// Kinds lists every recognized action kind.
var Kinds = []Kind{
	KindRead, KindFetch, KindShell, KindTransform, KindBuild,
	KindQuery, KindSet, KindMatch, KindExtract, KindIf,
	KindForeach, KindReturn, KindAppend, KindTask, KindValidate,
	KindDelay, KindFilter, KindMap, KindDate, KindNotify,
}

// KnownKind reports whether s names a recognized action kind.
func KnownKind(s string) bool {
	for _, k := range Kinds {
		if string(k) == s {
			return true
		}
	}
	return false
}

// ActionNode is one step of a trigger's sequence.
// It is a tagged union keyed by Kind: exactly one of the kind-specific option
// structs is populated (control-flow kinds carry nested sequences instead).
// Nodes are immutable once parsed and owned by the Config that produced them.
type ActionNode struct {
	Kind Kind

	// Value is the primary value from the bullet head ("kind: value").
	// Its meaning depends on Kind (pattern, url, condition, duration, ...).
	Value string

	Read      *ReadOptions
	Fetch     *FetchOptions
	Shell     *ShellOptions
	Transform *TransformOptions
	Build     *BuildOptions
	Query     *QueryOptions
	Set       *SetOptions
	Match     *MatchOptions
	Extract   *ExtractOptions
	If        *IfOptions
	Foreach   *ForeachOptions
	Append    *AppendOptions
	Task      *TaskOptions
	Validate  *ValidateOptions
	Filter    *SeqOptions
	Map       *SeqOptions
	Date      *DateOptions
	Notify    *NotifyOptions

	// OnError, when non-nil, replaces default error propagation for this
	// node: the sequence runs instead of bubbling the failure up. Failures
	// inside the handler itself still propagate.
	OnError []ActionNode
}

// ReadSource selects where the read action pulls its text from.
type ReadSource string

const (
	ReadLine      ReadSource = "line"
	ReadDocument  ReadSource = "document"
	ReadSelection ReadSource = "selection"
	ReadChildren  ReadSource = "children"
	ReadImage     ReadSource = "image"
	// A source of the form "doc:<path>" reads a cross-referenced document.
)

// ReadOptions configures the read action. Value holds the extraction pattern.
type ReadOptions struct {
	Source ReadSource `mapstructure:"from"`
	// Strip removes list bullet and checkbox decoration before matching.
	Strip bool `mapstructure:"strip"`
	// As names the variable that receives the raw source text
	// (default "source"). Extracted pattern values keep their token names.
	As string `mapstructure:"as"`
}

// AuthOptions configures one authentication scheme for fetch.
type AuthOptions struct {
	Type   string `mapstructure:"type"` // basic | bearer | apiKey
	User   string `mapstructure:"user"`
	Pass   string `mapstructure:"pass"`
	Token  string `mapstructure:"token"`
	Key    string `mapstructure:"key"`
	Header string `mapstructure:"header"` // apiKey header name, default X-Api-Key
}

// FetchOptions configures the fetch action. Value holds the URL template.
type FetchOptions struct {
	Method  string            `mapstructure:"method"`
	Headers map[string]string `mapstructure:"headers"`
	Body    string            `mapstructure:"body"`
	Auth    *AuthOptions      `mapstructure:"auth"`
	// As additionally stores the parsed response under this variable;
	// the response is always stored as "response".
	As string `mapstructure:"as"`
}

// ShellOptions configures the shell action. Value holds the command template.
type ShellOptions struct {
	Timeout string `mapstructure:"timeout"` // duration string, default 30s
	// As additionally stores the combined output under this variable.
	As string `mapstructure:"as"`
}

// TemplateLine is one generated line with its indent relative to the node
// that produced it (0 = direct child).
type TemplateLine struct {
	Text   string
	Indent int
}

// TransformOptions configures the transform action.
// Value holds the primary-line template (may be empty when only children
// are generated).
type TransformOptions struct {
	Mode      string `mapstructure:"mode"` // append | prepend | replace
	Templates []TemplateLine
}

// BuildField is one key/value pair of a build action, in document order.
type BuildField struct {
	Key   string
	Value string
}

// BuildOptions configures the build action. Value names the target variable.
type BuildOptions struct {
	Fields []BuildField
}

// QueryOptions configures the query action. Value holds the tag/identifier.
type QueryOptions struct {
	As     string `mapstructure:"as"` // default "results"
	Status string `mapstructure:"status"`
	Limit  int    `mapstructure:"limit"`
}

// SetOptions configures the set action. Value names the target variable.
type SetOptions struct {
	// Value is the template interpolated into the target variable.
	Value string `mapstructure:"value"`
	// Pattern, when set, extracts variables from Source instead; extracted
	// token names win over the target name.
	Pattern string `mapstructure:"pattern"`
	// Source is the text the pattern runs against (default current line).
	Source string `mapstructure:"from"`
}

// MatchOptions configures the match action. Value holds the pattern.
type MatchOptions struct {
	Source string `mapstructure:"from"` // template, default current line
}

// ExtractOptions configures the extract action.
// Value holds a free-form regex, optionally written as /pattern/flags.
type ExtractOptions struct {
	Source string `mapstructure:"from"`
	// As receives the first capture group when the regex has no named groups.
	As string `mapstructure:"as"`
}

// IfOptions carries the nested branches of an if action.
// Value holds the condition expression.
type IfOptions struct {
	Then []ActionNode
	Else []ActionNode
}

// ForeachOptions carries the loop configuration of a foreach action.
// Value names the array variable to iterate.
type ForeachOptions struct {
	As      string `mapstructure:"as"`    // item variable, default "item"
	IndexAs string `mapstructure:"index"` // index variable, default "index"
	Do      []ActionNode
}

// AppendOptions configures the append action. Value holds the line template.
type AppendOptions struct {
	Indent int    `mapstructure:"indent"`
	Marker string `mapstructure:"marker"` // generated-line marker, default "*"
}

// TaskOptions configures the task action. Value holds an optional child-line
// template.
type TaskOptions struct {
	Indent int    `mapstructure:"indent"`
	Marker string `mapstructure:"marker"`
	// Clear removes existing children tagged with this marker first.
	Clear string `mapstructure:"clear"`
	// Status sets the work item's status marker (done, error, ...).
	Status string `mapstructure:"status"`
}

// ValidateOptions configures the validate action. Value holds the condition.
type ValidateOptions struct {
	Message string `mapstructure:"message"`
}

// SeqOptions configures filter and map. Value names the source array.
type SeqOptions struct {
	// Where is the predicate evaluated per element (filter).
	Where string `mapstructure:"where"`
	// With is the template applied per element (map).
	With string `mapstructure:"with"`
	As   string `mapstructure:"as"` // default: overwrite the source variable
}

// DateOptions configures the date action. Value names the target variable.
type DateOptions struct {
	Format string `mapstructure:"format"` // epoch | unix | iso | date
	// Source is parsed instead of using the engine clock when set.
	Source string `mapstructure:"from"`
}

// NotifyOptions configures the notify action. Value holds the message.
type NotifyOptions struct {
	Duration string `mapstructure:"duration"`
}
