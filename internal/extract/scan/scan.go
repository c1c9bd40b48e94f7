// Package scan extracts translatable strings from source files using
// embedded tree-sitter grammars. It covers the languages the external
// gettext toolchain handles least portably and serves as the fallback when
// that toolchain is not installed.
package scan

import (
	"fmt"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Keyword is a marker identifying a translatable call, with 1-based
// argument positions. Zero positions mean absent.
type Keyword struct {
	Name        string
	SingularArg int
	PluralArg   int
	ContextArg  int
}

// Message is one extracted string occurrence.
type Message struct {
	ID       string
	PluralID string
	Context  string
	File     string
	Line     int
	Comment  string // preceding TRANSLATORS comment, if any
}

// grammar wires a language name to its binding and walk rules.
type grammar struct {
	language func() *sitter.Language
	rules    rules
}

type rules struct {
	callKinds   map[string]bool // call-expression node kinds
	macroKinds  map[string]bool // macro invocations treated like calls
	funcFields  []string        // candidate field names for the callee
	stringKinds map[string]bool // string-literal node kinds
	concatKinds map[string]bool // adjacent-literal concatenation nodes
	rejectKinds map[string]bool // children that mark interpolation
}

var grammars = map[string]grammar{
	"c": {
		language: func() *sitter.Language { return sitter.NewLanguage(c.Language()) },
		rules: rules{
			callKinds:   set("call_expression"),
			funcFields:  []string{"function"},
			stringKinds: set("string_literal"),
			concatKinds: set("concatenated_string"),
			rejectKinds: set(),
		},
	},
	"python": {
		language: func() *sitter.Language { return sitter.NewLanguage(python.Language()) },
		rules: rules{
			callKinds:   set("call"),
			funcFields:  []string{"function"},
			stringKinds: set("string"),
			concatKinds: set("concatenated_string"),
			rejectKinds: set("interpolation"),
		},
	},
	"php": {
		language: func() *sitter.Language { return sitter.NewLanguage(php.LanguagePHP()) },
		rules: rules{
			callKinds:   set("function_call_expression", "member_call_expression", "scoped_call_expression"),
			funcFields:  []string{"function", "name"},
			stringKinds: set("string", "encapsed_string"),
			rejectKinds: set("interpolation", "variable_name"),
		},
	},
	"ruby": {
		language: func() *sitter.Language { return sitter.NewLanguage(ruby.Language()) },
		rules: rules{
			callKinds:   set("call"),
			funcFields:  []string{"method"},
			stringKinds: set("string"),
			rejectKinds: set("interpolation"),
		},
	},
	"rust": {
		language: func() *sitter.Language { return sitter.NewLanguage(rust.Language()) },
		rules: rules{
			callKinds:   set("call_expression"),
			macroKinds:  set("macro_invocation"),
			funcFields:  []string{"function", "macro"},
			stringKinds: set("string_literal", "raw_string_literal"),
			rejectKinds: set(),
		},
	},
	"java": {
		language: func() *sitter.Language { return sitter.NewLanguage(java.Language()) },
		rules: rules{
			callKinds:   set("method_invocation"),
			funcFields:  []string{"name"},
			stringKinds: set("string_literal"),
			rejectKinds: set(),
		},
	},
	"typescript": {
		language: func() *sitter.Language { return sitter.NewLanguage(typescript.LanguageTypescript()) },
		rules: rules{
			callKinds:   set("call_expression"),
			funcFields:  []string{"function"},
			stringKinds: set("string", "template_string"),
			rejectKinds: set("template_substitution"),
		},
	},
	"tsx": {
		language: func() *sitter.Language { return sitter.NewLanguage(typescript.LanguageTSX()) },
		rules: rules{
			callKinds:   set("call_expression"),
			funcFields:  []string{"function"},
			stringKinds: set("string", "template_string"),
			rejectKinds: set("template_substitution"),
		},
	},
}

func init() {
	// JavaScript parses fine with the TypeScript grammar; JSX with TSX.
	grammars["javascript"] = grammars["typescript"]
	grammars["jsx"] = grammars["tsx"]
}

func set(kinds ...string) map[string]bool {
	m := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}

// Supported reports whether a scanner grammar exists for the language.
func Supported(lang string) bool {
	_, ok := grammars[lang]
	return ok
}

// Languages returns the supported language names, sorted.
func Languages() []string {
	names := make([]string, 0, len(grammars))
	for name := range grammars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scanner scans source files of one language for translatable strings.
// A Scanner is safe for sequential reuse across files; it is not
// goroutine-safe.
type Scanner struct {
	lang     string
	language *sitter.Language
	rules    rules
}

// New returns a scanner for the named language.
func New(lang string) (*Scanner, error) {
	g, ok := grammars[lang]
	if !ok {
		return nil, fmt.Errorf("no scanner grammar for language %q", lang)
	}
	return &Scanner{lang: lang, language: g.language(), rules: g.rules}, nil
}

// Lang returns the scanner's language name.
func (s *Scanner) Lang() string {
	return s.lang
}

// ScanFile parses source and returns every keyword match in tree order.
// file is recorded into the messages' location field as given.
func (s *Scanner) ScanFile(file string, source []byte, keywords []Keyword) ([]Message, error) {
	index := make(map[string][]Keyword, len(keywords))
	for _, kw := range keywords {
		if kw.Name != "" {
			index[kw.Name] = append(index[kw.Name], kw)
		}
	}
	if len(index) == 0 {
		return nil, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(s.language)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s file: %s", s.lang, file)
	}
	defer tree.Close()

	w := &walker{scanner: s, source: source, file: file, index: index}
	w.walk(tree.RootNode())
	return w.messages, nil
}

// walker carries per-file scan state.
type walker struct {
	scanner  *Scanner
	source   []byte
	file     string
	index    map[string][]Keyword
	messages []Message

	lastComment     string
	lastCommentLine int
}

func (w *walker) walk(node *sitter.Node) {
	if node == nil {
		return
	}

	kind := node.Kind()
	switch {
	case kind == "comment" || kind == "line_comment" || kind == "block_comment":
		w.lastComment = nodeText(node, w.source)
		w.lastCommentLine = int(node.EndPosition().Row) + 1
	case w.scanner.rules.callKinds[kind]:
		w.visitCall(node, false)
	case w.scanner.rules.macroKinds[kind]:
		w.visitCall(node, true)
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		w.walk(node.Child(uint(i)))
	}
}

func (w *walker) visitCall(node *sitter.Node, macro bool) {
	name := w.calleeName(node)
	if macro {
		name = strings.TrimSuffix(name, "!")
	}
	kws, ok := w.index[name]
	if !ok {
		return
	}

	args := w.callArguments(node, macro)
	if len(args) == 0 {
		return
	}

	for _, kw := range kws {
		msg, ok := w.buildMessage(kw, args)
		if !ok {
			continue
		}
		msg.File = w.file
		msg.Line = int(node.StartPosition().Row) + 1
		if w.lastComment != "" && w.lastCommentLine >= msg.Line-2 && strings.Contains(w.lastComment, "TRANSLATORS") {
			msg.Comment = cleanComment(w.lastComment)
		}
		w.messages = append(w.messages, msg)
		return
	}
}

func (w *walker) buildMessage(kw Keyword, args []*sitter.Node) (Message, bool) {
	var msg Message
	singularPos := kw.SingularArg
	if singularPos == 0 {
		singularPos = 1
	}
	id, ok := w.literal(argAt(args, singularPos))
	if !ok || id == "" {
		return msg, false
	}
	msg.ID = id
	if kw.PluralArg > 0 {
		if plural, ok := w.literal(argAt(args, kw.PluralArg)); ok {
			msg.PluralID = plural
		}
	}
	if kw.ContextArg > 0 {
		if ctx, ok := w.literal(argAt(args, kw.ContextArg)); ok {
			msg.Context = ctx
		}
	}
	return msg, true
}

// calleeName returns the unqualified name of the called function:
// "i18n.gettext" and "I18n::_" both reduce to their last segment.
func (w *walker) calleeName(node *sitter.Node) string {
	var fn *sitter.Node
	for _, field := range w.scanner.rules.funcFields {
		if fn = node.ChildByFieldName(field); fn != nil {
			break
		}
	}
	if fn == nil {
		return ""
	}
	name := nodeText(fn, w.source)
	for _, sep := range []string{"->", "::", "."} {
		if i := strings.LastIndex(name, sep); i >= 0 {
			name = name[i+len(sep):]
		}
	}
	return strings.TrimSpace(name)
}

// callArguments returns the positional argument nodes of a call, skipping
// punctuation. Macro invocations take the named children of their token
// tree instead.
func (w *walker) callArguments(node *sitter.Node, macro bool) []*sitter.Node {
	var argsNode *sitter.Node
	if macro {
		for i := 0; i < int(node.ChildCount()); i++ {
			if child := node.Child(uint(i)); child != nil && child.Kind() == "token_tree" {
				argsNode = child
				break
			}
		}
	} else {
		argsNode = node.ChildByFieldName("arguments")
	}
	if argsNode == nil {
		return nil
	}

	var args []*sitter.Node
	for i := 0; i < int(argsNode.ChildCount()); i++ {
		child := argsNode.Child(uint(i))
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "(", ")", ",", "[", "]", "{", "}", "comment":
			continue
		case "argument":
			// PHP wraps each argument; unwrap to the expression inside.
			if inner := firstExpressionChild(child); inner != nil {
				args = append(args, inner)
			}
		default:
			args = append(args, child)
		}
	}
	return args
}

func firstExpressionChild(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "(", ")", ",", ":", "name":
			continue
		}
		return child
	}
	return nil
}

func argAt(args []*sitter.Node, pos int) *sitter.Node {
	if pos < 1 || pos > len(args) {
		return nil
	}
	return args[pos-1]
}

func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// cleanComment strips comment markers and trims, keeping the part from
// "TRANSLATORS" on when present.
func cleanComment(text string) string {
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "//")
		line = strings.TrimPrefix(line, "#")
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	joined := strings.Join(out, " ")
	if i := strings.Index(joined, "TRANSLATORS"); i > 0 {
		joined = joined[i:]
	}
	return joined
}
