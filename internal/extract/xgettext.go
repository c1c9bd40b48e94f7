package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Extensions handled by xgettext across all supported versions. "C" vs "c"
// matters: extension matching is case-sensitive.
var xgettextExtensions = []string{
	"appdata.xml", // AppData
	"awk", "gawk", "twjr", // awk
	"c", "h", // C
	"C", "c++", "cc", "cxx", "cpp", "hh", "hxx", "hpp", // C++
	"m",       // ObjectiveC
	"cs",      // C#
	"desktop", // desktop entries
	"el",      // EmacsLisp
	"glade", "glade2", "ui", // glade
	"gschema.xml", // GSettings
	"java",        // Java
	"js", "jsx",   // JavaScript
	"jl",   // librep
	"lisp", // Lisp
	"lua",  // Lua
	"pl", "PL", "pm", "perl", // perl
	"php", "php3", "php4", // PHP
	"py",   // Python
	"scm",  // Scheme
	"st",   // Smalltalk
	"tcl",  // Tcl
	"vala", // Vala
	"ycp",  // YCP
}

const (
	xgettextFileList = "gettext_filelist.txt"
	xgettextOutput   = "gettext.pot"
)

// xgettextExtractor drives GNU xgettext over its file partition. The
// standard instance (lang "") covers everything xgettext recognizes by
// extension; instances with a language force it via "-L".
type xgettextExtractor struct {
	extractorBase
	tools *Tools
	lang  string
}

// NewXGettextExtractor returns the standard xgettext extractor at default
// priority, with the extension set gated on the installed tool version.
func NewXGettextExtractor(tools *Tools) Extractor {
	e := &xgettextExtractor{
		extractorBase: newExtractorBase("gettext", PriorityDefault),
		tools:         tools,
	}
	e.addExtensions(xgettextExtensions...)
	if tools.Version.AtLeast(0, 24, 0) {
		e.addExtensions("rs")
	}
	if tools.Version.AtLeast(0, 25, 0) {
		e.addExtensions("d", "go", "ts", "tsx")
	}
	return e
}

// NewCustomXGettextExtractor returns an xgettext extractor that forces the
// given language. Callers register extensions or wildcards on top.
func NewCustomXGettextExtractor(tools *Tools, lang string, priority Priority) *xgettextExtractor {
	return &xgettextExtractor{
		extractorBase: newExtractorBase("gettext-"+lang, priority),
		tools:         tools,
		lang:          lang,
	}
}

// NewPHPTemplateExtractor covers the nonstandard PHP template extensions
// that xgettext does not associate with PHP on its own.
func NewPHPTemplateExtractor(tools *Tools) Extractor {
	e := NewCustomXGettextExtractor(tools, "php", PrioritySpecializedDefault)
	e.addExtensions("phtml") // Zend Framework
	e.addExtensions("ctp")   // CakePHP
	return e
}

func (e *xgettextExtractor) Extract(ctx context.Context, scratchDir string, spec *SourceSpec, files []string) (*Output, error) {
	listPath := filepath.Join(scratchDir, xgettextFileList)
	if err := writeFileList(listPath, spec.BasePath, files); err != nil {
		return nil, err
	}
	outPath := filepath.Join(scratchDir, xgettextOutput)

	argv, err := e.commandLine(spec, outPath, listPath)
	if err != nil {
		return nil, err
	}

	res, runErr := runTool(spec.BasePath, argv)
	var diags []Diagnostic
	if res != nil {
		diags = ParseToolOutput(res.stderr, "xgettext")
	}
	if runErr != nil {
		return &Output{Diagnostics: diags}, runErr
	}
	if _, err := os.Stat(outPath); err != nil {
		return &Output{Diagnostics: diags}, fmt.Errorf("xgettext produced no output file: %w", err)
	}
	return &Output{TemplateFile: outPath, Diagnostics: diags}, nil
}

// commandLine builds the xgettext argv for one invocation. Flag order
// matters only for readability of logged commands; it is kept stable.
func (e *xgettextExtractor) commandLine(spec *SourceSpec, outPath, listPath string) ([]string, error) {
	charset := spec.Charset
	if charset == "" {
		charset = "UTF-8"
	}

	argv := []string{
		e.tools.XGettext,
		"--force-po",
		"-o", outPath,
		"--directory=" + spec.BasePath,
		"--files-from=" + listPath,
		"--from-code=" + charset,
	}
	if e.tools.Version.AtLeast(0, 25, 0) {
		// don't consider the mtime of the temporary file list
		argv = append(argv, "--generated="+listPath)
	}
	if e.tools.Version.AtLeast(0, 24, 1) {
		argv = append(argv, "--no-git")
	}
	if e.lang != "" {
		argv = append(argv, "-L", e.lang)
	}
	for _, kw := range spec.Keywords {
		argv = append(argv, "-k"+kw)
	}

	if !strings.Contains(spec.XgettextFlags, "--add-comments") {
		argv = append(argv, "--add-comments=TRANSLATORS:")
	}
	if spec.XgettextFlags != "" {
		extra, err := shellquote.Split(spec.XgettextFlags)
		if err != nil {
			return nil, fmt.Errorf("parsing xgettext flags header: %w", err)
		}
		argv = append(argv, extra...)
	}
	return argv, nil
}

// writeFileList writes one path per line, relative to base where possible
// so the template's reference comments stay tree-relative.
func writeFileList(path, base string, files []string) error {
	var b strings.Builder
	for _, f := range files {
		if rel, ok := relativeTo(base, f); ok {
			b.WriteString(rel)
		} else {
			b.WriteString(filepath.ToSlash(f))
		}
		b.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing file list: %w", err)
	}
	return nil
}
