package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
)

// LegacyRule is a user-defined extractor: a command template run over the
// files it claims. Placeholders: %o output file, %F the input files, %K the
// keyword flags, %C the charset flag.
type LegacyRule struct {
	Name       string
	Extensions []string // extensions or wildcard masks, e.g. "tpl" or "*.tpl.html"
	Command    string
}

const legacyOutput = "extracted.pot"

// legacyExtractor runs one LegacyRule.
type legacyExtractor struct {
	extractorBase
	rule LegacyRule
}

// NewLegacyExtractor builds an extractor from a user rule. Entries with
// wildcard characters register as masks, plain entries as extensions.
func NewLegacyExtractor(rule LegacyRule) (Extractor, error) {
	e := &legacyExtractor{
		extractorBase: newExtractorBase("legacy-"+rule.Name, PriorityHigh),
		rule:          rule,
	}
	for _, ext := range rule.Extensions {
		if strings.ContainsAny(ext, "*?[") {
			if err := e.addWildcard(ext); err != nil {
				return nil, err
			}
			continue
		}
		e.addExtensions(ext)
	}
	if !e.hasRegistrations() {
		return nil, fmt.Errorf("legacy extractor %q registers no extensions", rule.Name)
	}
	return e, nil
}

func (e *legacyExtractor) Extract(ctx context.Context, scratchDir string, spec *SourceSpec, files []string) (*Output, error) {
	outPath := filepath.Join(scratchDir, legacyOutput)
	argv, err := e.commandLine(spec, outPath, files)
	if err != nil {
		return nil, err
	}

	res, runErr := runTool(spec.BasePath, argv)
	var diags []Diagnostic
	if res != nil {
		diags = ParseToolOutput(res.stderr, filepath.Base(argv[0]))
	}
	if runErr != nil {
		return &Output{Diagnostics: diags}, runErr
	}
	if _, err := os.Stat(outPath); err != nil {
		// Tools that found nothing may legitimately write no file.
		return &Output{Diagnostics: diags}, nil
	}
	return &Output{TemplateFile: outPath, Diagnostics: diags}, nil
}

// commandLine expands the rule's template into an argv. The template is
// tokenized first so expanded filenames never go through a shell split.
func (e *legacyExtractor) commandLine(spec *SourceSpec, outPath string, files []string) ([]string, error) {
	tokens, err := shellquote.Split(e.rule.Command)
	if err != nil {
		return nil, fmt.Errorf("parsing command of legacy extractor %q: %w", e.rule.Name, err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("legacy extractor %q has an empty command", e.rule.Name)
	}

	charset := spec.Charset
	if charset == "" {
		charset = "UTF-8"
	}

	var argv []string
	for _, tok := range tokens {
		switch tok {
		case "%F":
			for _, f := range files {
				if rel, ok := relativeTo(spec.BasePath, f); ok {
					argv = append(argv, rel)
				} else {
					argv = append(argv, f)
				}
			}
		case "%K":
			for _, kw := range spec.Keywords {
				argv = append(argv, "-k"+kw)
			}
		default:
			tok = strings.ReplaceAll(tok, "%o", outPath)
			tok = strings.ReplaceAll(tok, "%C", "--from-code="+charset)
			argv = append(argv, tok)
		}
	}
	return argv, nil
}
