package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mvp-joe/msgforge/internal/extract"
	"github.com/mvp-joe/msgforge/internal/extract/scan"
	"github.com/mvp-joe/msgforge/internal/merge"
)

var (
	// ErrInvalidBehavior indicates an unknown merge behavior
	ErrInvalidBehavior = errors.New("invalid merge behavior")

	// ErrInvalidSimilarity indicates a fuzzy threshold outside (0,1]
	ErrInvalidSimilarity = errors.New("invalid similarity threshold")

	// ErrInvalidScore indicates a TM score floor outside (0,1]
	ErrInvalidScore = errors.New("invalid score floor")

	// ErrInvalidJobs indicates a negative extractor concurrency
	ErrInvalidJobs = errors.New("invalid jobs value")

	// ErrInvalidTimeout indicates a negative TM lookup budget
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidDebounce indicates a negative watch quiet period
	ErrInvalidDebounce = errors.New("invalid debounce")

	// ErrInvalidLegacyRule indicates an incomplete legacy extractor rule
	ErrInvalidLegacyRule = errors.New("invalid legacy extractor")

	// ErrInvalidMapping indicates an unusable file mask mapping
	ErrInvalidMapping = errors.New("invalid mapping")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateExtract(&cfg.Extract); err != nil {
		errs = append(errs, err)
	}
	if err := validateMerge(&cfg.Merge); err != nil {
		errs = append(errs, err)
	}
	if err := validateTM(&cfg.TM); err != nil {
		errs = append(errs, err)
	}
	if err := validateWatch(&cfg.Watch); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateExtract(cfg *ExtractConfig) error {
	var errs []error

	if cfg.Jobs < 0 {
		errs = append(errs, fmt.Errorf("%w: jobs cannot be negative, got %d", ErrInvalidJobs, cfg.Jobs))
	}

	for i, rule := range cfg.Legacy {
		name := rule.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}
		if strings.TrimSpace(rule.Name) == "" {
			errs = append(errs, fmt.Errorf("%w %s: name is required", ErrInvalidLegacyRule, name))
		}
		if strings.TrimSpace(rule.Command) == "" {
			errs = append(errs, fmt.Errorf("%w %s: command is required", ErrInvalidLegacyRule, name))
		}
		if len(rule.Extensions) == 0 {
			errs = append(errs, fmt.Errorf("%w %s: at least one extension required", ErrInvalidLegacyRule, name))
		}
	}

	for _, m := range cfg.Mappings {
		if strings.TrimSpace(m.Mask) == "" {
			errs = append(errs, fmt.Errorf("%w: mask is required", ErrInvalidMapping))
			continue
		}
		mapping := extract.TypeMapping{Mask: m.Mask, Target: m.Target}
		switch mapping.Engine() {
		case "gettext":
			if strings.TrimSpace(mapping.Lang()) == "" {
				errs = append(errs, fmt.Errorf("%w %q: gettext target needs a language", ErrInvalidMapping, m.Mask))
			}
		case "scan":
			if !scan.Supported(mapping.Lang()) {
				errs = append(errs, fmt.Errorf("%w %q: no embedded scanner for %q (valid: %s)",
					ErrInvalidMapping, m.Mask, mapping.Lang(), strings.Join(scan.Languages(), ", ")))
			}
		default:
			errs = append(errs, fmt.Errorf("%w %q: target must be gettext:<lang> or scan:<lang>, got %q",
				ErrInvalidMapping, m.Mask, m.Target))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateMerge(cfg *MergeConfig) error {
	var errs []error

	if _, err := merge.ParseBehavior(cfg.Behavior); err != nil {
		errs = append(errs, fmt.Errorf("%w: must be 'none', 'fuzzy' or 'tm', got '%s'", ErrInvalidBehavior, cfg.Behavior))
	}

	if cfg.MinSimilarity <= 0 || cfg.MinSimilarity > 1 {
		errs = append(errs, fmt.Errorf("%w: min_similarity must be in (0,1], got %g", ErrInvalidSimilarity, cfg.MinSimilarity))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateTM(cfg *TMConfig) error {
	var errs []error

	if cfg.MinScore <= 0 || cfg.MinScore > 1 {
		errs = append(errs, fmt.Errorf("%w: min_score must be in (0,1], got %g", ErrInvalidScore, cfg.MinScore))
	}

	// Zero means the library default applies.
	if cfg.TimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("%w: timeout_ms cannot be negative, got %d", ErrInvalidTimeout, cfg.TimeoutMS))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateWatch(cfg *WatchConfig) error {
	if cfg.DebounceMS < 0 {
		return fmt.Errorf("%w: debounce_ms cannot be negative, got %d", ErrInvalidDebounce, cfg.DebounceMS)
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
