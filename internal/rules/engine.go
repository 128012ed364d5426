package rules

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Options selects which rule sets an engine is compiled from.
type Options struct {
	// Path is an optional user rules file layered after the built-in vocabulary.
	Path string
	// IterationLimit caps passes over the rule list.
	IterationLimit int
	// SkipClinical drops the built-in clinical vocabulary.
	SkipClinical bool
}

// Engine normalizes transcribed speech into clinical spelling.
type Engine struct {
	rules     []compiledRule
	loopLimit int
}

// NewEngine compiles the built-in clinical vocabulary followed by the user's
// rules file. A missing file is not an error.
func NewEngine(opts Options) (*Engine, error) {
	loopLimit := opts.IterationLimit
	if loopLimit <= 0 {
		loopLimit = 30
	}

	var compiled []compiledRule
	if !opts.SkipClinical {
		builtin, err := parseRules(clinicalVocabulary, defaultRuleParsers())
		if err != nil {
			return nil, fmt.Errorf("built-in clinical vocabulary: %w", err)
		}
		compiled = append(compiled, builtin...)
	}

	if path := strings.TrimSpace(opts.Path); path != "" {
		contents, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read rules file %q: %w", path, err)
		default:
			user, err := parseRules(string(contents), defaultRuleParsers())
			if err != nil {
				return nil, fmt.Errorf("failed to parse rules file %q: %w", path, err)
			}
			compiled = append(compiled, user...)
		}
	}

	return &Engine{rules: compiled, loopLimit: loopLimit}, nil
}

// Len reports how many rules are loaded.
func (e *Engine) Len() int {
	return len(e.rules)
}

// Apply rewrites text until no rule changes it or the iteration limit is hit.
func (e *Engine) Apply(text string) (string, error) {
	result := collapseSpaces(text)
	if len(e.rules) == 0 {
		return result, nil
	}

	for i := 0; i < e.loopLimit; i++ {
		changed := false
		for _, rule := range e.rules {
			if next, ok := rule.Apply(result); ok {
				result = next
				changed = true
			}
		}
		if !changed {
			return result, nil
		}
	}
	return result, nil
}

func collapseSpaces(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
