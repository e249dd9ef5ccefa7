// Package questionnaire loads the read-only catalog of questions and answer
// options that clients may submit.
package questionnaire

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// ValidationError lists every problem found in a set of answers.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid answers: " + strings.Join(e.Problems, "; ")
}

// Loader loads and caches questionnaire sections from the filesystem.
type Loader struct {
	root      string
	sections  map[string]Section
	questions map[string]Question
	mu        sync.RWMutex
}

// NewLoader loads every questionnaire YAML under root. root may be a single
// file or a directory.
func NewLoader(root string) (*Loader, error) {
	l := &Loader{
		root:      root,
		sections:  make(map[string]Section),
		questions: make(map[string]Question),
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading questionnaire: %w", err)
	}
	if len(l.questions) == 0 {
		return nil, fmt.Errorf("loading questionnaire: no questions found under %s", root)
	}

	slog.Info("questionnaire loaded", "sections", len(l.sections), "questions", len(l.questions))
	return l, nil
}

// NormalizeID trims an ID and converts it to Unicode NFC so that visually
// identical IDs compare equal.
func NormalizeID(id string) string {
	return norm.NFC.String(strings.TrimSpace(id))
}

// Sections returns all loaded sections ordered by ID.
func (l *Loader) Sections() []Section {
	l.mu.RLock()
	defer l.mu.RUnlock()
	sections := make([]Section, 0, len(l.sections))
	for _, s := range l.sections {
		sections = append(sections, s)
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].ID < sections[j].ID })
	return sections
}

// Question returns a question by ID.
func (l *Loader) Question(id string) (Question, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	q, ok := l.questions[id]
	return q, ok
}

// Len returns the number of known questions.
func (l *Loader) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.questions)
}

// Validate checks that every answer names a known question and one of its
// options. It returns a *ValidationError describing all problems.
func (l *Loader) Validate(answers map[string]string) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var problems []string
	for qid, oid := range answers {
		q, ok := l.questions[qid]
		if !ok {
			problems = append(problems, fmt.Sprintf("unknown question %q", qid))
			continue
		}
		if !q.HasOption(oid) {
			problems = append(problems, fmt.Sprintf("unknown option %q for question %q", oid, qid))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return &ValidationError{Problems: problems}
}

func (l *Loader) loadAll() error {
	return filepath.Walk(l.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
			return l.loadSection(path)
		}
		return nil
	})
}

func (l *Loader) loadSection(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var section Section
	if err := yaml.Unmarshal(data, &section); err != nil {
		slog.Warn("skipping invalid questionnaire YAML", "path", path, "error", err)
		return nil
	}

	section.ID = NormalizeID(section.ID)
	if section.ID == "" {
		return nil // Not a questionnaire file
	}
	for i := range section.Questions {
		q := &section.Questions[i]
		q.ID = NormalizeID(q.ID)
		for j := range q.Options {
			q.Options[j].ID = NormalizeID(q.Options[j].ID)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.sections[section.ID]; dup {
		return fmt.Errorf("duplicate section %q in %s", section.ID, path)
	}
	for _, q := range section.Questions {
		if q.ID == "" {
			return fmt.Errorf("section %q in %s: question without id", section.ID, path)
		}
		if _, dup := l.questions[q.ID]; dup {
			return fmt.Errorf("section %q in %s: duplicate question %q", section.ID, path, q.ID)
		}
		l.questions[q.ID] = q
	}
	l.sections[section.ID] = section

	return nil
}
