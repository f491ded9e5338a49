package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

//go:embed definitions/*.json
var definitionFiles embed.FS

// RouterName is the base definition driving the routing stage.
const RouterName = "base_commands"

// specialistOrder fixes the declaration order of the catalog. It is the
// deterministic tie-break order when the router reports equal-confidence
// alternatives.
var specialistOrder = []string{
	"movement_commands",
	"combat_commands",
	"dialog_commands",
	"object_interactions",
}

// LanguagePack holds the localized keyword and example groups of one
// definition.
type LanguagePack struct {
	Vocabulary []string `json:"vocabulary"`
	Examples   []string `json:"examples"`
}

// ResponseSchema names the fields the model is asked to emit for a
// category. The extractor validates replies against it.
type ResponseSchema struct {
	Fields []string `json:"fields"`
}

// Has reports whether the schema declares the given field.
func (s ResponseSchema) Has(field string) bool {
	for _, f := range s.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Definition is one intent category loaded from a prompt definition file.
// Definitions are immutable after Load.
type Definition struct {
	Name                 string                  `json:"name"`
	Description          string                  `json:"description"`
	Version              string                  `json:"version"`
	LanguageSupport      []string                `json:"language_support"`
	ConfidenceGuidelines map[string]string       `json:"confidence_guidelines"`
	Languages            map[string]LanguagePack `json:"languages"`
	ResponseSchema       ResponseSchema          `json:"response_schema"`
	PromptTemplate       string                  `json:"prompt_template"`
}

// GuidelineLevels returns the confidence levels of the rubric in ascending
// order, so the rendered prompt is stable across runs.
func (d *Definition) GuidelineLevels() []string {
	levels := make([]string, 0, len(d.ConfidenceGuidelines))
	for level := range d.ConfidenceGuidelines {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	return levels
}

// VocabularyMatches returns the vocabulary keywords found in text, across
// all languages. This is a fallback heuristic for diagnostics only; the
// model's category decision is authoritative.
func (d *Definition) VocabularyMatches(text string) []string {
	lowered := strings.ToLower(text)
	var matches []string
	for _, lang := range d.LanguageSupport {
		pack, ok := d.Languages[lang]
		if !ok {
			continue
		}
		for _, word := range pack.Vocabulary {
			if strings.Contains(lowered, strings.ToLower(word)) {
				matches = append(matches, word)
			}
		}
	}
	return matches
}

// Registry is the immutable, process-wide intent catalog: the router
// definition plus the specialists in declaration order.
type Registry struct {
	router      *Definition
	specialists []*Definition
	byName      map[string]*Definition
}

// Load reads every embedded definition file and assembles the registry.
// A missing router or specialist, or a structurally broken file, is a
// startup error.
func Load() (*Registry, error) {
	entries, err := definitionFiles.ReadDir("definitions")
	if err != nil {
		return nil, fmt.Errorf("read definitions dir: %w", err)
	}

	byName := make(map[string]*Definition, len(entries))
	for _, entry := range entries {
		data, err := definitionFiles.ReadFile("definitions/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		var def Definition
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		if err := def.check(); err != nil {
			return nil, fmt.Errorf("definition %s: %w", entry.Name(), err)
		}
		if _, dup := byName[def.Name]; dup {
			return nil, fmt.Errorf("duplicate definition %q", def.Name)
		}
		byName[def.Name] = &def
	}

	router, ok := byName[RouterName]
	if !ok {
		return nil, fmt.Errorf("missing router definition %q", RouterName)
	}

	specialists := make([]*Definition, 0, len(specialistOrder))
	for _, name := range specialistOrder {
		def, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("missing specialist definition %q", name)
		}
		specialists = append(specialists, def)
	}

	return &Registry{
		router:      router,
		specialists: specialists,
		byName:      byName,
	}, nil
}

func (d *Definition) check() error {
	if d.Name == "" {
		return fmt.Errorf("missing name")
	}
	if d.Description == "" {
		return fmt.Errorf("missing description")
	}
	if len(d.ConfidenceGuidelines) == 0 {
		return fmt.Errorf("missing confidence_guidelines")
	}
	if d.PromptTemplate == "" {
		return fmt.Errorf("missing prompt_template")
	}
	if len(d.ResponseSchema.Fields) == 0 {
		return fmt.Errorf("missing response_schema")
	}
	if !d.ResponseSchema.Has("confidence") {
		return fmt.Errorf("response_schema must include confidence")
	}
	for _, lang := range d.LanguageSupport {
		if _, ok := d.Languages[lang]; !ok {
			return fmt.Errorf("declared language %q has no keyword group", lang)
		}
	}
	return nil
}

// Router returns the base routing definition.
func (r *Registry) Router() *Definition { return r.router }

// Specialists returns the specialist definitions in declaration order.
func (r *Registry) Specialists() []*Definition { return r.specialists }

// Get looks up a definition by category name.
func (r *Registry) Get(name string) (*Definition, bool) {
	def, ok := r.byName[name]
	return def, ok
}

// All returns every definition, router included.
func (r *Registry) All() []*Definition {
	all := make([]*Definition, 0, len(r.specialists)+1)
	all = append(all, r.router)
	all = append(all, r.specialists...)
	return all
}

// OrderIndex returns the declaration-order position of a specialist, used
// to break confidence ties deterministically. Unknown categories sort last.
func (r *Registry) OrderIndex(name string) int {
	for i, def := range r.specialists {
		if def.Name == name {
			return i
		}
	}
	return len(r.specialists)
}
