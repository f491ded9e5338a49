package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mkaryagin/voxquest/internal/catalog"
	"github.com/mkaryagin/voxquest/internal/extract"
	"github.com/mkaryagin/voxquest/internal/models"
)

// TemplateError reports a prompt template referencing a placeholder with
// no matching field. It is a configuration error: Validate surfaces it at
// startup so a bad catalog file can never produce a silently broken prompt
// at request time.
type TemplateError struct {
	Definition  string
	Placeholder string
	Detail      string
}

func (e *TemplateError) Error() string {
	if e.Placeholder != "" {
		return fmt.Sprintf("template %s: unresolved placeholder {%s}", e.Definition, e.Placeholder)
	}
	return fmt.Sprintf("template %s: %s", e.Definition, e.Detail)
}

// placeholderRe matches {snake_case} placeholder tokens. JSON examples
// embedded in templates never match because their braces are followed by
// quotes, not letters.
var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// Game-context placeholders and their defaults when the session state has
// nothing for them. Defaults mirror the worlds the prompts were tuned on.
var contextDefaults = map[string]string{
	"commands":       "move, interact, attack, talk",
	"objects":        "door, key, book, chest",
	"interactions":   "open, close, take, use, examine",
	"weapons":        "sword, bow, axe",
	"targets":        "enemy, monster, target",
	"npcs":           "merchant, guard, villager",
	"dialog_options": "greet, ask, buy, sell",
}

// Composer renders intent definitions into completion prompts.
type Composer struct {
	registry *catalog.Registry
}

func NewComposer(registry *catalog.Registry) *Composer {
	return &Composer{registry: registry}
}

// Compose substitutes every placeholder in the definition's template with
// the definition's fields, the session game context and the user command.
func (c *Composer) Compose(def *catalog.Definition, userCommand string, gctx models.ContextSnapshot) (string, error) {
	vars := c.vars(def, userCommand, gctx)

	var unresolved string
	out := placeholderRe.ReplaceAllStringFunc(def.PromptTemplate, func(tok string) string {
		name := tok[1 : len(tok)-1]
		v, ok := vars[name]
		if !ok {
			if unresolved == "" {
				unresolved = name
			}
			return tok
		}
		return v
	})
	if unresolved != "" {
		return "", &TemplateError{Definition: def.Name, Placeholder: unresolved}
	}
	return out, nil
}

func (c *Composer) vars(def *catalog.Definition, userCommand string, gctx models.ContextSnapshot) map[string]string {
	vars := map[string]string{
		"user_command":          userCommand,
		"description":           def.Description,
		"vocabulary":            joinVocabulary(def),
		"examples":              joinExamples(def),
		"confidence_guidelines": joinGuidelines(def),
		"categories":            c.categorySummary(),
	}

	lists := map[string][]string{
		"commands":       gctx.Commands,
		"objects":        gctx.Objects,
		"interactions":   gctx.Interactions,
		"weapons":        gctx.Weapons,
		"targets":        gctx.Targets,
		"npcs":           gctx.NPCs,
		"dialog_options": gctx.DialogOptions,
	}
	for name, values := range lists {
		if len(values) > 0 {
			vars[name] = strings.Join(values, ", ")
		} else {
			vars[name] = contextDefaults[name]
		}
	}
	return vars
}

func joinVocabulary(def *catalog.Definition) string {
	var words []string
	for _, lang := range def.LanguageSupport {
		words = append(words, def.Languages[lang].Vocabulary...)
	}
	return strings.Join(words, ", ")
}

func joinExamples(def *catalog.Definition) string {
	var lines []string
	for _, lang := range def.LanguageSupport {
		for _, ex := range def.Languages[lang].Examples {
			lines = append(lines, fmt.Sprintf("- %q", ex))
		}
	}
	return strings.Join(lines, "\n")
}

func joinGuidelines(def *catalog.Definition) string {
	var lines []string
	for _, level := range def.GuidelineLevels() {
		lines = append(lines, fmt.Sprintf("%s: %s", level, def.ConfidenceGuidelines[level]))
	}
	return strings.Join(lines, "\n")
}

func (c *Composer) categorySummary() string {
	var lines []string
	for _, def := range c.registry.Specialists() {
		lines = append(lines, fmt.Sprintf("- %s: %s", def.Name, def.Description))
	}
	return strings.Join(lines, "\n")
}

// Validate runs the startup validation pass over every loaded definition:
// each placeholder must resolve, and each template must carry the answer
// delimiter contract shared with the extractor.
func (c *Composer) Validate() error {
	for _, def := range c.registry.All() {
		if err := c.ValidateDefinition(def); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDefinition checks a single definition's template against the
// placeholder contract.
func (c *Composer) ValidateDefinition(def *catalog.Definition) error {
	vars := c.vars(def, "", models.ContextSnapshot{})
	for _, m := range placeholderRe.FindAllStringSubmatch(def.PromptTemplate, -1) {
		if _, ok := vars[m[1]]; !ok {
			return &TemplateError{Definition: def.Name, Placeholder: m[1]}
		}
	}
	lowered := strings.ToLower(def.PromptTemplate)
	if !strings.Contains(lowered, extract.AnswerOpenTag) || !strings.Contains(lowered, extract.AnswerCloseTag) {
		return &TemplateError{Definition: def.Name, Detail: "missing answer delimiter instruction"}
	}
	return nil
}
