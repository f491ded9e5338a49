package catalog

import (
	"testing"
)

func TestLoad(t *testing.T) {
	reg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if reg.Router() == nil || reg.Router().Name != RouterName {
		t.Fatalf("missing router definition %q", RouterName)
	}

	wantOrder := []string{"movement_commands", "combat_commands", "dialog_commands", "object_interactions"}
	specialists := reg.Specialists()
	if len(specialists) != len(wantOrder) {
		t.Fatalf("got %d specialists, want %d", len(specialists), len(wantOrder))
	}
	for i, name := range wantOrder {
		if specialists[i].Name != name {
			t.Errorf("specialist %d: got %q, want %q", i, specialists[i].Name, name)
		}
	}
}

func TestDefinitionShape(t *testing.T) {
	reg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	for _, def := range reg.All() {
		if def.Description == "" {
			t.Errorf("%s: missing description", def.Name)
		}
		if len(def.ConfidenceGuidelines) == 0 {
			t.Errorf("%s: missing confidence guidelines", def.Name)
		}
		if !def.ResponseSchema.Has("confidence") {
			t.Errorf("%s: schema missing confidence", def.Name)
		}
		for _, lang := range []string{"en", "ru"} {
			pack, ok := def.Languages[lang]
			if !ok {
				t.Errorf("%s: missing %s keyword group", def.Name, lang)
				continue
			}
			if len(pack.Vocabulary) == 0 || len(pack.Examples) == 0 {
				t.Errorf("%s: empty %s vocabulary or examples", def.Name, lang)
			}
		}
	}

	movement, _ := reg.Get("movement_commands")
	if !movement.ResponseSchema.Has("direction") || movement.ResponseSchema.Has("target") {
		t.Errorf("movement schema should use direction, not target")
	}
	combat, _ := reg.Get("combat_commands")
	if !combat.ResponseSchema.Has("target") {
		t.Errorf("combat schema should use target")
	}
}

func TestOrderIndex(t *testing.T) {
	reg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := reg.OrderIndex("movement_commands"); got != 0 {
		t.Errorf("movement order index: got %d, want 0", got)
	}
	if got := reg.OrderIndex("combat_commands"); got != 1 {
		t.Errorf("combat order index: got %d, want 1", got)
	}
	if got := reg.OrderIndex("no_such_category"); got != len(reg.Specialists()) {
		t.Errorf("unknown category should sort last, got %d", got)
	}
}

func TestGuidelineLevelsSorted(t *testing.T) {
	def := &Definition{
		ConfidenceGuidelines: map[string]string{
			"0.9": "certain", "0.0": "none", "0.5": "maybe",
		},
	}
	levels := def.GuidelineLevels()
	want := []string{"0.0", "0.5", "0.9"}
	for i, level := range want {
		if levels[i] != level {
			t.Fatalf("levels not sorted: got %v", levels)
		}
	}
}

func TestVocabularyMatches(t *testing.T) {
	reg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	movement, _ := reg.Get("movement_commands")

	if matches := movement.VocabularyMatches("please go forward now"); len(matches) == 0 {
		t.Errorf("expected matches for movement phrase")
	}
	if matches := movement.VocabularyMatches("иди вперед"); len(matches) == 0 {
		t.Errorf("expected matches for russian movement phrase")
	}
	if matches := movement.VocabularyMatches("hello there"); len(matches) != 0 {
		t.Errorf("unexpected matches: %v", matches)
	}
}

func TestDefinitionCheck(t *testing.T) {
	base := func() *Definition {
		return &Definition{
			Name:                 "test",
			Description:          "test definition",
			ConfidenceGuidelines: map[string]string{"0.9": "sure"},
			ResponseSchema:       ResponseSchema{Fields: []string{"command", "confidence"}},
			PromptTemplate:       "say {user_command} <answer></answer>",
		}
	}

	if err := base().check(); err != nil {
		t.Fatalf("valid definition rejected: %v", err)
	}

	noConfidence := base()
	noConfidence.ResponseSchema = ResponseSchema{Fields: []string{"command"}}
	if err := noConfidence.check(); err == nil {
		t.Errorf("schema without confidence should be rejected")
	}

	missingLang := base()
	missingLang.LanguageSupport = []string{"en"}
	if err := missingLang.check(); err == nil {
		t.Errorf("declared language without keyword group should be rejected")
	}
}
