package gamestate

import (
	"context"

	"github.com/mkaryagin/voxquest/internal/models"
)

// Position is the player's location in the game world.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Object is an interactive object the player can act on.
type Object struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Actions    []string       `json:"actions"`
	Properties map[string]any `json:"properties,omitempty"`
}

// NPC is a character the player can talk to.
type NPC struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	DialogOptions []string       `json:"dialog_options"`
	Properties    map[string]any `json:"properties,omitempty"`
}

// GameContext is the per-session world state that enriches prompt
// placeholders: what the player can do, touch, fight and talk to.
type GameContext struct {
	PlayerPosition Position `json:"player_position"`
	Objects        []Object `json:"available_objects"`
	NPCs           []NPC    `json:"available_npcs"`
	Commands       []string `json:"commands"`
	Interactions   []string `json:"interactions"`
	Weapons        []string `json:"weapons"`
	Targets        []string `json:"targets"`
}

// DefaultContext is the world a fresh session starts with.
func DefaultContext() *GameContext {
	return &GameContext{
		Objects: []Object{
			{
				ID: "sword_1", Name: "sword", Type: "weapon",
				Actions:    []string{"take", "use", "examine"},
				Properties: map[string]any{"damage": 10, "weight": 5},
			},
			{
				ID: "potion_1", Name: "health potion", Type: "consumable",
				Actions:    []string{"take", "use", "examine"},
				Properties: map[string]any{"health_restore": 50},
			},
			{
				ID: "door_1", Name: "wooden door", Type: "interactive",
				Actions:    []string{"open", "close", "examine", "lock", "unlock"},
				Properties: map[string]any{"locked": true},
			},
		},
		NPCs: []NPC{
			{
				ID: "merchant_1", Name: "merchant",
				DialogOptions: []string{"greet", "trade", "farewell"},
				Properties:    map[string]any{"friendly": true},
			},
			{
				ID: "guard_1", Name: "guard",
				DialogOptions: []string{"greet", "quest", "farewell"},
				Properties:    map[string]any{"friendly": true, "has_quest": true},
			},
		},
		Commands:     []string{"go", "take", "use", "examine", "talk", "attack"},
		Interactions: []string{"open", "close", "activate", "push", "pull"},
		Weapons:      []string{"sword", "bow", "staff"},
		Targets:      []string{"goblin", "troll", "dragon"},
	}
}

// Snapshot flattens the context into the lists the prompt composer
// substitutes into templates. The snapshot shares no memory with the
// context, so it stays valid after the manager releases its lock.
func (g *GameContext) Snapshot() models.ContextSnapshot {
	snap := models.ContextSnapshot{
		Commands:     append([]string(nil), g.Commands...),
		Interactions: append([]string(nil), g.Interactions...),
		Weapons:      append([]string(nil), g.Weapons...),
		Targets:      append([]string(nil), g.Targets...),
	}
	for _, obj := range g.Objects {
		snap.Objects = append(snap.Objects, obj.Name)
	}
	for _, npc := range g.NPCs {
		snap.NPCs = append(snap.NPCs, npc.Name)
		snap.DialogOptions = append(snap.DialogOptions, npc.DialogOptions...)
	}
	return snap
}

// clone returns a deep copy. The manager hands clones to callers so the
// cached context is only ever touched under the manager's lock.
func (g *GameContext) clone() *GameContext {
	out := &GameContext{
		PlayerPosition: g.PlayerPosition,
		Objects:        make([]Object, len(g.Objects)),
		NPCs:           make([]NPC, len(g.NPCs)),
		Commands:       append([]string(nil), g.Commands...),
		Interactions:   append([]string(nil), g.Interactions...),
		Weapons:        append([]string(nil), g.Weapons...),
		Targets:        append([]string(nil), g.Targets...),
	}
	for i, obj := range g.Objects {
		obj.Actions = append([]string(nil), obj.Actions...)
		obj.Properties = cloneProperties(obj.Properties)
		out.Objects[i] = obj
	}
	for i, npc := range g.NPCs {
		npc.DialogOptions = append([]string(nil), npc.DialogOptions...)
		npc.Properties = cloneProperties(npc.Properties)
		out.NPCs[i] = npc
	}
	return out
}

func cloneProperties(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

// Store persists per-session game contexts. Loading a session that does
// not exist returns the default context, not an error.
type Store interface {
	Load(ctx context.Context, sessionID string) (*GameContext, error)
	Save(ctx context.Context, sessionID string, state *GameContext) error
	Delete(ctx context.Context, sessionID string) error
	Exists(ctx context.Context, sessionID string) (bool, error)
}
