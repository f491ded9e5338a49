package models

// Canonical action values. Specialists translate the extracted action to
// English, so the game engine can match against these regardless of the
// input language.
const (
	ActionMove    = "move"
	ActionAttack  = "attack"
	ActionTalk    = "talk"
	ActionTake    = "take"
	ActionUse     = "use"
	ActionOpen    = "open"
	ActionClose   = "close"
	ActionExamine = "examine"
)

// Direction values for movement commands.
const (
	DirectionForward  = "forward"
	DirectionBackward = "backward"
	DirectionLeft     = "left"
	DirectionRight    = "right"
	DirectionUp       = "up"
	DirectionDown     = "down"
)

// Command is the structured command extracted by a specialist stage.
// Action is always translated to English regardless of input language.
type Command struct {
	Action     string         `json:"command"`
	Direction  *string        `json:"direction,omitempty"`
	Target     *string        `json:"target,omitempty"`
	Parameters map[string]any `json:"parameters"`
	Confidence float64        `json:"confidence"`
}

// RouteDecision is the outcome of the routing stage: which specialist
// category the command belongs to and how sure the model is about it.
type RouteDecision struct {
	Category     string   `json:"command_type"`
	Confidence   float64  `json:"confidence"`
	Alternatives []string `json:"alternative_types,omitempty"`
	Explanation  string   `json:"explanation,omitempty"`
}

// RecognitionResult is what the caller gets back for every request,
// recognized or not. It is always well formed; pipeline failures are
// reported through Reason instead of an error.
type RecognitionResult struct {
	Recognized            bool     `json:"recognized"`
	Category              string   `json:"category,omitempty"`
	Command               *Command `json:"command,omitempty"`
	Confidence            float64  `json:"confidence"`
	Reason                string   `json:"reason,omitempty"`
	Explanation           string   `json:"explanation,omitempty"`
	AlternativeCategories []string `json:"alternative_categories,omitempty"`
}

// Reason codes for unrecognized results.
const (
	ReasonEmptyInput           = "empty_input"
	ReasonNotACommand          = "not_a_command"
	ReasonLowRoutingConfidence = "low_routing_confidence"
	ReasonUnknownCategory      = "unknown_category"
	ReasonLowConfidence        = "low_confidence"
	ReasonRoutingFailed        = "routing_failed"
	ReasonDispatchFailed       = "dispatch_failed"
	ReasonBackendUnavailable   = "backend_unavailable"
)

// ContextSnapshot carries the session game state lists that feed prompt
// placeholders. Empty lists fall back to per-list defaults at compose time.
type ContextSnapshot struct {
	Commands      []string `json:"commands"`
	Objects       []string `json:"objects"`
	Interactions  []string `json:"interactions"`
	Weapons       []string `json:"weapons"`
	Targets       []string `json:"targets"`
	NPCs          []string `json:"npcs"`
	DialogOptions []string `json:"dialog_options"`
}

// RecognizeRequest is the wire format shared by the NATS and HTTP
// transports.
type RecognizeRequest struct {
	SessionID string           `json:"session_id,omitempty"`
	Text      string           `json:"text"`
	GameState *ContextSnapshot `json:"game_state,omitempty"`
}
