package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaryagin/voxquest/internal/catalog"
)

var (
	routerSchema = catalog.ResponseSchema{
		Fields: []string{"command_type", "confidence", "alternative_types", "explanation"},
	}
	movementSchema = catalog.ResponseSchema{
		Fields: []string{"command", "direction", "parameters", "confidence"},
	}
)

func TestExtractWellFormed(t *testing.T) {
	reply := `Sure, here is the analysis.
<answer>
{"command": "move", "direction": "forward", "parameters": {"distance": 1}, "confidence": 0.9}
</answer>
Anything else?`

	a, err := Extract(reply, movementSchema)
	require.NoError(t, err)
	require.False(t, a.Null)
	assert.Equal(t, 0.9, a.Confidence)

	cmd := a.Command()
	assert.Equal(t, "move", cmd.Action)
	require.NotNil(t, cmd.Direction)
	assert.Equal(t, "forward", *cmd.Direction)
	assert.Nil(t, cmd.Target)
	assert.Equal(t, float64(1), cmd.Parameters["distance"])
}

func TestExtractNoDelimiter(t *testing.T) {
	_, err := Extract(`{"command": "move", "confidence": 0.9}`, movementSchema)
	assert.ErrorIs(t, err, ErrNoAnswerDelimiter)
	assert.NotErrorIs(t, err, ErrSchemaMismatch)
}

func TestExtractTagTolerance(t *testing.T) {
	t.Run("case variation", func(t *testing.T) {
		a, err := Extract(`<ANSWER>{"command": "move", "confidence": 0.7}</Answer>`, movementSchema)
		require.NoError(t, err)
		assert.Equal(t, 0.7, a.Confidence)
	})

	t.Run("surrounding whitespace", func(t *testing.T) {
		a, err := Extract("  <answer>\n\n  {\"command\": \"move\", \"confidence\": 0.7}\n  </answer>  ", movementSchema)
		require.NoError(t, err)
		assert.False(t, a.Null)
	})

	t.Run("first block wins", func(t *testing.T) {
		reply := `<answer>{"command": "move", "confidence": 0.8}</answer> and later <answer>{"command": "run", "confidence": 0.1}</answer>`
		a, err := Extract(reply, movementSchema)
		require.NoError(t, err)
		assert.Equal(t, "move", a.Command().Action)
	})
}

func TestExtractNullAnswer(t *testing.T) {
	a, err := Extract(`<answer>null</answer>`, movementSchema)
	require.NoError(t, err)
	assert.True(t, a.Null)
	assert.Nil(t, a.Command())
}

func TestExtractMalformedJSON(t *testing.T) {
	_, err := Extract(`<answer>{"command": "move", "confidence": oops}</answer>`, movementSchema)
	assert.ErrorIs(t, err, ErrMalformedJSON)
}

func TestExtractRepair(t *testing.T) {
	t.Run("trailing comma", func(t *testing.T) {
		a, err := Extract(`<answer>{"command": "move", "direction": "left", "confidence": 0.8,}</answer>`, movementSchema)
		require.NoError(t, err)
		assert.Equal(t, "move", a.Command().Action)
	})

	t.Run("code fence", func(t *testing.T) {
		reply := "<answer>\n```json\n{\"command\": \"move\", \"confidence\": 0.8}\n```\n</answer>"
		a, err := Extract(reply, movementSchema)
		require.NoError(t, err)
		assert.Equal(t, 0.8, a.Confidence)
	})
}

func TestExtractSchemaMismatch(t *testing.T) {
	t.Run("not an object", func(t *testing.T) {
		_, err := Extract(`<answer>["move", "forward"]</answer>`, movementSchema)
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	})

	t.Run("missing command", func(t *testing.T) {
		_, err := Extract(`<answer>{"direction": "forward", "confidence": 0.9}</answer>`, movementSchema)
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	})

	t.Run("missing command_type for router", func(t *testing.T) {
		_, err := Extract(`<answer>{"confidence": 0.9}</answer>`, routerSchema)
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	})
}

func TestExtractConfidenceClamping(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  float64
	}{
		{"above range", `<answer>{"command": "move", "confidence": 1.7}</answer>`, 1.0},
		{"below range", `<answer>{"command": "move", "confidence": -0.2}</answer>`, 0.0},
		{"in range", `<answer>{"command": "move", "confidence": 0.55}</answer>`, 0.55},
		{"missing", `<answer>{"command": "move"}</answer>`, 0.0},
		{"wrong type", `<answer>{"command": "move", "confidence": "high"}</answer>`, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Extract(tt.reply, movementSchema)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Confidence)
		})
	}
}

func TestRouteDecision(t *testing.T) {
	reply := `<answer>{"command_type": "movement_commands", "confidence": 0.9, "alternative_types": ["combat_commands"], "explanation": "clear movement verb"}</answer>`
	a, err := Extract(reply, routerSchema)
	require.NoError(t, err)

	d := a.Route()
	assert.Equal(t, "movement_commands", d.Category)
	assert.Equal(t, 0.9, d.Confidence)
	assert.Equal(t, []string{"combat_commands"}, d.Alternatives)
	assert.Equal(t, "clear movement verb", d.Explanation)
}

func TestCommandTargetMapping(t *testing.T) {
	combatSchema := catalog.ResponseSchema{Fields: []string{"command", "target", "parameters", "confidence"}}
	reply := `<answer>{"command": "attack", "target": "goblin", "parameters": {"weapon": "sword"}, "confidence": 0.85}</answer>`

	a, err := Extract(reply, combatSchema)
	require.NoError(t, err)

	cmd := a.Command()
	assert.Equal(t, "attack", cmd.Action)
	require.NotNil(t, cmd.Target)
	assert.Equal(t, "goblin", *cmd.Target)
	assert.Nil(t, cmd.Direction)
	assert.Equal(t, "sword", cmd.Parameters["weapon"])
}
