package transport

import (
	"context"

	"go.uber.org/zap"

	"github.com/mkaryagin/voxquest/internal/gamestate"
	"github.com/mkaryagin/voxquest/internal/models"
)

// resolveSnapshot picks the game context for one recognition request: an
// inline game_state in the request wins, otherwise the stored session
// state is used, otherwise the prompt defaults apply. A store failure is
// not fatal; recognition proceeds on defaults.
func resolveSnapshot(ctx context.Context, sessions *gamestate.Manager, req *models.RecognizeRequest, log *zap.Logger) models.ContextSnapshot {
	if req.GameState != nil {
		return *req.GameState
	}
	if req.SessionID != "" && sessions != nil {
		snap, err := sessions.Snapshot(ctx, req.SessionID)
		if err != nil {
			log.Warn("failed to load session state, using defaults",
				zap.String("session_id", req.SessionID),
				zap.Error(err))
			return models.ContextSnapshot{}
		}
		return snap
	}
	return models.ContextSnapshot{}
}
