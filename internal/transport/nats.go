package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/mkaryagin/voxquest/internal/config"
	"github.com/mkaryagin/voxquest/internal/gamestate"
	"github.com/mkaryagin/voxquest/internal/models"
	"github.com/mkaryagin/voxquest/internal/recognizer"
)

// NATSTransport serves recognition requests over NATS request/reply, for
// game engines that talk to the service through the message bus instead
// of HTTP.
type NATSTransport struct {
	conn       *nats.Conn
	config     *config.Config
	recognizer *recognizer.Recognizer
	sessions   *gamestate.Manager
	log        *zap.Logger
}

func NewNATSTransport(cfg *config.Config, rec *recognizer.Recognizer, sessions *gamestate.Manager, log *zap.Logger) (*NATSTransport, error) {
	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name(cfg.ServiceName),
		nats.Timeout(cfg.NatsTimeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info("connected to NATS", zap.String("url", cfg.NatsURL))

	return &NATSTransport{
		conn:       conn,
		config:     cfg,
		recognizer: rec,
		sessions:   sessions,
		log:        log,
	}, nil
}

func (nt *NATSTransport) Start() error {
	_, err := nt.conn.Subscribe(nt.config.NatsRequestSubject, nt.handleRecognizeRequest)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", nt.config.NatsRequestSubject, err)
	}
	nt.log.Info("subscribed", zap.String("subject", nt.config.NatsRequestSubject))
	return nil
}

func (nt *NATSTransport) handleRecognizeRequest(msg *nats.Msg) {
	var req models.RecognizeRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		nt.log.Warn("invalid recognition request", zap.Error(err))
		nt.respond(msg, &models.RecognitionResult{Reason: models.ReasonEmptyInput})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), nt.config.RequestTimeout)
	defer cancel()

	snap := resolveSnapshot(ctx, nt.sessions, &req, nt.log)
	result := nt.recognizer.Recognize(ctx, req.Text, snap)
	nt.respond(msg, result)
}

func (nt *NATSTransport) respond(msg *nats.Msg, result *models.RecognitionResult) {
	data, err := json.Marshal(result)
	if err != nil {
		nt.log.Error("failed to marshal result", zap.Error(err))
		return
	}
	if err := msg.Respond(data); err != nil {
		nt.log.Error("failed to send response", zap.Error(err))
	}
}

func (nt *NATSTransport) Close() error {
	if nt.conn != nil {
		nt.conn.Close()
		nt.log.Info("NATS connection closed")
	}
	return nil
}
