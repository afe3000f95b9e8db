package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/config"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/llm"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/models"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/transcript"
	"github.com/rs/zerolog"
)

var ErrInvalidRequest = errors.New("invalid request")

const (
	maxMessageBytes = 256 * 1024
	recordTimeout   = 5 * time.Second
)

type conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Gateway serves invokeModel requests over WebSocket. Each connection is
// handled on its own goroutine; requests on one connection run in order.
type Gateway struct {
	upgrader  websocket.Upgrader
	models    *config.ModelsConfig
	streamers map[string]llm.Streamer
	recorder  transcript.Recorder
	logger    *zerolog.Logger
}

func NewGateway(
	modelsCfg *config.ModelsConfig,
	streamers map[string]llm.Streamer,
	recorder transcript.Recorder,
	logger *zerolog.Logger,
) *Gateway {
	if recorder == nil {
		recorder = transcript.NopRecorder{}
	}

	return &Gateway{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		models:    modelsCfg,
		streamers: streamers,
		recorder:  recorder,
		logger:    logger,
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		g.logger.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}
	ws.SetReadLimit(maxMessageBytes)

	connID := uuid.NewString()
	g.logger.Info().Str("connection_id", connID).Str("remote", r.RemoteAddr).Msg("Connection opened")

	g.serveConn(r.Context(), ws, connID)
}

func (g *Gateway) serveConn(ctx context.Context, c conn, connID string) {
	defer c.Close()

	for {
		_, payload, err := c.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || isClosedConn(err) {
				g.logger.Info().Str("connection_id", connID).Msg("Connection closed")
			} else {
				g.logger.Warn().Err(err).Str("connection_id", connID).Msg("Connection read failed")
			}
			return
		}

		exchange := g.handleMessage(ctx, c, connID, payload)
		g.record(ctx, exchange)

		if ctx.Err() != nil {
			return
		}
	}
}

// handleMessage answers one request. Every outcome, including errors, ends
// with the sentinel so the peer's receive loop terminates.
func (g *Gateway) handleMessage(ctx context.Context, c conn, connID string, payload []byte) models.Exchange {
	exchange := models.Exchange{
		ID:           uuid.NewString(),
		ConnectionID: connID,
		StartedAt:    time.Now(),
	}

	log := g.logger.With().Str("connection_id", connID).Str("exchange_id", exchange.ID).Logger()

	writeFragment := func(text string) error {
		return c.WriteMessage(websocket.TextMessage, []byte(text))
	}

	fail := func(err error) models.Exchange {
		exchange.Error = err.Error()
		exchange.Duration = time.Since(exchange.StartedAt)
		log.Error().Err(err).Str("model_id", exchange.ModelID).Msg("Exchange failed")

		if writeErr := writeFragment("Error: " + err.Error()); writeErr != nil {
			log.Warn().Err(writeErr).Msg("Failed to send error fragment")
			return exchange
		}
		if writeErr := writeFragment(models.Sentinel); writeErr != nil {
			log.Warn().Err(writeErr).Msg("Failed to send sentinel")
		}
		return exchange
	}

	req, err := decodeRequest(payload)
	if err != nil {
		return fail(err)
	}
	exchange.Prompt = req.Prompt

	spec, err := g.models.Resolve(req.Parameters.ModelID)
	if err != nil {
		exchange.ModelID = req.Parameters.ModelID
		return fail(err)
	}
	exchange.ModelID = spec.ID
	exchange.Provider = spec.Provider

	streamer, ok := g.streamers[spec.Provider]
	if !ok {
		return fail(fmt.Errorf("provider %s is not configured", spec.Provider))
	}

	log.Info().
		Str("model_id", spec.ID).
		Str("provider", spec.Provider).
		Int("max_tokens", spec.MaxTokens).
		Float64("temperature", req.Parameters.Temperature).
		Msg("Invoking model")

	resp, err := streamer.InvokeModelStream(ctx, llm.LLMRequest{
		ModelID:     spec.ID,
		Prompt:      req.Prompt,
		MaxTokens:   spec.MaxTokens,
		Temperature: req.Parameters.Temperature,
	}, func(chunk string) error {
		// a chunk equal to the sentinel would end the peer's stream early
		if models.IsSentinel(chunk) {
			chunk += " "
		}
		if err := writeFragment(chunk); err != nil {
			return err
		}
		exchange.Fragments++
		return nil
	})
	if err != nil {
		return fail(err)
	}

	exchange.Response = resp.Content
	exchange.StopReason = resp.StopReason

	if err := writeFragment(models.Sentinel); err != nil {
		exchange.Error = fmt.Sprintf("failed to send sentinel: %v", err)
	}
	exchange.Duration = time.Since(exchange.StartedAt)

	log.Info().
		Int("fragments", exchange.Fragments).
		Str("stop_reason", exchange.StopReason).
		Dur("duration", exchange.Duration).
		Msg("Exchange complete")

	return exchange
}

func (g *Gateway) record(ctx context.Context, exchange models.Exchange) {
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := g.recorder.Record(recordCtx, exchange); err != nil {
		g.logger.Error().Err(err).Str("exchange_id", exchange.ID).Msg("Failed to record exchange")
	}
}

func decodeRequest(payload []byte) (models.Request, error) {
	var req models.Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return req, fmt.Errorf("%w: malformed JSON: %v", ErrInvalidRequest, err)
	}

	if req.Action != models.ActionInvokeModel {
		return req, fmt.Errorf("%w: unsupported action %q", ErrInvalidRequest, req.Action)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return req, fmt.Errorf("%w: prompt is empty", ErrInvalidRequest)
	}
	if req.Parameters.Temperature < 0 || req.Parameters.Temperature > 1 {
		return req, fmt.Errorf("%w: temperature %v out of range [0, 1]", ErrInvalidRequest, req.Parameters.Temperature)
	}

	return req, nil
}

func isClosedConn(err error) bool {
	var closeErr *websocket.CloseError
	return errors.As(err, &closeErr) || strings.Contains(err.Error(), "use of closed network connection")
}
