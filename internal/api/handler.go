package api

import (
	"net/http"

	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/config"
	"github.com/rs/zerolog"
)

type HealthResponse struct {
	Status  string `json:"status" description:"Service status"`
	Version string `json:"version" description:"API version"`
}

type ModelsResponse struct {
	DefaultModel string             `json:"default_model" description:"Model used when a request names none"`
	Models       []config.ModelSpec `json:"models" description:"Models accepted in parameters.modelId"`
}

type Handler struct {
	models *config.ModelsConfig
	logger *zerolog.Logger
}

func NewHandler(modelsCfg *config.ModelsConfig, logger *zerolog.Logger) *Handler {
	return &Handler{
		models: modelsCfg,
		logger: logger,
	}
}

// Health handler GET /api/v1/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	resp.WriteHeaderAndEntity(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	})
}

// Models handler GET /api/v1/models
func (h *Handler) Models(req *restful.Request, resp *restful.Response) {
	resp.WriteHeaderAndEntity(http.StatusOK, ModelsResponse{
		DefaultModel: h.models.DefaultModel,
		Models:       h.models.Models,
	})
}
