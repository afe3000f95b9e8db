package api

import (
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/api/middleware"
)

const (
	WebSocketPath = "/ws"
	OpenAPIPath   = "/api/v1/openapi.json"
)

func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	ws.
		Route(ws.GET("health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))

	ws.
		Route(ws.GET("models").
			To(handler.Models).
			Doc("List models accepted by the WebSocket endpoint").
			Metadata(restfulspec.KeyOpenAPITags, []string{"models"}).
			Writes(ModelsResponse{}).
			Returns(200, "OK", ModelsResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	container.Add(ws)
}

// NewContainer builds the HTTP surface: REST routes, OpenAPI document and the
// WebSocket endpoint. Filters apply to the REST routes only.
func NewContainer(handler *Handler, stream http.Handler) *restful.Container {
	container := restful.NewContainer()
	container.Filter(middleware.Logger)
	container.Filter(middleware.RecoverPanic)

	RegisterRoutes(container, handler)

	container.Add(restfulspec.NewOpenAPIService(restfulspec.Config{
		WebServices:                   container.RegisteredWebServices(),
		APIPath:                       OpenAPIPath,
		PostBuildSwaggerObjectHandler: enrichSwaggerObject,
	}))

	container.Handle(WebSocketPath, stream)

	return container
}

func enrichSwaggerObject(swo *spec.Swagger) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "Prompt Stream API",
			Description: "Streams model output over WebSocket at " + WebSocketPath,
			Version:     "1.0.0",
		},
	}
	swo.Tags = []spec.Tag{
		{TagProps: spec.TagProps{Name: "health", Description: "Health checks"}},
		{TagProps: spec.TagProps{Name: "models", Description: "Model catalogue"}},
	}
}
