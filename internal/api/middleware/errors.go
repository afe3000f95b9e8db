package middleware

import (
	"net/http"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog/log"
)

type ErrorResponse struct {
	Error   string `json:"error" description:"Error message"`
	Code    int    `json:"code" description:"HTTP status code"`
	Details string `json:"details,omitempty" description:"Additional error details"`
}

func HandleError(resp *restful.Response, err error, status int) {
	errorResponse := ErrorResponse{
		Error: http.StatusText(status),
		Code:  status,
	}
	if err != nil {
		errorResponse.Details = err.Error()
	}

	if writeErr := resp.WriteHeaderAndEntity(status, errorResponse); writeErr != nil {
		log.Error().Err(writeErr).Msg("Failed to write error response")
	}
}
