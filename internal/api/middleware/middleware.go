package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog/log"
)

// Logger logs every request once the chain has run.
func Logger(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	start := time.Now()

	chain.ProcessFilter(req, resp)

	log.Info().
		Str("method", req.Request.Method).
		Str("path", req.Request.URL.Path).
		Int("status", resp.StatusCode()).
		Dur("duration", time.Since(start)).
		Msg("HTTP request")
}

func RecoverPanic(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Str("path", req.Request.URL.Path).
				Interface("panic", rec).
				Msg("Recovered from panic")
			HandleError(resp, fmt.Errorf("%v", rec), http.StatusInternalServerError)
		}
	}()

	chain.ProcessFilter(req, resp)
}
