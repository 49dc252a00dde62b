package handlers

import (
	"net/http"

	gorilla "github.com/gorilla/handlers"
	"github.com/nothingonline/nightscouter-settings/handlers/middleware"
)

func UseCors(h http.Handler) http.Handler {
	return gorilla.CORS(
		gorilla.AllowedOrigins([]string{"*"}),
		gorilla.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}),
		gorilla.AllowedHeaders([]string{"Content-Type", IdempotencyKeyHeader}),
	)(h)
}

func UseLogging(h http.Handler) http.Handler {
	return middleware.LoggingHandler(h)
}

func UseCompress(h http.Handler) http.Handler {
	return gorilla.CompressHandler(h)
}
