package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// The UI shell is served from the same device, either by the dev server or
// from the packaged app's local origin.
var defaultCORSOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
	"capacitor://localhost",
	"http://localhost",
}

// CORS returns middleware that applies the local UI origin policy.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   defaultCORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler
}
