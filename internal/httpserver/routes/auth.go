package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/jbmon/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jbmon/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/jbmon/internal/httpserver/mw"
)

func init() { Register(registerLogin) }

func registerLogin(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.LoginBurst,
		RefillPerIPPerMin: d.LoginRatePerMinute,
		MaxEntries:        10000,
		SweepInterval:     time.Minute,
		IdleTTL:           15 * time.Minute,
		TrustProxy:        d.TrustProxy,
		Log:               d.Logger,
	})
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger), limit).Post("/api/login", handlers.Login(d))
}
