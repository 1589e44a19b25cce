package handlers

import (
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"omvsetup/logger"
	"omvsetup/utils"
)

const flowKeyPrefix = "flow:"

// InitSessions creates the session manager that binds in-progress flows to a caller.
func InitSessions() *scs.SessionManager {
	log := logger.Get()

	isProduction := utils.IsProduction()

	sm := scs.New()
	sm.Store = memstore.New()
	sm.Lifetime = 2 * time.Hour
	sm.IdleTimeout = 30 * time.Minute
	sm.Cookie = scs.SessionCookie{
		Name:     "omvsetup_session",
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}

	if isProduction {
		log.Info().Msg("Secure session cookies enabled for production environment")
	} else {
		log.Warn().Msg("Secure session cookies disabled (not in production environment)")
	}
	return sm
}
