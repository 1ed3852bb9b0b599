// README: HTTP router registration; delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tulong/internal/ai"
	"tulong/internal/http/handlers"
	"tulong/internal/http/middleware"
	"tulong/internal/infra"
	"tulong/internal/modules/donation"
	"tulong/internal/modules/location"
	"tulong/internal/modules/matching"
	"tulong/internal/modules/request"
	"tulong/internal/modules/smartmatch"
	"tulong/internal/modules/volunteer"
)

type RouterDeps struct {
	Matching   *matching.Service
	Matches    *smartmatch.Service
	Location   *location.Service
	Donations  *donation.Store
	Requests   *request.Store
	Volunteers *volunteer.Store
	Narrator   ai.Narrator
	Verifier   infra.TokenVerifier
}

func NewRouter(deps RouterDeps) http.Handler {
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api")
	if deps.Verifier != nil {
		api.Use(middleware.Auth(deps.Verifier))
	}

	matchHandler := handlers.NewMatchHandler(deps.Matching, deps.Requests)
	api.POST("/matching/requests/:id/donors", matchHandler.DonorsForRequest)
	api.POST("/matching/tasks/volunteers", matchHandler.VolunteersForTask)
	api.GET("/matching/optimal", matchHandler.Optimal)

	smartMatchHandler := handlers.NewSmartMatchHandler(deps.Matches)
	api.POST("/matches", smartMatchHandler.Create)
	api.GET("/matches", smartMatchHandler.List)
	api.GET("/matches/:id", smartMatchHandler.Get)
	api.POST("/matches/:id/status", smartMatchHandler.UpdateStatus)

	narrateHandler := handlers.NewNarrateHandler(deps.Matches, deps.Donations, deps.Requests, deps.Volunteers, deps.Narrator)
	api.POST("/matches/:id/narrate", narrateHandler.Narrate)

	locationHandler := handlers.NewLocationHandler(deps.Location)
	api.PUT("/volunteers/:id/location", locationHandler.Update)
	api.DELETE("/volunteers/:id/location", locationHandler.Deactivate)

	return r
}
