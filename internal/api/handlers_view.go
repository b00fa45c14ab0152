package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trader-gateway/internal/dashboard"
)

// dashboardKey scopes the cached view to the requesting token so one user's
// view is never served to another inside the TTL.
func dashboardKey(traderID, token string) string {
	return "dashboard:" + traderID + ":" + token
}

// getDashboard assembles the per-trader view. Partial live data is a success;
// only a missing trader fails the request.
func (s *Server) getDashboard(c *gin.Context) {
	traderID := c.Param("id")
	cacheKey := dashboardKey(traderID, Token(c))

	if cached, ok := s.cache.Get(cacheKey); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	view, err := s.aggregator.BuildDashboard(c.Request.Context(), Token(c), traderID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.cache.Set(cacheKey, view, s.dashboardTTL)
	c.JSON(http.StatusOK, view)
}

// getLeaderboard serves the public ranking, cached briefly since every
// visitor sees the same document.
func (s *Server) getLeaderboard(c *gin.Context) {
	if cached, ok := s.cache.Get("leaderboard"); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	board, err := s.aggregator.Leaderboard(c.Request.Context())
	if err != nil {
		status, body := errorResponse(err)
		body["agents"] = []dashboard.LeaderboardEntry{}
		body["total_count"] = 0
		c.JSON(status, body)
		return
	}

	s.cache.Set("leaderboard", board, s.leaderboardTTL)
	c.JSON(http.StatusOK, board)
}

// getExplorerPositions serves the public open-positions feed. The aggregator
// degrades to an empty document on upstream failure, so this always answers
// 200.
func (s *Server) getExplorerPositions(c *gin.Context) {
	c.JSON(http.StatusOK, s.aggregator.ExplorerPositions(c.Request.Context()))
}
