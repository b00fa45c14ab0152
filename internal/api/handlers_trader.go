package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trader-gateway/internal/backend"
	"trader-gateway/internal/provision"
)

// createTrader runs the provisioning workflow: resolve the AI model, resolve
// or mint the exchange credential, then create the trader.
func (s *Server) createTrader(c *gin.Context) {
	var req provision.CreateRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_PAYLOAD",
			"error": "invalid request payload",
		})
		return
	}

	result, err := s.orchestrator.CreateTrader(c.Request.Context(), Token(c), req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	// Invalidate the cached portfolio so the new trader shows up immediately.
	s.cache.Delete("portfolio:" + Token(c))

	c.JSON(http.StatusCreated, gin.H{
		"success":        true,
		"trader":         result.Trader,
		"wallet_address": result.WalletAddress,
		"is_new_wallet":  result.IsNewWallet,
		"needs_deposit":  result.NeedsDeposit,
		"message":        "Trader created successfully",
	})
}

// listTraders returns the user's portfolio view, cached per token.
func (s *Server) listTraders(c *gin.Context) {
	cacheKey := "portfolio:" + Token(c)
	if cached, ok := s.cache.Get(cacheKey); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	portfolio, err := s.aggregator.Portfolio(c.Request.Context(), Token(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.cache.Set(cacheKey, portfolio, s.dashboardTTL)
	c.JSON(http.StatusOK, portfolio)
}

// updateTrader resends the full field set; the backend has no partial-patch
// semantics, so the client must supply every field.
func (s *Server) updateTrader(c *gin.Context) {
	var spec backend.TraderSpec
	if err := c.BindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_PAYLOAD",
			"error": "invalid request payload",
		})
		return
	}

	trader, err := s.backend.UpdateTrader(c.Request.Context(), Token(c), c.Param("id"), spec)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.cache.Delete(dashboardKey(c.Param("id"), Token(c)))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"trader":  trader,
		"message": "Trader updated successfully",
	})
}

func (s *Server) startTrader(c *gin.Context) {
	result, err := s.backend.StartTrader(c.Request.Context(), Token(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.cache.Delete(dashboardKey(c.Param("id"), Token(c)))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Trader started successfully",
		"result":  result,
	})
}

// stopTrader halts decision-making. Open positions stay open until closed
// separately or until a stop inside the backend triggers.
func (s *Server) stopTrader(c *gin.Context) {
	result, err := s.backend.StopTrader(c.Request.Context(), Token(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.cache.Delete(dashboardKey(c.Param("id"), Token(c)))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Trader stopped successfully",
		"result":  result,
	})
}

func (s *Server) deleteTrader(c *gin.Context) {
	if err := s.backend.DeleteTrader(c.Request.Context(), Token(c), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	s.cache.Delete(dashboardKey(c.Param("id"), Token(c)))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Trader deleted successfully",
	})
}

// updateTraderPrompt forwards a prompt change verbatim. The upstream path is
// singular ("trader") unlike the rest of the trader surface.
func (s *Server) updateTraderPrompt(c *gin.Context) {
	s.relay(c, "PUT", "/api/trader/"+c.Param("id")+"/prompt")
	s.cache.Delete(dashboardKey(c.Param("id"), Token(c)))
}

func (s *Server) getTraderConfig(c *gin.Context) {
	cfg, err := s.backend.TraderConfig(c.Request.Context(), Token(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}
