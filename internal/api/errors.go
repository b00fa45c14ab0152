package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"trader-gateway/internal/backend"
	"trader-gateway/internal/dashboard"
	"trader-gateway/internal/provision"
)

// writeError maps the error taxonomy onto HTTP responses. Provisioning step
// errors additionally carry the failing step so the user knows whether funds
// were put at risk.
func (s *Server) writeError(c *gin.Context, err error) {
	var stepErr *provision.StepError
	step := ""
	if errors.As(err, &stepErr) {
		step = stepErr.Step
	}

	status, body := errorResponse(err)
	if step != "" {
		body["step"] = step
	}
	c.JSON(status, body)
}

func errorResponse(err error) (int, gin.H) {
	var (
		missingCfg  *provision.MissingConfigError
		statusErr   *backend.StatusError
		unavailable *backend.UnavailableError
	)

	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		return http.StatusUnauthorized, gin.H{
			"code":  "UNAUTHORIZED",
			"error": "unauthorized",
		}
	case errors.As(err, &missingCfg):
		return http.StatusBadRequest, gin.H{
			"code":  "MISSING_CONFIGURATION",
			"error": missingCfg.Error(),
		}
	case errors.Is(err, provision.ErrUnknownVenue),
		errors.Is(err, provision.ErrExchangeNotConfigured):
		return http.StatusBadRequest, gin.H{
			"code":  "INVALID_VENUE",
			"error": err.Error(),
		}
	case errors.Is(err, dashboard.ErrTraderNotFound):
		return http.StatusNotFound, gin.H{
			"code":  "TRADER_NOT_FOUND",
			"error": "trader not found",
		}
	case errors.As(err, &statusErr):
		reason := statusErr.Reason()
		if reason == "" {
			reason = "backend rejected the request"
		}
		return statusErr.Status, gin.H{
			"code":  "UPSTREAM_REJECTED",
			"error": reason,
		}
	case errors.As(err, &unavailable):
		return http.StatusBadGateway, gin.H{
			"code":  "UPSTREAM_UNAVAILABLE",
			"error": "trading backend unavailable",
		}
	default:
		return http.StatusInternalServerError, gin.H{
			"code":  "INTERNAL_ERROR",
			"error": err.Error(),
		}
	}
}
