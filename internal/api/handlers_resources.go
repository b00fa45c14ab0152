package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trader-gateway/internal/backend"
	"trader-gateway/pkg/secrets"
)

func (s *Server) listModels(c *gin.Context) {
	models, err := s.backend.ListModels(c.Request.Context(), Token(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"models":      models,
		"total_count": len(models),
	})
}

type updateModelRequest struct {
	Enabled         *bool  `json:"enabled"`
	APIKey          string `json:"api_key"`
	CustomAPIURL    string `json:"custom_api_url"`
	CustomModelName string `json:"custom_model_name"`
}

// updateModel upserts a model configuration, sealing the API key before it
// leaves the gateway when a sealing key is configured.
func (s *Server) updateModel(c *gin.Context) {
	var req updateModelRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_PAYLOAD",
			"error": "invalid request payload",
		})
		return
	}

	apiKey := req.APIKey
	if s.sealer != nil && apiKey != "" && !secrets.IsSealed(apiKey) {
		sealed, err := s.sealer.Seal(apiKey)
		if err != nil {
			s.writeError(c, err)
			return
		}
		apiKey = sealed
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	upd := backend.AIModelUpdate{
		Enabled:         enabled,
		APIKey:          apiKey,
		CustomAPIURL:    req.CustomAPIURL,
		CustomModelName: req.CustomModelName,
	}
	if err := s.backend.UpdateModel(c.Request.Context(), Token(c), c.Param("id"), upd); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "AI model updated successfully",
	})
}

func (s *Server) listExchanges(c *gin.Context) {
	exchanges, err := s.backend.ListExchanges(c.Request.Context(), Token(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	// Never echo credential material back to the browser.
	for i := range exchanges {
		exchanges[i].APIKey = ""
		exchanges[i].SecretKey = ""
	}
	c.JSON(http.StatusOK, gin.H{
		"exchanges":   exchanges,
		"total_count": len(exchanges),
	})
}
