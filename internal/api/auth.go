package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/condo-ledger/internal/models"
)

// Authentication handlers
func (h *Handler) RequestMagicLink(c *gin.Context) {
	req, err := bind[models.MagicLinkRequest](c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp, err := h.service.RequestMagicLink(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) VerifyMagicLink(c *gin.Context) {
	resp, err := h.service.VerifyMagicLink(c.Request.Context(), c.Query("token"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, resp.Token, resp.ExpiresIn, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Session(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.GetString("userId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *Handler) SignOut(c *gin.Context) {
	h.service.SignOut(c.Request.Context(), actorFrom(c))

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
