package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/rongwang/condo-ledger/internal/service"
)

// Tag handlers
func (h *Handler) ListTags(c *gin.Context) {
	tags, err := h.service.ListTags(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tags)
}

func (h *Handler) GetTag(c *gin.Context) {
	tag, err := h.service.GetTag(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tag)
}

func (h *Handler) tagsIntents() intentTable {
	return intentTable{
		"create": func(c *gin.Context, actor models.Actor) (gin.H, error) {
			req, err := bind[models.CreateTagRequest](c)
			if err != nil {
				return nil, err
			}
			tag, err := h.service.CreateTag(c.Request.Context(), actor, req)
			if err != nil {
				return nil, err
			}
			return gin.H{"tag": tag}, nil
		},
	}
}

func (h *Handler) tagIntents() intentTable {
	table := intentTable{
		"update": func(c *gin.Context, actor models.Actor) (gin.H, error) {
			req, err := bind[models.UpdateTagRequest](c)
			if err != nil {
				return nil, err
			}
			tag, err := h.service.UpdateTag(c.Request.Context(), actor, c.Param("id"), req)
			if err != nil {
				return nil, err
			}
			return gin.H{"tag": tag}, nil
		},
		"delete": func(c *gin.Context, actor models.Actor) (gin.H, error) {
			return nil, h.service.DeleteTag(c.Request.Context(), actor, c.Param("id"))
		},
	}
	h.addPatternIntents(table, func(c *gin.Context) service.PatternTarget {
		return service.PatternTarget{TagID: c.Param("id")}
	})
	return table
}

// addPatternIntents registers the pattern actions shared by tags and owners
func (h *Handler) addPatternIntents(table intentTable, target func(c *gin.Context) service.PatternTarget) {
	table["createPattern"] = func(c *gin.Context, actor models.Actor) (gin.H, error) {
		req, err := bind[models.CreatePatternRequest](c)
		if err != nil {
			return nil, err
		}
		resp, err := h.service.CreatePattern(c.Request.Context(), actor, target(c), req)
		if err != nil {
			return nil, err
		}
		extra := gin.H{"pattern": resp.Pattern}
		if resp.Applied != nil {
			extra["applied"] = resp.Applied
		}
		return extra, nil
	}
	table["togglePattern"] = func(c *gin.Context, actor models.Actor) (gin.H, error) {
		req, err := bind[models.PatternRequest](c)
		if err != nil {
			return nil, err
		}
		pattern, err := h.service.TogglePattern(c.Request.Context(), actor, target(c), req.PatternID)
		if err != nil {
			return nil, err
		}
		return gin.H{"pattern": pattern}, nil
	}
	table["deletePattern"] = func(c *gin.Context, actor models.Actor) (gin.H, error) {
		req, err := bind[models.PatternRequest](c)
		if err != nil {
			return nil, err
		}
		return nil, h.service.DeletePattern(c.Request.Context(), actor, target(c), req.PatternID)
	}
}
