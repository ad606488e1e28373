package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/rongwang/condo-ledger/internal/service"
)

// Owner handlers
func (h *Handler) ListOwners(c *gin.Context) {
	owners, err := h.service.ListOwners(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, owners)
}

func (h *Handler) GetOwner(c *gin.Context) {
	owner, err := h.service.GetOwner(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, owner)
}

func (h *Handler) ownersIntents() intentTable {
	return intentTable{
		"create": func(c *gin.Context, actor models.Actor) (gin.H, error) {
			req, err := bind[models.CreateOwnerRequest](c)
			if err != nil {
				return nil, err
			}
			owner, err := h.service.CreateOwner(c.Request.Context(), actor, req)
			if err != nil {
				return nil, err
			}
			return gin.H{"owner": owner}, nil
		},
	}
}

func (h *Handler) ownerIntents() intentTable {
	table := intentTable{
		"update": func(c *gin.Context, actor models.Actor) (gin.H, error) {
			req, err := bind[models.UpdateOwnerRequest](c)
			if err != nil {
				return nil, err
			}
			owner, err := h.service.UpdateOwner(c.Request.Context(), actor, c.Param("id"), req)
			if err != nil {
				return nil, err
			}
			return gin.H{"owner": owner}, nil
		},
		"deactivate": func(c *gin.Context, actor models.Actor) (gin.H, error) {
			return nil, h.service.SetOwnerActive(c.Request.Context(), actor, c.Param("id"), false)
		},
		"activate": func(c *gin.Context, actor models.Actor) (gin.H, error) {
			return nil, h.service.SetOwnerActive(c.Request.Context(), actor, c.Param("id"), true)
		},
	}
	h.addPatternIntents(table, func(c *gin.Context) service.PatternTarget {
		return service.PatternTarget{OwnerID: c.Param("id")}
	})
	return table
}

// Bank account handlers
func (h *Handler) ListBankAccounts(c *gin.Context) {
	accounts, err := h.service.ListBankAccounts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, accounts)
}

func (h *Handler) bankAccountsIntents() intentTable {
	return intentTable{
		"create": func(c *gin.Context, actor models.Actor) (gin.H, error) {
			req, err := bind[models.CreateBankAccountRequest](c)
			if err != nil {
				return nil, err
			}
			account, err := h.service.CreateBankAccount(c.Request.Context(), actor, req)
			if err != nil {
				return nil, err
			}
			return gin.H{"bankAccount": account}, nil
		},
	}
}
