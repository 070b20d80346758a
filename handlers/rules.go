package handlers

import (
	"net/http"
	"time"

	rulesRepo "reserva/database/repository/rules"
	"reserva/middleware"
	"reserva/models"
	"reserva/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RuleHandler serves the partner-owned auto-confirmation rule CRUD.
type RuleHandler struct {
	repo rulesRepo.RuleRepository
}

func NewRuleHandler(repo rulesRepo.RuleRepository) *RuleHandler {
	return &RuleHandler{repo: repo}
}

func (h *RuleHandler) List(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated actor"})
		return
	}

	rules, err := h.repo.ListByOwner(c.Request.Context(), actor.ID)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

func (h *RuleHandler) Create(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated actor"})
		return
	}

	var rule models.AutoConfirmRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if !rule.AssetType.IsValid() || rule.AssetID == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "assetType and assetId are required")
		return
	}

	now := time.Now().UTC()
	rule.ID = uuid.New().String()
	rule.OwnerID = actor.ID
	rule.CreatedAt = now
	rule.UpdatedAt = now

	if err := h.repo.Create(c.Request.Context(), &rule); err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (h *RuleHandler) Update(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated actor"})
		return
	}

	existing, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	if existing.OwnerID != actor.ID && actor.Role != models.RoleMaster {
		utils.JSONDomainError(c, models.NewAuthorizationError(actor.ID, "modify this rule"))
		return
	}

	var rule models.AutoConfirmRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	rule.ID = existing.ID
	rule.OwnerID = existing.OwnerID
	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now().UTC()

	if err := h.repo.Update(c.Request.Context(), &rule); err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *RuleHandler) Delete(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated actor"})
		return
	}

	existing, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	if existing.OwnerID != actor.ID && actor.Role != models.RoleMaster {
		utils.JSONDomainError(c, models.NewAuthorizationError(actor.ID, "delete this rule"))
		return
	}

	if err := h.repo.Delete(c.Request.Context(), existing.ID); err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
