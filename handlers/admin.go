package handlers

import (
	"net/http"

	"reserva/middleware"
	"reserva/models"
	"reserva/services/reservation"
	"reserva/utils"

	"github.com/gin-gonic/gin"
)

// AdminReservationHandler serves the partner/employee/master endpoints.
type AdminReservationHandler struct {
	svc reservation.ReservationService
}

func NewAdminReservationHandler(svc reservation.ReservationService) *AdminReservationHandler {
	return &AdminReservationHandler{svc: svc}
}

// ListByAsset returns every reservation for one asset.
func (h *AdminReservationHandler) ListByAsset(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated actor"})
		return
	}

	assetType := models.AssetType(c.Query("assetType"))
	assetID := c.Query("assetId")
	if !assetType.IsValid() || assetID == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "assetType and assetId query parameters are required")
		return
	}

	list, err := h.svc.ListByAsset(c.Request.Context(), actor, assetType, assetID)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": list})
}

// Create opens an admin-direct reservation on behalf of a customer.
func (h *AdminReservationHandler) Create(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated actor"})
		return
	}

	var req struct {
		createReservationRequest
		CustomerID string `json:"customerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	res, err := h.svc.Create(c.Request.Context(), actor, req.toInput(req.CustomerID))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Approve confirms a pending reservation.
func (h *AdminReservationHandler) Approve(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated actor"})
		return
	}

	res, err := h.svc.Approve(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Reject declines a pending reservation.
func (h *AdminReservationHandler) Reject(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated actor"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	res, err := h.svc.Reject(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ConfirmPrice binds the final price and opens the payment window.
func (h *AdminReservationHandler) ConfirmPrice(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated actor"})
		return
	}

	var req struct {
		FinalCents int64 `json:"finalCents" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	res, err := h.svc.ConfirmPrice(c.Request.Context(), actor, c.Param("id"), req.FinalCents)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
