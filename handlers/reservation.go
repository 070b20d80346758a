package handlers

import (
	"net/http"

	historyRepo "reserva/database/repository/history"
	paymentRepo "reserva/database/repository/payment"
	"reserva/middleware"
	"reserva/models"
	"reserva/services/reservation"
	"reserva/utils"

	"github.com/gin-gonic/gin"
)

// ReservationHandler serves the traveler-facing reservation endpoints.
type ReservationHandler struct {
	svc      reservation.ReservationService
	history  historyRepo.HistoryRepository
	payments paymentRepo.PaymentRepository
}

func NewReservationHandler(svc reservation.ReservationService, history historyRepo.HistoryRepository, payments paymentRepo.PaymentRepository) *ReservationHandler {
	return &ReservationHandler{svc: svc, history: history, payments: payments}
}

type createReservationRequest struct {
	AssetType string                    `json:"assetType" binding:"required"`
	AssetID   string                    `json:"assetId" binding:"required"`
	Window    *models.Window            `json:"window,omitempty"`
	SlotDate  string                    `json:"slotDate,omitempty"`
	SlotTime  string                    `json:"slotTime,omitempty"`
	Quantity  int                       `json:"quantity" binding:"required"`
	IsPackage bool                      `json:"isPackage,omitempty"`
	Details   models.ReservationDetails `json:"details"`

	EstimatedCents int64  `json:"estimatedCents"`
	Currency       string `json:"currency" binding:"required"`

	FirstName string `json:"firstName,omitempty"`
	Surname   string `json:"surname,omitempty"`
}

func (req *createReservationRequest) toInput(customerID string) reservation.CreateInput {
	return reservation.CreateInput{
		AssetType:      models.AssetType(req.AssetType),
		AssetID:        req.AssetID,
		CustomerID:     customerID,
		Window:         req.Window,
		SlotDate:       req.SlotDate,
		SlotTime:       req.SlotTime,
		Quantity:       req.Quantity,
		IsPackage:      req.IsPackage,
		Details:        req.Details,
		EstimatedCents: req.EstimatedCents,
		Currency:       req.Currency,
		FirstName:      req.FirstName,
		Surname:        req.Surname,
	}
}

// Create opens a reservation for the authenticated traveler.
func (h *ReservationHandler) Create(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated actor"})
		return
	}

	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	res, err := h.svc.Create(c.Request.Context(), actor, req.toInput(actor.ID))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Get returns one reservation visible to the actor.
func (h *ReservationHandler) Get(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated actor"})
		return
	}

	res, err := h.svc.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Cancel moves the actor's reservation to canceled.
func (h *ReservationHandler) Cancel(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated actor"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	res, err := h.svc.Cancel(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Voucher returns the voucher of a paid reservation the actor may view.
func (h *ReservationHandler) Voucher(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated actor"})
		return
	}

	// Visibility piggybacks on Get's ownership check.
	if _, err := h.svc.Get(c.Request.Context(), actor, c.Param("id")); err != nil {
		utils.JSONDomainError(c, err)
		return
	}

	voucher, err := h.payments.GetVoucher(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, voucher)
}

// History returns the audit trail of a reservation the actor may view.
func (h *ReservationHandler) History(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no authenticated actor"})
		return
	}

	// Visibility piggybacks on Get's ownership check.
	if _, err := h.svc.Get(c.Request.Context(), actor, c.Param("id")); err != nil {
		utils.JSONDomainError(c, err)
		return
	}

	entries, err := h.history.ListByReservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}
