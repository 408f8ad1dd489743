package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jetstreamair/jetshare/internal/domain"
	"github.com/jetstreamair/jetshare/internal/repository"
	"github.com/jetstreamair/jetshare/internal/service/offers"
)

type OfferHandler struct {
	service offers.OfferUseCase
}

type offerRequest struct {
	FlightDate        time.Time `json:"flight_date"`
	DepartureLocation string    `json:"departure_location"`
	ArrivalLocation   string    `json:"arrival_location"`
	AircraftModel     string    `json:"aircraft_model"`
	TotalCostCents    int64     `json:"total_cost_cents"`
	ShareAmountCents  int64     `json:"share_amount_cents"`
}

type offerResponse struct {
	ID                string `json:"id"`
	CreatorID         string `json:"creator_id"`
	FlightDate        string `json:"flight_date"`
	DepartureLocation string `json:"departure_location"`
	ArrivalLocation   string `json:"arrival_location"`
	AircraftModel     string `json:"aircraft_model"`
	TotalCostCents    int64  `json:"total_cost_cents"`
	ShareAmountCents  int64  `json:"share_amount_cents"`
	Status            string `json:"status"`
	MatchedUserID     string `json:"matched_user_id,omitempty"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

func toOfferResponse(o *domain.Offer) offerResponse {
	return offerResponse{
		ID:                o.ID,
		CreatorID:         o.CreatorID,
		FlightDate:        o.FlightDate.Format(time.RFC3339),
		DepartureLocation: o.DepartureLocation,
		ArrivalLocation:   o.ArrivalLocation,
		AircraftModel:     o.AircraftModel,
		TotalCostCents:    o.TotalCostCents,
		ShareAmountCents:  o.ShareAmountCents,
		Status:            string(o.Status),
		MatchedUserID:     o.MatchedUserID,
		CreatedAt:         o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         o.UpdatedAt.Format(time.RFC3339),
	}
}

func NewOfferHandler(service offers.OfferUseCase) *OfferHandler {
	return &OfferHandler{service: service}
}

func (h *OfferHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.POST("/:id", h.update)
	router.POST("/:id/accept", h.accept)
	router.POST("/:id/delete", h.delete)
}

func (h *OfferHandler) create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req offerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.E(domain.KindValidation, "malformed request body"))
		return
	}

	offer, err := h.service.CreateOffer(c.Request.Context(), offers.CreateOfferInput{
		CreatorID:         userID,
		FlightDate:        req.FlightDate,
		DepartureLocation: req.DepartureLocation,
		ArrivalLocation:   req.ArrivalLocation,
		AircraftModel:     req.AircraftModel,
		TotalCostCents:    req.TotalCostCents,
		ShareAmountCents:  req.ShareAmountCents,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOfferResponse(offer))
}

func (h *OfferHandler) get(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	offer, err := h.service.GetOffer(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOfferResponse(offer))
}

func (h *OfferHandler) list(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	filter := repository.OfferFilter{
		Status: domain.OfferStatus(c.Query("status")),
		UserID: c.Query("userId"),
	}

	list, err := h.service.ListOffers(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]offerResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toOfferResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OfferHandler) accept(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	offer, err := h.service.AcceptOffer(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOfferResponse(offer))
}

func (h *OfferHandler) update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req offerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.E(domain.KindValidation, "malformed request body"))
		return
	}

	offer, err := h.service.UpdateOffer(c.Request.Context(), c.Param("id"), userID, domain.FlightDetails{
		FlightDate:        req.FlightDate,
		DepartureLocation: req.DepartureLocation,
		ArrivalLocation:   req.ArrivalLocation,
		AircraftModel:     req.AircraftModel,
		TotalCostCents:    req.TotalCostCents,
		ShareAmountCents:  req.ShareAmountCents,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOfferResponse(offer))
}

func (h *OfferHandler) delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.service.DeleteOffer(c.Request.Context(), c.Param("id"), userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
