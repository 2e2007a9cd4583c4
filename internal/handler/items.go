package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vgl-spec/soil-sub000/internal/dto"
	"github.com/vgl-spec/soil-sub000/internal/service"
)

type ItemsHandler struct{ svc service.LedgerService }

func NewItemsHandler(svc service.LedgerService) *ItemsHandler { return &ItemsHandler{svc: svc} }

// List returns consolidated stock and the full history in one payload.
func (h *ItemsHandler) List(c *gin.Context) {
	resp, err := h.svc.Items(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ItemsHandler) Add(c *gin.Context) {
	var req dto.AddItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	id, err := h.svc.AddItem(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CreatedResponse{Success: true, ID: id})
}

func (h *ItemsHandler) IncreaseStock(c *gin.Context) {
	var req dto.IncreaseStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.IncreaseStock(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Stock increased")
}

func (h *ItemsHandler) ReduceStock(c *gin.Context) {
	var req dto.ReduceStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.ReduceStock(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Stock reduced")
}

func (h *ItemsHandler) LedgerCheck(c *gin.Context) {
	resp, err := h.svc.CheckLedger(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
