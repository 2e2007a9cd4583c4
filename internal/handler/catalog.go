package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vgl-spec/soil-sub000/internal/dto"
	"github.com/vgl-spec/soil-sub000/internal/service"
)

type CatalogHandler struct{ svc service.CatalogService }

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// Categories serves the whole catalog as a name-keyed tree.
func (h *CatalogHandler) Categories(c *gin.Context) {
	resp, err := h.svc.GetCatalog(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) AddCategory(c *gin.Context) {
	var req dto.AddCategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	id, err := h.svc.AddCategory(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CreatedResponse{Success: true, ID: id})
}

func (h *CatalogHandler) AddSubcategory(c *gin.Context) {
	var req dto.AddSubcategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	id, err := h.svc.AddSubcategory(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CreatedResponse{Success: true, ID: id})
}

func (h *CatalogHandler) AddPredefinedItem(c *gin.Context) {
	var req dto.AddPredefinedItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	id, err := h.svc.AddPredefinedItem(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CreatedResponse{Success: true, ID: id})
}

func (h *CatalogHandler) DeletePredefinedItem(c *gin.Context) {
	var req dto.DeletePredefinedItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.DeletePredefinedItem(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Deleted %d rows", res.Total()),
		"deleted": res,
	})
}

func (h *CatalogHandler) DeleteSubcategory(c *gin.Context) {
	var req dto.DeleteSubcategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.DeleteSubcategory(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Deleted %d rows", res.Total()),
		"deleted": res,
	})
}

func (h *CatalogHandler) CheckItemExists(c *gin.Context) {
	var q dto.CheckItemExistsQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.CheckItemExists(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
