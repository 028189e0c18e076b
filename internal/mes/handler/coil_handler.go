package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

type CoilHandler struct {
	svc *service.CoilService
}

func NewCoilHandler(svc *service.CoilService) *CoilHandler {
	return &CoilHandler{svc: svc}
}

func (h *CoilHandler) CreateMother(c *gin.Context) {
	var req service.CreateMotherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	coil, err := h.svc.CreateMother(&req, operatorFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": coil})
}

func (h *CoilHandler) GetMother(c *gin.Context) {
	coil, err := h.svc.GetMother(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": coil})
}

func (h *CoilHandler) ListMothers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.MotherListParams{
		Status:       c.Query("status"),
		MaterialCode: c.Query("material_code"),
		Keyword:      c.Query("keyword"),
		Page:         page,
		Size:         size,
	}
	coils, total, err := h.svc.ListMothers(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": coils, "total": total, "page": page, "size": size}})
}

func (h *CoilHandler) CorrectStock(c *gin.Context) {
	var req service.CorrectStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	coil, err := h.svc.CorrectStock(c.Param("id"), &req, operatorFrom(c))
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			c.JSON(http.StatusConflict, gin.H{"code": 40901, "message": "数据已被其他人修改, 请刷新后重试"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": coil})
}

func (h *CoilHandler) DeleteMother(c *gin.Context) {
	if err := h.svc.DeleteMother(c.Param("id"), operatorFrom(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
}

func (h *CoilHandler) ListChildren(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.ChildListParams{
		Status:       c.Query("status"),
		B2Code:       c.Query("b2_code"),
		MotherCoilID: c.Query("mother_coil_id"),
		Page:         page,
		Size:         size,
	}
	coils, total, err := h.svc.ListChildren(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": coils, "total": total, "page": page, "size": size}})
}

func (h *CoilHandler) UpdateChild(c *gin.Context) {
	var req service.UpdateChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	coil, err := h.svc.UpdateChild(c.Param("id"), &req, operatorFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": coil})
}

func (h *CoilHandler) DeleteChild(c *gin.Context) {
	if err := h.svc.DeleteChild(c.Param("id"), operatorFrom(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
}

func (h *CoilHandler) ListActionLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	logs, total, err := h.svc.ListActionLogs(c.Query("action_type"), c.Query("entity_id"), page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": logs, "total": total, "page": page, "size": size}})
}
