package handler

import (
	"errors"
	"net/http"

	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

type CuttingHandler struct {
	svc *service.CuttingService
}

func NewCuttingHandler(svc *service.CuttingService) *CuttingHandler {
	return &CuttingHandler{svc: svc}
}

func (h *CuttingHandler) Cut(c *gin.Context) {
	var req service.CutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	if id := c.Param("id"); id != "" {
		req.MotherCoilID = id
	}
	if req.MotherCoilID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": "缺少母卷ID"})
		return
	}
	result, err := h.svc.Cut(&req, operatorFrom(c))
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			c.JSON(http.StatusConflict, gin.H{"code": 40901, "message": "母卷已被其他人修改, 请刷新后重试"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": result})
}
