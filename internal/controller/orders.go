package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bakery-shop-backend/internal/dto"
	"bakery-shop-backend/internal/middleware"
	"bakery-shop-backend/internal/model"
	"bakery-shop-backend/internal/service"
)

type OrderController struct {
	Service *service.OrderService
}

func NewOrderController(s *service.OrderService) *OrderController {
	return &OrderController{Service: s}
}

// POST /api/orders
func (ctl *OrderController) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id := middleware.Identity(c)
	o, err := ctl.Service.CreateOrder(c.Request.Context(), id.UserID, req.Input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.OK(dto.ToOrderResponse(o)))
}

// GET /api/orders?status=pending|completed
func (ctl *OrderController) GetMyOrders(c *gin.Context) {
	id := middleware.Identity(c)
	orders, err := ctl.Service.GetOrders(c.Request.Context(), id.UserID, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.List(dto.ToOrderResponses(orders)))
}

// GET /api/orders/:id
func (ctl *OrderController) GetOrder(c *gin.Context) {
	o, err := ctl.Service.GetOrder(c.Request.Context(), c.Param("id"), middleware.Identity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.ToOrderResponse(o)))
}

// PUT /api/orders/:id/cancel
func (ctl *OrderController) CancelOrder(c *gin.Context) {
	o, err := ctl.Service.CancelOrder(c.Request.Context(), c.Param("id"), middleware.Identity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.ToOrderResponse(o)))
}

// PUT /api/orders/:id/status - admin only
func (ctl *OrderController) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	o, err := ctl.Service.UpdateOrderStatus(c.Request.Context(), c.Param("id"), model.OrderStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.ToOrderResponse(o)))
}

// GET /api/admin/orders?status= - admin only
func (ctl *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := ctl.Service.ListAllOrders(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.List(dto.ToOrderResponses(orders)))
}
