package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bakery-shop-backend/internal/dto"
	"bakery-shop-backend/internal/middleware"
	"bakery-shop-backend/internal/service"
)

type CartController struct {
	Service *service.CartService
}

func NewCartController(s *service.CartService) *CartController {
	return &CartController{Service: s}
}

func (ctl *CartController) respond(c *gin.Context, v *service.CartView, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.ToCartResponse(v)))
}

// GET /api/cart
func (ctl *CartController) GetCart(c *gin.Context) {
	v, err := ctl.Service.GetCart(c.Request.Context(), middleware.Identity(c).UserID)
	ctl.respond(c, v, err)
}

// POST /api/cart
func (ctl *CartController) AddItem(c *gin.Context) {
	var req dto.CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	v, err := ctl.Service.AddItem(c.Request.Context(), middleware.Identity(c).UserID, req.ProductID, req.Qty())
	ctl.respond(c, v, err)
}

// PUT /api/cart/:productId
func (ctl *CartController) UpdateItem(c *gin.Context) {
	var req dto.CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	v, err := ctl.Service.UpdateItem(c.Request.Context(), middleware.Identity(c).UserID, c.Param("productId"), *req.Quantity)
	ctl.respond(c, v, err)
}

// DELETE /api/cart/:productId
func (ctl *CartController) RemoveItem(c *gin.Context) {
	v, err := ctl.Service.RemoveItem(c.Request.Context(), middleware.Identity(c).UserID, c.Param("productId"))
	ctl.respond(c, v, err)
}

// DELETE /api/cart
func (ctl *CartController) Clear(c *gin.Context) {
	v, err := ctl.Service.Clear(c.Request.Context(), middleware.Identity(c).UserID)
	ctl.respond(c, v, err)
}
