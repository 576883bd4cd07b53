package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bakery-shop-backend/internal/dto"
	"bakery-shop-backend/internal/middleware"
	"bakery-shop-backend/internal/service"
)

type AddressController struct {
	Service *service.AddressService
}

func NewAddressController(s *service.AddressService) *AddressController {
	return &AddressController{Service: s}
}

// GET /api/addresses
func (ctl *AddressController) List(c *gin.Context) {
	list, err := ctl.Service.List(c.Request.Context(), middleware.Identity(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.List(dto.ToAddressResponses(list)))
}

// POST /api/addresses
func (ctl *AddressController) Create(c *gin.Context) {
	var req dto.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	a, err := ctl.Service.Create(c.Request.Context(), middleware.Identity(c).UserID, req.Input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.OK(dto.ToAddressResponse(a)))
}

// PUT /api/addresses/:id
func (ctl *AddressController) Update(c *gin.Context) {
	var req dto.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	a, err := ctl.Service.Update(c.Request.Context(), middleware.Identity(c), c.Param("id"), req.Input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.ToAddressResponse(a)))
}

// DELETE /api/addresses/:id
func (ctl *AddressController) Delete(c *gin.Context) {
	if err := ctl.Service.Delete(c.Request.Context(), middleware.Identity(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Message: "Address deleted successfully"})
}

// PUT /api/addresses/:id/default
func (ctl *AddressController) SetDefault(c *gin.Context) {
	a, err := ctl.Service.SetDefault(c.Request.Context(), middleware.Identity(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.ToAddressResponse(a)))
}

type PaymentController struct {
	Service *service.PaymentService
}

func NewPaymentController(s *service.PaymentService) *PaymentController {
	return &PaymentController{Service: s}
}

// GET /api/payments
func (ctl *PaymentController) List(c *gin.Context) {
	list, err := ctl.Service.List(c.Request.Context(), middleware.Identity(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.List(dto.ToPaymentMethodResponses(list)))
}

// POST /api/payments
func (ctl *PaymentController) Create(c *gin.Context) {
	var req dto.PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := ctl.Service.Create(c.Request.Context(), middleware.Identity(c).UserID, req.Input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.OK(dto.ToPaymentMethodResponse(p)))
}

// DELETE /api/payments/:id
func (ctl *PaymentController) Delete(c *gin.Context) {
	if err := ctl.Service.Delete(c.Request.Context(), middleware.Identity(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Message: "Payment method deleted successfully"})
}

// PUT /api/payments/:id/default
func (ctl *PaymentController) SetDefault(c *gin.Context) {
	p, err := ctl.Service.SetDefault(c.Request.Context(), middleware.Identity(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.ToPaymentMethodResponse(p)))
}
