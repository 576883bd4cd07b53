package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bakery-shop-backend/internal/dto"
	"bakery-shop-backend/internal/model"
	"bakery-shop-backend/internal/service"
)

type CatalogController struct {
	Service *service.CatalogService
}

func NewCatalogController(s *service.CatalogService) *CatalogController {
	return &CatalogController{Service: s}
}

// GET /api/products?category=&search=&featured=true&sort=
func (ctl *CatalogController) ListProducts(c *gin.Context) {
	featured, _ := strconv.ParseBool(c.Query("featured"))
	f := model.ProductFilter{
		CategoryName: c.Query("category"),
		Search:       c.Query("search"),
		FeaturedOnly: featured,
		Sort:         c.Query("sort"),
	}
	products, err := ctl.Service.ListProducts(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.List(dto.ToProductResponses(products)))
}

// GET /api/products/:id
func (ctl *CatalogController) GetProduct(c *gin.Context) {
	p, err := ctl.Service.Product(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.ToProductResponse(p)))
}

// GET /api/categories
func (ctl *CatalogController) ListCategories(c *gin.Context) {
	cats, err := ctl.Service.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.List(dto.ToCategoryResponses(cats)))
}

// GET /api/categories/:id
func (ctl *CatalogController) GetCategory(c *gin.Context) {
	cat, err := ctl.Service.Category(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.CategoryResponse(*cat)))
}
