package controller

import (
	"github.com/gin-gonic/gin"

	"bakery-shop-backend/internal/middleware"
	"bakery-shop-backend/internal/service"
)

// Services groups everything the API routes need.
type Services struct {
	Verifier  service.TokenVerifier
	Orders    *service.OrderService
	Catalog   *service.CatalogService
	Carts     *service.CartService
	Addresses *service.AddressService
	Payments  *service.PaymentService
	Users     *service.UserService
	Rewards   *service.RewardService
}

// RegisterRoutes mounts the API under /api.
func RegisterRoutes(r gin.IRouter, s Services) {
	orders := NewOrderController(s.Orders)
	catalog := NewCatalogController(s.Catalog)
	carts := NewCartController(s.Carts)
	addresses := NewAddressController(s.Addresses)
	payments := NewPaymentController(s.Payments)
	users := NewUserController(s.Users, s.Rewards)

	api := r.Group("/api")

	// Public catalog
	api.GET("/products", catalog.ListProducts)
	api.GET("/products/:id", catalog.GetProduct)
	api.GET("/categories", catalog.ListCategories)
	api.GET("/categories/:id", catalog.GetCategory)

	auth := api.Group("", middleware.AuthMiddleware(s.Verifier))
	{
		auth.POST("/orders", orders.CreateOrder)
		auth.GET("/orders", orders.GetMyOrders)
		auth.GET("/orders/:id", orders.GetOrder)
		auth.PUT("/orders/:id/cancel", orders.CancelOrder)
		auth.PUT("/orders/:id/status", middleware.AdminOnly(), orders.UpdateStatus)
		auth.GET("/admin/orders", middleware.AdminOnly(), orders.GetAllOrders)

		auth.GET("/rewards", users.GetRewards)
		auth.POST("/rewards/redeem", users.RedeemReward)

		auth.GET("/cart", carts.GetCart)
		auth.POST("/cart", carts.AddItem)
		auth.DELETE("/cart", carts.Clear)
		auth.PUT("/cart/:productId", carts.UpdateItem)
		auth.DELETE("/cart/:productId", carts.RemoveItem)

		auth.GET("/addresses", addresses.List)
		auth.POST("/addresses", addresses.Create)
		auth.PUT("/addresses/:id", addresses.Update)
		auth.DELETE("/addresses/:id", addresses.Delete)
		auth.PUT("/addresses/:id/default", addresses.SetDefault)

		auth.GET("/payments", payments.List)
		auth.POST("/payments", payments.Create)
		auth.DELETE("/payments/:id", payments.Delete)
		auth.PUT("/payments/:id/default", payments.SetDefault)

		auth.GET("/users/favourites", users.GetFavourites)
		auth.POST("/users/favourites/:productId", users.AddFavourite)
		auth.DELETE("/users/favourites/:productId", users.RemoveFavourite)
		auth.GET("/users/stats", users.GetStats)
	}
}
