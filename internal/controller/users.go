package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bakery-shop-backend/internal/dto"
	"bakery-shop-backend/internal/middleware"
	"bakery-shop-backend/internal/service"
)

type UserController struct {
	Users   *service.UserService
	Rewards *service.RewardService
}

func NewUserController(users *service.UserService, rewards *service.RewardService) *UserController {
	return &UserController{Users: users, Rewards: rewards}
}

func favouritesResponse(f *service.Favourites) dto.FavouritesResponse {
	return dto.FavouritesResponse{UserID: f.UserID, Products: dto.ToProductResponses(f.Products)}
}

// GET /api/users/favourites
func (ctl *UserController) GetFavourites(c *gin.Context) {
	f, err := ctl.Users.GetFavourites(c.Request.Context(), middleware.Identity(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(favouritesResponse(f)))
}

// POST /api/users/favourites/:productId
func (ctl *UserController) AddFavourite(c *gin.Context) {
	f, err := ctl.Users.AddFavourite(c.Request.Context(), middleware.Identity(c).UserID, c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(favouritesResponse(f)))
}

// DELETE /api/users/favourites/:productId
func (ctl *UserController) RemoveFavourite(c *gin.Context) {
	f, err := ctl.Users.RemoveFavourite(c.Request.Context(), middleware.Identity(c).UserID, c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(favouritesResponse(f)))
}

// GET /api/users/stats
func (ctl *UserController) GetStats(c *gin.Context) {
	st, err := ctl.Users.GetStats(c.Request.Context(), middleware.Identity(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.StatsResponse{
		TotalOrders:     st.TotalOrders,
		CompletedOrders: st.CompletedOrders,
		TotalSpent:      dto.Money(st.TotalSpent),
		RewardPoints:    st.RewardPoints,
		Tier:            string(st.Tier),
	}))
}

// GET /api/rewards
func (ctl *UserController) GetRewards(c *gin.Context) {
	r, err := ctl.Rewards.GetRewards(c.Request.Context(), middleware.Identity(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.RewardsResponse{
		Points: r.Points,
		Tier:   string(r.Tier),
		Offers: r.Offers,
	}))
}

// POST /api/rewards/redeem
func (ctl *UserController) RedeemReward(c *gin.Context) {
	var req dto.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	r, err := ctl.Rewards.RedeemReward(c.Request.Context(), middleware.Identity(c).UserID, req.OfferID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{
		Success: true,
		Message: "Reward redeemed successfully",
		Data:    dto.RedemptionResponse{Points: r.Points, RedeemedOffer: r.Offer},
	})
}
