package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailorly-api/config"
	"github.com/kendall-kelly/tailorly-api/models"
	"github.com/kendall-kelly/tailorly-api/services"
)

// CreateReviewRequest represents the request body for reviewing a tailor.
type CreateReviewRequest struct {
	OrderID *uint   `json:"order_id"`
	Rating  int     `json:"rating" binding:"required,min=1,max=5"`
	Title   *string `json:"title"`
	Comment *string `json:"comment"`
}

func profileService() *services.ProfileService {
	return services.NewProfileService(config.GetDB())
}

// ListTailors handles GET /api/v1/tailors - verified tailors by rating.
func ListTailors(c *gin.Context) {
	var q struct {
		Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		respondValidation(c, err)
		return
	}

	tailors, err := profileService().ListVerifiedTailors(c.Request.Context(), q.Limit)
	if err != nil {
		respondError(c, err, "tailor")
		return
	}
	respondOK(c, http.StatusOK, tailors)
}

// NearbyTailors handles GET /api/v1/tailors/nearby?lat=&lon= - tailors whose
// service radius covers the point, nearest first.
func NearbyTailors(c *gin.Context) {
	var q struct {
		Lat *float64 `form:"lat" binding:"required"`
		Lon *float64 `form:"lon" binding:"required"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		respondValidation(c, err)
		return
	}

	nearby, err := profileService().FindNearbyTailors(c.Request.Context(), *q.Lat, *q.Lon)
	if err != nil {
		respondError(c, err, "tailor")
		return
	}
	respondOK(c, http.StatusOK, nearby)
}

// GetTailor handles GET /api/v1/tailors/:id - the profile with published reviews.
func GetTailor(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := profileService().GetTailor(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "tailor")
		return
	}
	respondOK(c, http.StatusOK, detail)
}

// CreateReview handles POST /api/v1/tailors/:id/reviews (customers only).
func CreateReview(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	review, err := profileService().CreateReview(c.Request.Context(), services.CreateReviewInput{
		TailorID:   id,
		CustomerID: sess.ProfileID(),
		OrderID:    req.OrderID,
		Rating:     req.Rating,
		Title:      req.Title,
		Comment:    req.Comment,
	})
	if err != nil {
		respondError(c, err, "tailor")
		return
	}
	respondOK(c, http.StatusCreated, review)
}

// GetCustomer handles GET /api/v1/customers/:id. Tailors may only view
// customers who have placed an order with them.
func GetCustomer(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if sess.Role == models.RoleTailor {
		var n int64
		err := config.GetDB().WithContext(ctx).Model(&models.Order{}).
			Where("customer_id = ? AND tailor_id = ?", id, sess.ProfileID()).
			Count(&n).Error
		if err != nil {
			respondError(c, err, "customer")
			return
		}
		if n == 0 {
			respondErrorCode(c, http.StatusForbidden, "FORBIDDEN", "You can only view customers who ordered from you")
			return
		}
	}

	profile, err := profileService().GetCustomerProfile(ctx, id)
	if err != nil {
		respondError(c, err, "customer")
		return
	}
	respondOK(c, http.StatusOK, profile)
}
