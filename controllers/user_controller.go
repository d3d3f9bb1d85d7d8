package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailorly-api/logger"
	"github.com/kendall-kelly/tailorly-api/middleware"
	"github.com/kendall-kelly/tailorly-api/models"
	"github.com/kendall-kelly/tailorly-api/services"
	"go.uber.org/zap"
)

// SignUpRequest carries the profile fields Auth0 does not provide. All are optional.
type SignUpRequest struct {
	Role         string  `json:"role" binding:"omitempty,oneof=customer tailor admin"`
	FullName     string  `json:"full_name"`
	Phone        *string `json:"phone"`
	BusinessName string  `json:"business_name"`
	Address      string  `json:"address"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	PostalCode   string  `json:"postal_code"`
	Country      *string `json:"country"`
}

// UpdateProfileRequest represents the request body for updating the caller's profile.
type UpdateProfileRequest struct {
	FullName         *string  `json:"full_name" binding:"omitempty,min=1"`
	Phone            *string  `json:"phone"`
	Address          *string  `json:"address"`
	City             *string  `json:"city"`
	State            *string  `json:"state"`
	PostalCode       *string  `json:"postal_code"`
	Country          *string  `json:"country"`
	Bio              *string  `json:"bio"`
	ProfileImageKey  *string  `json:"profile_image_key"`
	PreferredStyle   *string  `json:"preferred_style"`
	BudgetPreference *string  `json:"budget_preference"`
	BusinessName     *string  `json:"business_name"`
	BusinessImageKey *string  `json:"business_image_key"`
	Specializations  []string `json:"specializations"`
	ExperienceYears  *int     `json:"experience_years" binding:"omitempty,gte=0"`
	ServiceRadiusKm  *float64 `json:"service_radius_km" binding:"omitempty,gt=0"`
	Latitude         *float64 `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude        *float64 `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
}

// SignUp handles POST /api/v1/users - creates the caller's user and profile
// from Auth0 userinfo plus the optional request body.
func SignUp(c *gin.Context) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token")
		return
	}

	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		respondErrorCode(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
		return
	}

	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondValidation(c, err)
		return
	}

	userInfo, err := services.GetUserInfoFetcher().GetUserInfo(c.Request.Context(), accessToken)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to fetch Auth0 userinfo", err)
		respondErrorCode(c, http.StatusInternalServerError, "AUTH0_ERROR", "Failed to fetch user information from Auth0")
		return
	}
	if userInfo.Email == "" {
		respondErrorCode(c, http.StatusBadRequest, "MISSING_EMAIL", "Email not provided by Auth0")
		return
	}

	fullName := req.FullName
	if fullName == "" {
		fullName = userInfo.Name
	}
	if fullName == "" {
		respondErrorCode(c, http.StatusBadRequest, "MISSING_NAME", "Name not provided by Auth0 or request")
		return
	}

	role := models.Role(req.Role)
	if role == "" {
		role = models.RoleCustomer
		if claimed := middleware.ClaimedRole(c); claimed != "" {
			role = models.Role(claimed)
		}
	}

	sess, err := middleware.SessionStore().SignUp(c.Request.Context(), auth0ID, services.SignUpInput{
		Email:        userInfo.Email,
		FullName:     fullName,
		Role:         role,
		Phone:        req.Phone,
		BusinessName: req.BusinessName,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
	})
	if err != nil {
		respondError(c, err, "user")
		return
	}

	respondOK(c, http.StatusCreated, sess)
}

// GetMyProfile handles GET /api/v1/users/me - returns the caller's session.
func GetMyProfile(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	respondOK(c, http.StatusOK, sess)
}

// UpdateMyProfile handles PUT /api/v1/users/me - updates the caller's profile.
func UpdateMyProfile(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	updated, err := middleware.SessionStore().UpdateProfile(c.Request.Context(), sess, services.ProfileUpdate{
		FullName:         req.FullName,
		Phone:            req.Phone,
		Address:          req.Address,
		City:             req.City,
		State:            req.State,
		PostalCode:       req.PostalCode,
		Country:          req.Country,
		Bio:              req.Bio,
		ProfileImageKey:  req.ProfileImageKey,
		PreferredStyle:   req.PreferredStyle,
		BudgetPreference: req.BudgetPreference,
		BusinessName:     req.BusinessName,
		BusinessImageKey: req.BusinessImageKey,
		Specializations:  req.Specializations,
		ExperienceYears:  req.ExperienceYears,
		ServiceRadiusKm:  req.ServiceRadiusKm,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
	})
	if err != nil {
		respondError(c, err, "user")
		return
	}

	respondOK(c, http.StatusOK, updated)
}

// SignOut handles POST /api/v1/users/signout - drops the cached session.
func SignOut(c *gin.Context) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	if err := middleware.SessionStore().SignOut(c.Request.Context(), auth0ID); err != nil {
		logger.Warn(c.Request.Context(), "Failed to evict session", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Signed out",
	})
}
