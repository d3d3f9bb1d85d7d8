package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailorly-api/config"
	"github.com/kendall-kelly/tailorly-api/models"
	"github.com/kendall-kelly/tailorly-api/realtime"
	"github.com/kendall-kelly/tailorly-api/services"
)

// TrackingUpdateRequest is a location report from the delivering tailor.
type TrackingUpdateRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
	Address   *string  `json:"address"`
	Status    string   `json:"status" binding:"required,tracking_status"`
}

// TrackingView is the latest location with distance to an optional destination.
type TrackingView struct {
	models.DeliveryTracking
	MapsURL    string   `json:"maps_url"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

func trackingService() *services.TrackingService {
	return services.NewTrackingService(config.GetDB(), realtime.GetBroker())
}

// UpdateTracking handles POST /api/v1/orders/:id/tracking (the order's tailor or an admin).
func UpdateTracking(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req TrackingUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	order, ok := loadOrder(c, sess)
	if !ok {
		return
	}
	if sess.Role == models.RoleCustomer {
		respondErrorCode(c, http.StatusForbidden, "FORBIDDEN", "Only the tailor can report delivery progress")
		return
	}

	row, err := trackingService().UpdateDeliveryLocation(c.Request.Context(), services.TrackingUpdateInput{
		OrderID:   order.ID,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Address:   req.Address,
		Status:    models.TrackingStatus(req.Status),
		UpdatedBy: sess.UserID(),
	})
	if err != nil {
		respondError(c, err, "tracking")
		return
	}
	respondOK(c, http.StatusCreated, row)
}

// ListTracking handles GET /api/v1/orders/:id/tracking - newest first.
func ListTracking(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	order, ok := loadOrder(c, sess)
	if !ok {
		return
	}

	rows, err := trackingService().GetDeliveryTracking(c.Request.Context(), order.ID)
	if err != nil {
		respondError(c, err, "tracking")
		return
	}
	respondOK(c, http.StatusOK, rows)
}

// GetLatestTracking handles GET /api/v1/orders/:id/tracking/latest. With lat
// and lon query parameters the response includes the distance to that point.
func GetLatestTracking(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var q struct {
		Lat *float64 `form:"lat" binding:"omitempty,gte=-90,lte=90"`
		Lon *float64 `form:"lon" binding:"omitempty,gte=-180,lte=180"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		respondValidation(c, err)
		return
	}

	order, ok := loadOrder(c, sess)
	if !ok {
		return
	}

	row, err := trackingService().GetLatestTracking(c.Request.Context(), order.ID)
	if err != nil {
		respondError(c, err, "tracking")
		return
	}

	view := TrackingView{
		DeliveryTracking: *row,
		MapsURL:          services.MapsURL(row.Latitude, row.Longitude),
	}
	if q.Lat != nil && q.Lon != nil {
		d := services.CalculateDistance(row.Latitude, row.Longitude, *q.Lat, *q.Lon)
		view.DistanceKm = &d
	}
	respondOK(c, http.StatusOK, view)
}

// StreamTracking handles GET /api/v1/orders/:id/tracking/stream - pushes each
// new location as a server-sent event.
func StreamTracking(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	order, ok := loadOrder(c, sess)
	if !ok {
		return
	}

	sub, err := trackingService().SubscribeToTracking(c.Request.Context(), order.ID)
	if err != nil {
		respondError(c, err, "tracking")
		return
	}
	streamSubscription(c, sub, "tracking")
}
