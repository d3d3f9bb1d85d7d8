package services

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/kendall-kelly/tailorly-api/logger"
	"github.com/kendall-kelly/tailorly-api/models"
	"github.com/kendall-kelly/tailorly-api/realtime"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EarthRadiusKm is the mean Earth radius used by CalculateDistance.
const EarthRadiusKm = 6371.0

// TrackingUpdateInput is one location report for an order.
type TrackingUpdateInput struct {
	OrderID   uint
	Latitude  float64
	Longitude float64
	Address   *string
	Status    models.TrackingStatus
	UpdatedBy uint // users.id
}

// TrackingService appends delivery locations and pushes them to subscribers.
type TrackingService struct {
	db     *gorm.DB
	broker realtime.Broker
}

func NewTrackingService(db *gorm.DB, broker realtime.Broker) *TrackingService {
	return &TrackingService{db: db, broker: broker}
}

func validCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180 &&
		!math.IsNaN(lat) && !math.IsNaN(lon)
}

// UpdateDeliveryLocation appends a tracking row and publishes it on tracking:<order id>.
func (s *TrackingService) UpdateDeliveryLocation(ctx context.Context, in TrackingUpdateInput) (*models.DeliveryTracking, error) {
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}
	if !validCoordinate(in.Latitude, in.Longitude) {
		return nil, fmt.Errorf("%w: coordinate out of range", ErrInvalidInput)
	}

	var order models.Order
	if err := s.db.WithContext(ctx).Select("id").First(&order, in.OrderID).Error; err != nil {
		return nil, fmt.Errorf("order %d: %w", in.OrderID, notFound(err))
	}

	row := models.DeliveryTracking{
		OrderID:   in.OrderID,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Address:   in.Address,
		Status:    in.Status,
		UpdatedBy: in.UpdatedBy,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("create tracking: %w", err)
	}

	if s.broker != nil {
		if err := s.broker.Publish(ctx, realtime.TrackingTopic(in.OrderID), row); err != nil {
			logger.Warn(ctx, "Tracking update not pushed", zap.Uint("order_id", in.OrderID), zap.Error(err))
		}
	}
	return &row, nil
}

// GetDeliveryTracking returns an order's tracking rows newest first.
func (s *TrackingService) GetDeliveryTracking(ctx context.Context, orderID uint) ([]models.DeliveryTracking, error) {
	var rows []models.DeliveryTracking
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at DESC, id DESC").Find(&rows).Error
	return rows, err
}

func (s *TrackingService) GetLatestTracking(ctx context.Context, orderID uint) (*models.DeliveryTracking, error) {
	var row models.DeliveryTracking
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at DESC, id DESC").First(&row).Error
	if err != nil {
		return nil, fmt.Errorf("tracking for order %d: %w", orderID, notFound(err))
	}
	return &row, nil
}

// SubscribeToTracking streams tracking rows inserted for orderID.
func (s *TrackingService) SubscribeToTracking(ctx context.Context, orderID uint) (*realtime.Subscription, error) {
	return s.broker.Subscribe(ctx, realtime.TrackingTopic(orderID))
}

// CalculateDistance returns the great-circle distance in kilometres between
// two coordinates given in degrees.
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// MapsURL links to a coordinate on Google Maps.
func MapsURL(lat, lon float64) string {
	return "https://www.google.com/maps?q=" +
		strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lon, 'f', 6, 64)
}
