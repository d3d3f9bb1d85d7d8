package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/kendall-kelly/tailorly-api/models"
	"gorm.io/gorm"
)

// DefaultTailorListLimit caps ListVerifiedTailors when no limit is given.
const DefaultTailorListLimit = 20

// TailorDetail is a tailor profile with its published reviews.
type TailorDetail struct {
	Tailor  models.TailorProfile  `json:"tailor"`
	Reviews []models.TailorReview `json:"reviews"`
}

// NearbyTailor is a tailor whose service radius covers the search point.
type NearbyTailor struct {
	models.TailorProfile
	DistanceKm float64 `json:"distance_km"`
	MapsURL    string  `json:"maps_url"`
}

// CreateReviewInput is a customer's rating of a tailor.
type CreateReviewInput struct {
	TailorID   uint
	CustomerID uint
	OrderID    *uint
	Rating     int
	Title      *string
	Comment    *string
}

// ProfileService serves tailor discovery and reviews.
type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// ListVerifiedTailors returns verified tailors by rating, best first.
func (s *ProfileService) ListVerifiedTailors(ctx context.Context, limit int) ([]models.TailorProfile, error) {
	if limit <= 0 {
		limit = DefaultTailorListLimit
	}
	var tailors []models.TailorProfile
	err := s.db.WithContext(ctx).
		Where("is_verified = ?", true).
		Order("rating DESC, id ASC").
		Limit(limit).
		Find(&tailors).Error
	return tailors, err
}

func (s *ProfileService) GetTailor(ctx context.Context, id uint) (*TailorDetail, error) {
	var detail TailorDetail
	if err := s.db.WithContext(ctx).First(&detail.Tailor, id).Error; err != nil {
		return nil, fmt.Errorf("tailor %d: %w", id, notFound(err))
	}
	err := s.db.WithContext(ctx).
		Where("tailor_id = ? AND is_published = ?", id, true).
		Order("created_at DESC, id DESC").
		Find(&detail.Reviews).Error
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindNearbyTailors returns verified tailors whose service radius contains
// the point, nearest first.
func (s *ProfileService) FindNearbyTailors(ctx context.Context, lat, lon float64) ([]NearbyTailor, error) {
	if !validCoordinate(lat, lon) {
		return nil, fmt.Errorf("%w: coordinate out of range", ErrInvalidInput)
	}

	var tailors []models.TailorProfile
	err := s.db.WithContext(ctx).
		Where("is_verified = ? AND latitude IS NOT NULL AND longitude IS NOT NULL", true).
		Find(&tailors).Error
	if err != nil {
		return nil, err
	}

	nearby := make([]NearbyTailor, 0, len(tailors))
	for _, t := range tailors {
		d := CalculateDistance(lat, lon, *t.Latitude, *t.Longitude)
		if d <= t.ServiceRadiusKm {
			nearby = append(nearby, NearbyTailor{
				TailorProfile: t,
				DistanceKm:    d,
				MapsURL:       MapsURL(*t.Latitude, *t.Longitude),
			})
		}
	}
	slices.SortFunc(nearby, func(a, b NearbyTailor) int {
		switch {
		case a.DistanceKm < b.DistanceKm:
			return -1
		case a.DistanceKm > b.DistanceKm:
			return 1
		}
		return int(a.ID) - int(b.ID)
	})
	return nearby, nil
}

// CreateReview stores a published review. When an order is referenced it
// must be between the same customer and tailor.
func (s *ProfileService) CreateReview(ctx context.Context, in CreateReviewInput) (*models.TailorReview, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	if in.Comment != nil {
		c := strings.TrimSpace(*in.Comment)
		in.Comment = &c
	}

	db := s.db.WithContext(ctx)
	var tailor models.TailorProfile
	if err := db.Select("id").First(&tailor, in.TailorID).Error; err != nil {
		return nil, fmt.Errorf("tailor %d: %w", in.TailorID, notFound(err))
	}
	if in.OrderID != nil {
		var order models.Order
		if err := db.First(&order, *in.OrderID).Error; err != nil {
			return nil, fmt.Errorf("order %d: %w", *in.OrderID, notFound(err))
		}
		if order.CustomerID != in.CustomerID || order.TailorID != in.TailorID {
			return nil, fmt.Errorf("%w: order %d is not between this customer and tailor", ErrForbidden, order.ID)
		}
	}

	review := models.TailorReview{
		TailorID:    in.TailorID,
		CustomerID:  in.CustomerID,
		OrderID:     in.OrderID,
		Rating:      in.Rating,
		Title:       in.Title,
		Comment:     in.Comment,
		IsPublished: true,
	}
	if err := db.Create(&review).Error; err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return &review, nil
}

// GetCustomerProfile is used by tailors viewing who placed an order.
func (s *ProfileService) GetCustomerProfile(ctx context.Context, id uint) (*models.CustomerProfile, error) {
	var p models.CustomerProfile
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, fmt.Errorf("customer %d: %w", id, notFound(err))
	}
	return &p, nil
}
