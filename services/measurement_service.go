package services

import (
	"context"
	"fmt"

	"github.com/kendall-kelly/tailorly-api/models"
	"gorm.io/gorm"
)

// MeasurementInput holds body measurements in centimetres; nil leaves a value unset.
type MeasurementInput struct {
	HeightCm    *float64
	BustCm      *float64
	WaistCm     *float64
	HipCm       *float64
	ShoulderCm  *float64
	ArmLengthCm *float64
	InseamCm    *float64
	ChestCm     *float64
	NeckCm      *float64
	Notes       *string
	IsPrimary   bool
}

func (in MeasurementInput) validate() error {
	for _, v := range []*float64{in.HeightCm, in.BustCm, in.WaistCm, in.HipCm, in.ShoulderCm, in.ArmLengthCm, in.InseamCm, in.ChestCm, in.NeckCm} {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%w: measurements must be positive", ErrInvalidInput)
		}
	}
	return nil
}

func (in MeasurementInput) apply(m *models.Measurement) {
	m.HeightCm = in.HeightCm
	m.BustCm = in.BustCm
	m.WaistCm = in.WaistCm
	m.HipCm = in.HipCm
	m.ShoulderCm = in.ShoulderCm
	m.ArmLengthCm = in.ArmLengthCm
	m.InseamCm = in.InseamCm
	m.ChestCm = in.ChestCm
	m.NeckCm = in.NeckCm
	m.Notes = in.Notes
}

type MeasurementService struct {
	db *gorm.DB
}

func NewMeasurementService(db *gorm.DB) *MeasurementService {
	return &MeasurementService{db: db}
}

// List returns a customer's measurement sets newest first.
func (s *MeasurementService) List(ctx context.Context, customerID uint) ([]models.Measurement, error) {
	var out []models.Measurement
	err := s.db.WithContext(ctx).Where("customer_id = ?", customerID).Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

// Get returns one of the customer's measurement sets.
func (s *MeasurementService) Get(ctx context.Context, customerID, id uint) (*models.Measurement, error) {
	var m models.Measurement
	if err := s.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&m, id).Error; err != nil {
		return nil, fmt.Errorf("measurement %d: %w", id, notFound(err))
	}
	return &m, nil
}

// Create stores a measurement set. A customer's first set is always primary.
func (s *MeasurementService) Create(ctx context.Context, customerID uint, in MeasurementInput) (*models.Measurement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	m := models.Measurement{CustomerID: customerID}
	in.apply(&m)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Measurement{}).Where("customer_id = ?", customerID).Count(&existing).Error; err != nil {
			return err
		}
		m.IsPrimary = existing == 0 || in.IsPrimary
		if m.IsPrimary && existing > 0 {
			if err := clearPrimary(tx, customerID); err != nil {
				return err
			}
		}
		return tx.Create(&m).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create measurement: %w", err)
	}
	return &m, nil
}

// Update replaces the values of a measurement set. The primary flag is
// managed through SetPrimary.
func (s *MeasurementService) Update(ctx context.Context, customerID, id uint, in MeasurementInput) (*models.Measurement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	m, err := s.Get(ctx, customerID, id)
	if err != nil {
		return nil, err
	}
	in.apply(m)
	err = s.db.WithContext(ctx).Model(m).
		Select("height_cm", "bust_cm", "waist_cm", "hip_cm", "shoulder_cm", "arm_length_cm", "inseam_cm", "chest_cm", "neck_cm", "notes").
		Updates(m).Error
	if err != nil {
		return nil, fmt.Errorf("update measurement: %w", err)
	}
	return m, nil
}

func (s *MeasurementService) Delete(ctx context.Context, customerID, id uint) error {
	res := s.db.WithContext(ctx).Where("customer_id = ?", customerID).Delete(&models.Measurement{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete measurement: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("measurement %d: %w", id, ErrNotFound)
	}
	return nil
}

// SetPrimary makes id the customer's only primary measurement set.
func (s *MeasurementService) SetPrimary(ctx context.Context, customerID, id uint) (*models.Measurement, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Measurement
		if err := tx.Where("customer_id = ?", customerID).First(&m, id).Error; err != nil {
			return fmt.Errorf("measurement %d: %w", id, notFound(err))
		}
		if err := clearPrimary(tx, customerID); err != nil {
			return err
		}
		return tx.Model(&models.Measurement{}).Where("id = ?", id).Update("is_primary", true).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, customerID, id)
}

func clearPrimary(tx *gorm.DB, customerID uint) error {
	return tx.Model(&models.Measurement{}).
		Where("customer_id = ? AND is_primary = ?", customerID, true).
		Update("is_primary", false).Error
}
