package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailorly-api/config"
	"github.com/kendall-kelly/tailorly-api/services"
)

// MeasurementRequest holds body measurements in centimetres.
type MeasurementRequest struct {
	HeightCm    *float64 `json:"height_cm" binding:"omitempty,gt=0"`
	BustCm      *float64 `json:"bust_cm" binding:"omitempty,gt=0"`
	WaistCm     *float64 `json:"waist_cm" binding:"omitempty,gt=0"`
	HipCm       *float64 `json:"hip_cm" binding:"omitempty,gt=0"`
	ShoulderCm  *float64 `json:"shoulder_cm" binding:"omitempty,gt=0"`
	ArmLengthCm *float64 `json:"arm_length_cm" binding:"omitempty,gt=0"`
	InseamCm    *float64 `json:"inseam_cm" binding:"omitempty,gt=0"`
	ChestCm     *float64 `json:"chest_cm" binding:"omitempty,gt=0"`
	NeckCm      *float64 `json:"neck_cm" binding:"omitempty,gt=0"`
	Notes       *string  `json:"notes"`
	IsPrimary   bool     `json:"is_primary"`
}

func (r MeasurementRequest) input() services.MeasurementInput {
	return services.MeasurementInput{
		HeightCm:    r.HeightCm,
		BustCm:      r.BustCm,
		WaistCm:     r.WaistCm,
		HipCm:       r.HipCm,
		ShoulderCm:  r.ShoulderCm,
		ArmLengthCm: r.ArmLengthCm,
		InseamCm:    r.InseamCm,
		ChestCm:     r.ChestCm,
		NeckCm:      r.NeckCm,
		Notes:       r.Notes,
		IsPrimary:   r.IsPrimary,
	}
}

func measurementService() *services.MeasurementService {
	return services.NewMeasurementService(config.GetDB())
}

// ListMeasurements handles GET /api/v1/measurements - the customer's sets, newest first.
func ListMeasurements(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	list, err := measurementService().List(c.Request.Context(), sess.ProfileID())
	if err != nil {
		respondError(c, err, "measurement")
		return
	}
	respondOK(c, http.StatusOK, list)
}

// CreateMeasurement handles POST /api/v1/measurements.
func CreateMeasurement(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req MeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	m, err := measurementService().Create(c.Request.Context(), sess.ProfileID(), req.input())
	if err != nil {
		respondError(c, err, "measurement")
		return
	}
	respondOK(c, http.StatusCreated, m)
}

// UpdateMeasurement handles PUT /api/v1/measurements/:id.
func UpdateMeasurement(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req MeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	m, err := measurementService().Update(c.Request.Context(), sess.ProfileID(), id, req.input())
	if err != nil {
		respondError(c, err, "measurement")
		return
	}
	respondOK(c, http.StatusOK, m)
}

// DeleteMeasurement handles DELETE /api/v1/measurements/:id.
func DeleteMeasurement(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := measurementService().Delete(c.Request.Context(), sess.ProfileID(), id); err != nil {
		respondError(c, err, "measurement")
		return
	}
	c.Status(http.StatusNoContent)
}

// SetPrimaryMeasurement handles POST /api/v1/measurements/:id/primary.
func SetPrimaryMeasurement(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	m, err := measurementService().SetPrimary(c.Request.Context(), sess.ProfileID(), id)
	if err != nil {
		respondError(c, err, "measurement")
		return
	}
	respondOK(c, http.StatusOK, m)
}
