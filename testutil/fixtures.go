package testutil

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/kendall-kelly/tailorly-api/config"
	"github.com/kendall-kelly/tailorly-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory SQLite database. The pool is pinned
// to one connection so every query sees the same in-memory database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// SeedCustomer creates a customer user with its profile.
func SeedCustomer(t *testing.T, db *gorm.DB, auth0ID, email string) (*models.User, *models.CustomerProfile) {
	t.Helper()
	user := &models.User{Auth0ID: auth0ID, Email: email, Role: models.RoleCustomer}
	mustCreate(t, db, user)
	profile := &models.CustomerProfile{UserID: user.ID, FullName: "Customer " + auth0ID, Email: email}
	mustCreate(t, db, profile)
	return user, profile
}

// SeedTailor creates a verified tailor user with its profile, optionally located.
func SeedTailor(t *testing.T, db *gorm.DB, auth0ID, email string, lat, lon *float64) (*models.User, *models.TailorProfile) {
	t.Helper()
	user := &models.User{Auth0ID: auth0ID, Email: email, Role: models.RoleTailor}
	mustCreate(t, db, user)
	profile := &models.TailorProfile{
		UserID:          user.ID,
		FullName:        "Tailor " + auth0ID,
		Email:           email,
		BusinessName:    "Stitch House",
		City:            "Mumbai",
		Specializations: []string{"sherwani", "lehenga"},
		IsVerified:      true,
		ServiceRadiusKm: 10,
		Latitude:        lat,
		Longitude:       lon,
	}
	mustCreate(t, db, profile)
	return user, profile
}

// SeedAdmin creates an admin user with its profile.
func SeedAdmin(t *testing.T, db *gorm.DB, auth0ID, email string) (*models.User, *models.AdminProfile) {
	t.Helper()
	user := &models.User{Auth0ID: auth0ID, Email: email, Role: models.RoleAdmin}
	mustCreate(t, db, user)
	profile := &models.AdminProfile{UserID: user.ID, FullName: "Admin " + auth0ID, Email: email, Permissions: []string{"disputes"}}
	mustCreate(t, db, profile)
	return user, profile
}

var orderSeq atomic.Int64

// SeedOrder creates a pending order with a single item worth total.
func SeedOrder(t *testing.T, db *gorm.DB, customerID, tailorID uint, total string) *models.Order {
	t.Helper()
	amount := decimal.RequireFromString(total)
	order := &models.Order{
		OrderNumber:      fmt.Sprintf("ORD-TEST-%d", orderSeq.Add(1)),
		CustomerID:       customerID,
		TailorID:         tailorID,
		Status:           models.OrderStatusPending,
		TotalAmount:      amount,
		DesignReferences: []string{},
	}
	mustCreate(t, db, order)
	mustCreate(t, db, &models.OrderItem{OrderID: order.ID, GarmentType: "kurta", Quantity: 1, UnitPrice: amount})
	return order
}

func mustCreate(t *testing.T, db *gorm.DB, v interface{}) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("Failed to seed %T: %v", v, err)
	}
}

// NewMultipartRequest builds a request carrying one file in form field "file".
func NewMultipartRequest(t *testing.T, method, url, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
