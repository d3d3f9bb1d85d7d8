package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kendall-kelly/tailorly-api/cache"
	"github.com/kendall-kelly/tailorly-api/logger"
	"github.com/kendall-kelly/tailorly-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Session is the signed-in identity with its role and exactly one profile.
type Session struct {
	Identity string                  `json:"identity"`
	User     models.User             `json:"user"`
	Role     models.Role             `json:"role"`
	Customer *models.CustomerProfile `json:"customer_profile,omitempty"`
	Tailor   *models.TailorProfile   `json:"tailor_profile,omitempty"`
	Admin    *models.AdminProfile    `json:"admin_profile,omitempty"`
}

// UserID is the users.id of the signed-in identity.
func (s *Session) UserID() uint {
	return s.User.ID
}

// ProfileID is the id of the role's profile row.
func (s *Session) ProfileID() uint {
	switch {
	case s.Customer != nil:
		return s.Customer.ID
	case s.Tailor != nil:
		return s.Tailor.ID
	case s.Admin != nil:
		return s.Admin.ID
	}
	return 0
}

func (s *Session) FullName() string {
	switch {
	case s.Customer != nil:
		return s.Customer.FullName
	case s.Tailor != nil:
		return s.Tailor.FullName
	case s.Admin != nil:
		return s.Admin.FullName
	}
	return ""
}

// SenderType is how this session signs chat and dispute messages.
func (s *Session) SenderType() models.SenderType {
	return models.SenderType(s.Role)
}

// IsParty reports whether the session is the given customer or tailor, or an admin.
func (s *Session) IsParty(customerID, tailorID uint) bool {
	switch s.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCustomer:
		return s.Customer != nil && s.Customer.ID == customerID
	case models.RoleTailor:
		return s.Tailor != nil && s.Tailor.ID == tailorID
	}
	return false
}

// SignUpInput is the profile data captured at sign-up.
type SignUpInput struct {
	Email        string
	FullName     string
	Role         models.Role
	Phone        *string
	BusinessName string
	Address      string
	City         string
	State        string
	PostalCode   string
	Country      *string
}

// ProfileUpdate holds optional profile fields; nil means unchanged.
// Fields that do not apply to the session's role are ignored.
type ProfileUpdate struct {
	FullName         *string
	Phone            *string
	Address          *string
	City             *string
	State            *string
	PostalCode       *string
	Country          *string
	Bio              *string
	ProfileImageKey  *string
	PreferredStyle   *string
	BudgetPreference *string
	BusinessName     *string
	BusinessImageKey *string
	Specializations  []string
	ExperienceYears  *int
	ServiceRadiusKm  *float64
	Latitude         *float64
	Longitude        *float64
	Permissions      []string
}

// SessionStore builds sessions from the database, optionally through a cache.
type SessionStore struct {
	db    *gorm.DB
	cache cache.Store
	ttl   time.Duration
}

// NewSessionStore returns a store. A nil cache disables caching.
func NewSessionStore(db *gorm.DB, c cache.Store, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{db: db, cache: c, ttl: ttl}
}

// DefaultSessionTTL applies when no TTL is configured.
const DefaultSessionTTL = 15 * time.Minute

var (
	sessionCacheInstance cache.Store
	sessionCacheMu       sync.RWMutex
)

// GetSessionCache returns the process-wide session cache, or nil when caching is off.
func GetSessionCache() cache.Store {
	sessionCacheMu.RLock()
	defer sessionCacheMu.RUnlock()
	return sessionCacheInstance
}

// SetSessionCache replaces the process-wide session cache.
func SetSessionCache(c cache.Store) {
	sessionCacheMu.Lock()
	sessionCacheInstance = c
	sessionCacheMu.Unlock()
}

func sessionKey(identity string) string {
	return "session:" + identity
}

// Initialize returns the session for identity. An identity with no user
// record yields ErrNotFound.
func (s *SessionStore) Initialize(ctx context.Context, identity string) (*Session, error) {
	if identity == "" {
		return nil, fmt.Errorf("%w: empty identity", ErrInvalidInput)
	}
	if sess, ok := s.cached(ctx, identity); ok {
		return sess, nil
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("auth0_id = ?", identity).First(&user).Error; err != nil {
		return nil, fmt.Errorf("user %s: %w", identity, notFound(err))
	}

	sess, err := s.load(ctx, s.db.WithContext(ctx), identity, user)
	if err != nil {
		return nil, err
	}
	s.store(ctx, sess)
	return sess, nil
}

func (s *SessionStore) load(ctx context.Context, db *gorm.DB, identity string, user models.User) (*Session, error) {
	sess := &Session{Identity: identity, User: user, Role: user.Role}

	var err error
	switch user.Role {
	case models.RoleCustomer:
		sess.Customer = &models.CustomerProfile{}
		err = db.Where("user_id = ?", user.ID).First(sess.Customer).Error
	case models.RoleTailor:
		sess.Tailor = &models.TailorProfile{}
		err = db.Where("user_id = ?", user.ID).First(sess.Tailor).Error
	case models.RoleAdmin:
		sess.Admin = &models.AdminProfile{}
		err = db.Where("user_id = ?", user.ID).First(sess.Admin).Error
	default:
		return nil, fmt.Errorf("%w: user %d has role %q", ErrInvalidInput, user.ID, user.Role)
	}
	if err != nil {
		logger.Warn(ctx, "User has no profile for role", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
		return nil, fmt.Errorf("%s profile for user %d: %w", user.Role, user.ID, notFound(err))
	}
	return sess, nil
}

// SignUp creates the user and its role's profile in one transaction.
func (s *SessionStore) SignUp(ctx context.Context, identity string, in SignUpInput) (*Session, error) {
	if identity == "" {
		return nil, fmt.Errorf("%w: empty identity", ErrInvalidInput)
	}
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if in.Email == "" || in.FullName == "" {
		return nil, fmt.Errorf("%w: email and full name are required", ErrInvalidInput)
	}
	if in.Role == "" {
		in.Role = models.RoleCustomer
	}
	switch in.Role {
	case models.RoleCustomer, models.RoleTailor:
	case models.RoleAdmin:
		return nil, fmt.Errorf("%w: admin accounts cannot self-register", ErrForbidden)
	default:
		return nil, fmt.Errorf("%w: role %q", ErrInvalidInput, in.Role)
	}

	var sess *Session
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := models.User{Auth0ID: identity, Email: in.Email, Role: in.Role}
		if err := tx.Create(&user).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: a user with this identity or email", ErrConflict)
			}
			return err
		}

		sess = &Session{Identity: identity, User: user, Role: user.Role}
		switch in.Role {
		case models.RoleCustomer:
			sess.Customer = &models.CustomerProfile{
				UserID:     user.ID,
				FullName:   in.FullName,
				Email:      in.Email,
				Phone:      in.Phone,
				Country:    in.Country,
				Address:    optional(in.Address),
				City:       optional(in.City),
				State:      optional(in.State),
				PostalCode: optional(in.PostalCode),
			}
			return tx.Create(sess.Customer).Error
		default:
			var phone string
			if in.Phone != nil {
				phone = *in.Phone
			}
			sess.Tailor = &models.TailorProfile{
				UserID:          user.ID,
				FullName:        in.FullName,
				Email:           in.Email,
				Phone:           phone,
				BusinessName:    in.BusinessName,
				Address:         in.Address,
				City:            in.City,
				State:           in.State,
				PostalCode:      in.PostalCode,
				Country:         in.Country,
				Specializations: []string{},
				ServiceRadiusKm: 10,
			}
			return tx.Create(sess.Tailor).Error
		}
	})
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	logger.Info(ctx, "User signed up", zap.Uint("user_id", sess.User.ID), zap.String("role", string(sess.Role)))
	s.store(ctx, sess)
	return sess, nil
}

// SignOut evicts the cached session.
func (s *SessionStore) SignOut(ctx context.Context, identity string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, sessionKey(identity))
}

// UpdateProfile writes the fields that apply to the session's role. The role
// itself never changes.
func (s *SessionStore) UpdateProfile(ctx context.Context, sess *Session, in ProfileUpdate) (*Session, error) {
	db := s.db.WithContext(ctx)

	var err error
	switch sess.Role {
	case models.RoleCustomer:
		p := *sess.Customer
		if cols := applyCustomerUpdate(&p, in); len(cols) > 0 {
			err = db.Model(&p).Select(cols).Updates(&p).Error
		}
	case models.RoleTailor:
		p := *sess.Tailor
		if cols := applyTailorUpdate(&p, in); len(cols) > 0 {
			err = db.Model(&p).Select(cols).Updates(&p).Error
		}
	case models.RoleAdmin:
		p := *sess.Admin
		if cols := applyAdminUpdate(&p, in); len(cols) > 0 {
			err = db.Model(&p).Select(cols).Updates(&p).Error
		}
	default:
		return nil, fmt.Errorf("%w: role %q", ErrInvalidInput, sess.Role)
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	fresh, err := s.load(ctx, db, sess.Identity, sess.User)
	if err != nil {
		return nil, err
	}
	s.store(ctx, fresh)
	return fresh, nil
}

func (s *SessionStore) cached(ctx context.Context, identity string) (*Session, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, ok, err := s.cache.Get(ctx, sessionKey(identity))
	if err != nil {
		logger.Warn(ctx, "Session cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, false
	}
	return &sess, true
}

func (s *SessionStore) store(ctx context.Context, sess *Session) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, sessionKey(sess.Identity), raw, s.ttl); err != nil {
		logger.Warn(ctx, "Session cache write failed", zap.Error(err))
	}
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func applyCustomerUpdate(p *models.CustomerProfile, in ProfileUpdate) []string {
	var cols []string
	set := func(col string, dst **string, v *string) {
		if v != nil {
			*dst = v
			cols = append(cols, col)
		}
	}
	if in.FullName != nil && strings.TrimSpace(*in.FullName) != "" {
		p.FullName = strings.TrimSpace(*in.FullName)
		cols = append(cols, "full_name")
	}
	set("phone", &p.Phone, in.Phone)
	set("address", &p.Address, in.Address)
	set("city", &p.City, in.City)
	set("state", &p.State, in.State)
	set("postal_code", &p.PostalCode, in.PostalCode)
	set("country", &p.Country, in.Country)
	set("bio", &p.Bio, in.Bio)
	set("profile_image_key", &p.ProfileImageKey, in.ProfileImageKey)
	set("preferred_style", &p.PreferredStyle, in.PreferredStyle)
	set("budget_preference", &p.BudgetPreference, in.BudgetPreference)
	return cols
}

func applyTailorUpdate(p *models.TailorProfile, in ProfileUpdate) []string {
	var cols []string
	setString := func(col string, dst *string, v *string) {
		if v != nil {
			*dst = *v
			cols = append(cols, col)
		}
	}
	setOptional := func(col string, dst **string, v *string) {
		if v != nil {
			*dst = v
			cols = append(cols, col)
		}
	}
	if in.FullName != nil && strings.TrimSpace(*in.FullName) != "" {
		p.FullName = strings.TrimSpace(*in.FullName)
		cols = append(cols, "full_name")
	}
	setString("phone", &p.Phone, in.Phone)
	setString("business_name", &p.BusinessName, in.BusinessName)
	setString("address", &p.Address, in.Address)
	setString("city", &p.City, in.City)
	setString("state", &p.State, in.State)
	setString("postal_code", &p.PostalCode, in.PostalCode)
	setOptional("country", &p.Country, in.Country)
	setOptional("bio", &p.Bio, in.Bio)
	setOptional("profile_image_key", &p.ProfileImageKey, in.ProfileImageKey)
	setOptional("business_image_key", &p.BusinessImageKey, in.BusinessImageKey)
	if in.Specializations != nil {
		p.Specializations = in.Specializations
		cols = append(cols, "specializations")
	}
	if in.ExperienceYears != nil {
		p.ExperienceYears = in.ExperienceYears
		cols = append(cols, "experience_years")
	}
	if in.ServiceRadiusKm != nil && *in.ServiceRadiusKm > 0 {
		p.ServiceRadiusKm = *in.ServiceRadiusKm
		cols = append(cols, "service_radius_km")
	}
	if in.Latitude != nil && in.Longitude != nil && validCoordinate(*in.Latitude, *in.Longitude) {
		p.Latitude, p.Longitude = in.Latitude, in.Longitude
		cols = append(cols, "latitude", "longitude")
	}
	return cols
}

func applyAdminUpdate(p *models.AdminProfile, in ProfileUpdate) []string {
	var cols []string
	if in.FullName != nil && strings.TrimSpace(*in.FullName) != "" {
		p.FullName = strings.TrimSpace(*in.FullName)
		cols = append(cols, "full_name")
	}
	if in.Permissions != nil {
		p.Permissions = in.Permissions
		cols = append(cols, "permissions")
	}
	return cols
}
