// Package store persists users, characters and scans with gorm.
package store

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"invscan/models"
)

// Role names seeded on startup.
const (
	RoleAdmin = "administrator"
	RoleUser  = "user"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// Store wraps the gorm handle used by the service, the worker and the tools.
type Store struct {
	db *gorm.DB
}

// New wraps an open gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open connects to Postgres.
func Open(dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("DB_DSN is not set; a Postgres DSN is required")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, errors.Wrap(err, "connect postgres")
	}
	return db, nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate creates the schema. Roles go first so the users FK can be applied; each
// table migrates on its own so one permission error doesn't block the others.
func (s *Store) Migrate() {
	if err := s.db.AutoMigrate(&models.Role{}); err != nil {
		log.Warn().Err(err).Str("table", "roles").Msg("migration warning")
	}
	s.seedRoles()
	for _, m := range []struct {
		table string
		model any
	}{
		{"users", &models.User{}},
		{"characters", &models.Character{}},
		{"scans", &models.Scan{}},
		{"scan_items", &models.ScanItem{}},
		{"refresh_tokens", &models.RefreshToken{}},
	} {
		if err := s.db.AutoMigrate(m.model); err != nil {
			log.Warn().Err(err).Str("table", m.table).Msg("migration warning")
		}
	}
}

func (s *Store) seedRoles() {
	roles := []models.Role{{Name: RoleAdmin, Description: "full access"}, {Name: RoleUser, Description: "regular user"}}
	for _, r := range roles {
		if err := s.db.Where("name = ?", r.Name).FirstOrCreate(&r).Error; err != nil {
			log.Warn().Err(err).Str("role", r.Name).Msg("seed role failed")
		}
	}
}

// Seed ensures master roles and the admin account (admin/admin123) with a default
// character exist.
func (s *Store) Seed() {
	s.seedRoles()
	var count int64
	s.db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		if _, err := s.CreateUser("admin", "admin123", RoleAdmin); err != nil {
			log.Error().Err(err).Msg("seed admin failed")
			return
		}
		log.Info().Msg("Seeded admin user: username=admin, password=admin123")
	}
	var admin models.User
	if err := s.db.Where("username = ?", "admin").First(&admin).Error; err != nil {
		log.Error().Err(err).Msg("failed to find admin user after seeding")
		return
	}
	if _, err := s.EnsureCharacter(admin.ID, "Administrator", ""); err != nil {
		log.Error().Err(err).Msg("failed to create character for admin")
	}
}

// CreateUser hashes password and stores a user with the named role.
func (s *Store) CreateUser(username, password, role string) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	r := models.Role{Name: role}
	if err := s.db.Where("name = ?", role).FirstOrCreate(&r).Error; err != nil {
		return nil, errors.Wrapf(err, "ensure role %s", role)
	}
	rid := r.ID
	u := models.User{Username: username, HashedPassword: hashed, RoleID: &rid}
	if err := s.db.Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// SetPassword replaces the password hash of username.
func (s *Store) SetPassword(username, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	res := s.db.Model(&models.User{}).Where("username = ?", username).Update("hashed_password", hashed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UserByName loads a user with its role.
func (s *Store) UserByName(username string) (*models.User, error) {
	var u models.User
	if err := s.db.Preload("Role").Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// IsUniqueConstraintError reports whether err came from a unique index violation.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "already exists")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
