package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/propertyhub/internal/app/system/normalize"
	"github.com/dalemusser/propertyhub/internal/domain/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrDuplicateUsername is returned when the username is already taken.
	ErrDuplicateUsername = errors.New("a user with this username already exists")
	// ErrUnknownStat is returned when a statistics field name is not recognised.
	ErrUnknownStat = errors.New("unknown statistics field")

	errBadRole    = errors.New(`user_type must be "buyer"|"seller"|"agent"`)
	errBadContact = errors.New(`preferred_contact must be "email"|"phone"|"both"`)
)

// statColumns whitelists the counters that may be interpolated into SQL.
var statColumns = map[string]bool{
	models.StatPropertiesPosted:  true,
	models.StatPropertiesSold:    true,
	models.StatInquiriesReceived: true,
}

const selectUser = `
SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash,
       u.phone, u.user_type, u.bio, u.location, u.company_name, u.license_number,
       u.website, u.preferred_contact, u.is_active, u.is_staff, u.is_verified,
       u.is_phone_verified, u.is_email_verified, u.show_contact_info,
       u.receive_marketing, u.last_login, u.created_at, u.updated_at,
       COALESCE(p.properties_posted, 0)  AS properties_posted,
       COALESCE(p.properties_sold, 0)    AS properties_sold,
       COALESCE(p.inquiries_received, 0) AS inquiries_received
FROM users u
LEFT JOIN user_profiles p ON p.user_id = u.id`

// Store is the identity store backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// GetByID loads a user with its statistics block. Returns ErrNotFound if
// the id is not a UUID or no such user exists.
func (s *Store) GetByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.getOne(ctx, selectUser+` WHERE u.id = $1`, id)
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, selectUser+` WHERE u.email = $1`, normalize.Email(email))
}

// GetByUsername looks up a user by exact username.
func (s *Store) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getOne(ctx, selectUser+` WHERE u.username = $1`, normalize.Username(username))
}

func (s *Store) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	if err := s.db.GetContext(ctx, &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user and its extended profile row in one transaction.
// Email and username are normalized; role and contact preference default to
// buyer and email. New accounts are always active.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = uuid.NewString()
	u.Email = normalize.Email(u.Email)
	u.Username = normalize.Username(u.Username)
	u.FirstName = normalize.Name(u.FirstName)
	u.LastName = normalize.Name(u.LastName)
	if u.Role == "" {
		u.Role = models.RoleBuyer
	}
	if u.PreferredContact == "" {
		u.PreferredContact = models.ContactEmail
	}
	if !models.ValidRole(u.Role) {
		return models.User{}, errBadRole
	}
	if !models.ValidContactPreference(u.PreferredContact) {
		return models.User{}, errBadContact
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.UserStats = models.UserStats{}
	u.IsActive = true

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.User{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.NamedExecContext(ctx, `
INSERT INTO users (
	id, email, username, first_name, last_name, password_hash, phone, user_type,
	bio, location, company_name, license_number, website, preferred_contact,
	is_active, is_staff, is_verified, is_phone_verified, is_email_verified,
	show_contact_info, receive_marketing, created_at, updated_at
) VALUES (
	:id, :email, :username, :first_name, :last_name, :password_hash, :phone, :user_type,
	:bio, :location, :company_name, :license_number, :website, :preferred_contact,
	:is_active, :is_staff, :is_verified, :is_phone_verified, :is_email_verified,
	:show_contact_info, :receive_marketing, :created_at, :updated_at
)`, u)
	if err != nil {
		return models.User{}, mapUniqueViolation(err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_profiles (user_id, created_at, updated_at) VALUES ($1, $2, $2)`,
		u.ID, now); err != nil {
		return models.User{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// UpdateProfile writes the self-editable profile fields of u.
// Email, username, flags and statistics are not touched.
func (s *Store) UpdateProfile(ctx context.Context, u models.User) error {
	if _, err := uuid.Parse(u.ID); err != nil {
		return ErrNotFound
	}
	if !models.ValidRole(u.Role) {
		return errBadRole
	}
	if !models.ValidContactPreference(u.PreferredContact) {
		return errBadContact
	}
	u.UpdatedAt = time.Now().UTC()

	res, err := s.db.NamedExecContext(ctx, `
UPDATE users SET
	first_name = :first_name, last_name = :last_name, phone = :phone,
	user_type = :user_type, bio = :bio, location = :location,
	company_name = :company_name, license_number = :license_number,
	website = :website, preferred_contact = :preferred_contact,
	show_contact_info = :show_contact_info, receive_marketing = :receive_marketing,
	updated_at = :updated_at
WHERE id = :id`, u)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return requireRow(res)
}

// SetPassword replaces the stored password hash.
func (s *Store) SetPassword(ctx context.Context, id, hash string) error {
	return s.exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
}

// TouchLastLogin records a successful login.
func (s *Store) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return s.exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
}

// MarkEmailVerified sets is_email_verified.
func (s *Store) MarkEmailVerified(ctx context.Context, id string) error {
	return s.exec(ctx, `UPDATE users SET is_email_verified = TRUE, updated_at = now() WHERE id = $1`, id)
}

// SetVerified sets or clears the account-level is_verified flag that gates
// posting rights.
func (s *Store) SetVerified(ctx context.Context, id string, verified bool) error {
	return s.exec(ctx, `UPDATE users SET is_verified = $2, updated_at = now() WHERE id = $1`, id, verified)
}

// SetActive activates or deactivates an account.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	return s.exec(ctx, `UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
}

// EnsureStaff grants staff to the user with the given email.
// Reports false when no such user exists.
func (s *Store) EnsureStaff(ctx context.Context, email string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_staff = TRUE, updated_at = now() WHERE email = $1 AND NOT is_staff`,
		normalize.Email(email))
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}
	var exists bool
	err = s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, normalize.Email(email))
	return exists, err
}

// PhoneExistsForOther checks if a phone number is already used by a user other than excludeID.
func (s *Store) PhoneExistsForOther(ctx context.Context, phone, excludeID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM users WHERE phone = $1 AND id::text <> $2)`,
		phone, excludeID)
	return exists, err
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	if _, err := uuid.Parse(fmt.Sprint(args[0])); err != nil {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// mapUniqueViolation turns a unique-index violation into the sentinel for
// the offending column.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return err
	}
	switch pqErr.Constraint {
	case "users_email_key":
		return ErrDuplicateEmail
	case "users_username_key":
		return ErrDuplicateUsername
	}
	return err
}
