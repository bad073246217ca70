package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	favoritestore "github.com/dalemusser/propertyhub/internal/app/store/favorites"
	userstore "github.com/dalemusser/propertyhub/internal/app/store/users"
	"github.com/dalemusser/propertyhub/internal/app/system/mailer"
	"github.com/dalemusser/propertyhub/internal/app/system/normalize"
	"github.com/dalemusser/propertyhub/internal/domain/models"
	"github.com/google/uuid"
)

// MemUsers is an in-memory identity store. It returns the same sentinel
// errors as the PostgreSQL store.
type MemUsers struct {
	mu       sync.Mutex
	users    map[string]models.User
	profiles map[string]models.ExtendedProfile
}

// NewMemUsers returns an empty identity store.
func NewMemUsers() *MemUsers {
	return &MemUsers{
		users:    make(map[string]models.User),
		profiles: make(map[string]models.ExtendedProfile),
	}
}

// Put stores u as-is, assigning an id when it has none.
func (m *MemUsers) Put(u models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	m.users[u.ID] = u
	return u
}

func (m *MemUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, userstore.ErrNotFound
	}
	return &u, nil
}

func (m *MemUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = normalize.Email(email)
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, userstore.ErrNotFound
}

func (m *MemUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, userstore.ErrNotFound
}

// FetchUser implements auth.UserFetcher.
func (m *MemUsers) FetchUser(ctx context.Context, id string) *models.User {
	u, err := m.GetByID(ctx, id)
	if err != nil || !u.IsActive {
		return nil
	}
	return u
}

func (m *MemUsers) Create(_ context.Context, u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = normalize.Email(u.Email)
	u.Username = normalize.Username(u.Username)
	for _, other := range m.users {
		if other.Email == u.Email {
			return models.User{}, userstore.ErrDuplicateEmail
		}
		if other.Username == u.Username {
			return models.User{}, userstore.ErrDuplicateUsername
		}
	}
	if u.Role == "" {
		u.Role = models.RoleBuyer
	}
	if u.PreferredContact == "" {
		u.PreferredContact = models.ContactEmail
	}
	now := time.Now().UTC()
	u.ID = uuid.NewString()
	u.IsActive = true
	u.CreatedAt = now
	u.UpdatedAt = now
	m.users[u.ID] = u
	m.profiles[u.ID] = models.ExtendedProfile{UserID: u.ID, CreatedAt: now, UpdatedAt: now}
	return u, nil
}

func (m *MemUsers) UpdateProfile(_ context.Context, u models.User) error {
	return m.update(u.ID, func(cur *models.User) {
		cur.FirstName, cur.LastName, cur.Phone = u.FirstName, u.LastName, u.Phone
		cur.Role, cur.Bio, cur.Location = u.Role, u.Bio, u.Location
		cur.CompanyName, cur.LicenseNumber, cur.Website = u.CompanyName, u.LicenseNumber, u.Website
		cur.PreferredContact = u.PreferredContact
		cur.ShowContactInfo, cur.ReceiveMarketing = u.ShowContactInfo, u.ReceiveMarketing
	})
}

func (m *MemUsers) SetPassword(_ context.Context, id, hash string) error {
	return m.update(id, func(u *models.User) { u.PasswordHash = hash })
}

func (m *MemUsers) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	return m.update(id, func(u *models.User) { u.LastLogin = &at })
}

func (m *MemUsers) MarkEmailVerified(_ context.Context, id string) error {
	return m.update(id, func(u *models.User) { u.IsEmailVerified = true })
}

func (m *MemUsers) SetVerified(_ context.Context, id string, verified bool) error {
	return m.update(id, func(u *models.User) { u.IsVerified = verified })
}

func (m *MemUsers) SetActive(_ context.Context, id string, active bool) error {
	return m.update(id, func(u *models.User) { u.IsActive = active })
}

func (m *MemUsers) PhoneExistsForOther(_ context.Context, phone, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.users {
		if id != excludeID && u.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemUsers) GetExtended(_ context.Context, userID string) (*models.ExtendedProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, userstore.ErrNotFound
	}
	p, ok := m.profiles[userID]
	if !ok {
		p = models.ExtendedProfile{UserID: userID}
	}
	p.UserStats = u.UserStats
	return &p, nil
}

func (m *MemUsers) UpdateExtended(_ context.Context, p models.ExtendedProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[p.UserID]; !ok {
		return userstore.ErrNotFound
	}
	cur := m.profiles[p.UserID]
	cur.UserID = p.UserID
	cur.Preferences, cur.SocialLinks, cur.SavedSearches = p.Preferences, p.SocialLinks, p.SavedSearches
	cur.UpdatedAt = time.Now().UTC()
	m.profiles[p.UserID] = cur
	return nil
}

func (m *MemUsers) update(id string, fn func(*models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return userstore.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return nil
}

// MemRevocations is an in-memory refresh-token blacklist.
type MemRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewMemRevocations() *MemRevocations {
	return &MemRevocations{revoked: make(map[string]time.Time)}
}

func (r *MemRevocations) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[jti] = expiresAt
	return nil
}

func (r *MemRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[jti]
	return ok, nil
}

// MemFavorites is an in-memory favorites store.
type MemFavorites struct {
	mu     sync.Mutex
	nextID int64
	favs   map[int64]models.FavoriteProperty
}

func NewMemFavorites() *MemFavorites {
	return &MemFavorites{favs: make(map[int64]models.FavoriteProperty)}
}

func (f *MemFavorites) Create(_ context.Context, fav models.FavoriteProperty) (models.FavoriteProperty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cur := range f.favs {
		if cur.UserID == fav.UserID && cur.PropertyID == fav.PropertyID {
			return models.FavoriteProperty{}, favoritestore.ErrDuplicate
		}
	}
	f.nextID++
	fav.ID = f.nextID
	fav.AddedAt = time.Now().UTC()
	f.favs[fav.ID] = fav
	return fav, nil
}

func (f *MemFavorites) ListByUser(_ context.Context, userID string) ([]models.FavoriteProperty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.FavoriteProperty, 0)
	for _, fav := range f.favs {
		if fav.UserID == userID {
			out = append(out, fav)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *MemFavorites) Delete(_ context.Context, userID string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fav, ok := f.favs[id]
	if !ok || fav.UserID != userID {
		return favoritestore.ErrNotFound
	}
	delete(f.favs, id)
	return nil
}

// RecordingMailer captures outgoing email.
type RecordingMailer struct {
	mu   sync.Mutex
	Sent []mailer.Email
}

func (r *RecordingMailer) Send(e mailer.Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = append(r.Sent, e)
	return nil
}

// Last returns the most recent email, or false if none was sent.
func (r *RecordingMailer) Last() (mailer.Email, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Sent) == 0 {
		return mailer.Email{}, false
	}
	return r.Sent[len(r.Sent)-1], true
}
