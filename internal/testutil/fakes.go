package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/propertyhub/internal/app/store/audit"
	propertystore "github.com/dalemusser/propertyhub/internal/app/store/properties"
	"github.com/dalemusser/propertyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrFake is returned by fakes configured to fail.
var ErrFake = errors.New("fake store failure")

// MemListings is an in-memory listing store. It evaluates the filters and
// sorts the application builds and records the last query it saw.
type MemListings struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]models.Property

	// LastFilter and LastSort hold the arguments of the most recent FindAll.
	LastFilter bson.M
	LastSort   bson.D
	// FindByIDCalls counts FindByID invocations.
	FindByIDCalls int
	// FailWrites makes Insert, Replace, SetImage and Delete fail.
	FailWrites bool
	// NotFoundErr is returned by Replace/SetImage for unknown ids.
	NotFoundErr error
}

// NewMemListings returns an empty store.
func NewMemListings() *MemListings {
	return &MemListings{docs: make(map[primitive.ObjectID]models.Property), NotFoundErr: propertystore.ErrNotFound}
}

func (m *MemListings) Insert(_ context.Context, p *models.Property) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return primitive.NilObjectID, ErrFake
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	m.docs[p.ID] = *p
	return p.ID, nil
}

func (m *MemListings) Replace(_ context.Context, id primitive.ObjectID, p models.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrFake
	}
	if _, ok := m.docs[id]; !ok {
		return m.NotFoundErr
	}
	p.ID = id
	m.docs[id] = p
	return nil
}

func (m *MemListings) SetImage(_ context.Context, id primitive.ObjectID, url string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrFake
	}
	p, ok := m.docs[id]
	if !ok {
		return m.NotFoundErr
	}
	p.Image = url
	p.UpdatedAt = at
	m.docs[id] = p
	return nil
}

func (m *MemListings) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return false, ErrFake
	}
	if _, ok := m.docs[id]; !ok {
		return false, nil
	}
	delete(m.docs, id)
	return true, nil
}

func (m *MemListings) FindByID(_ context.Context, id primitive.ObjectID) (*models.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindByIDCalls++
	p, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MemListings) FindAll(_ context.Context, filter bson.M, sort bson.D, limit int64) ([]models.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastFilter = filter
	m.LastSort = sort

	var matched []bson.M
	byID := make(map[primitive.ObjectID]models.Property)
	for id, p := range m.docs {
		d := toDoc(p)
		if matchFilter(d, filter) {
			matched = append(matched, d)
			byID[id] = p
		}
	}
	// _id breaks ties so results are deterministic.
	keys := make(bson.D, 0, len(sort)+1)
	keys = append(keys, sort...)
	sortDocs(matched, append(keys, bson.E{Key: "_id", Value: 1}))

	out := make([]models.Property, 0, len(matched))
	for _, d := range matched {
		out = append(out, byID[d["_id"].(primitive.ObjectID)])
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemListings) Count(_ context.Context, filter bson.M) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.docs {
		if matchFilter(toDoc(p), filter) {
			n++
		}
	}
	return n, nil
}

func (m *MemListings) CountByOwner(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64)
	for _, p := range m.docs {
		if p.OwnerID != "" {
			out[p.OwnerID]++
		}
	}
	return out, nil
}

// Len returns the number of stored listings.
func (m *MemListings) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

// MemStats is an in-memory statistics store keyed by user id.
type MemStats struct {
	mu     sync.Mutex
	counts map[string]map[string]int

	// Fail makes every method except Set and Get fail.
	Fail bool
}

// NewMemStats returns an empty statistics store.
func NewMemStats() *MemStats {
	return &MemStats{counts: make(map[string]map[string]int)}
}

// IncrementStat adds delta to a counter, clamping at zero.
func (s *MemStats) IncrementStat(_ context.Context, userID, field string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return ErrFake
	}
	row := s.row(userID)
	row[field] += delta
	if row[field] < 0 {
		row[field] = 0
	}
	return nil
}

// Set seeds a counter.
func (s *MemStats) Set(userID, field string, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.row(userID)[field] = value
}

// GetStat returns a counter value.
func (s *MemStats) GetStat(_ context.Context, userID, field string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return 0, ErrFake
	}
	return s.counts[userID][field], nil
}

// StatSnapshot returns every non-zero value of field.
func (s *MemStats) StatSnapshot(_ context.Context, field string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, ErrFake
	}
	out := make(map[string]int)
	for id, row := range s.counts {
		if row[field] != 0 {
			out[id] = row[field]
		}
	}
	return out, nil
}

// CompareAndSetStat writes value only if the counter equals observed.
func (s *MemStats) CompareAndSetStat(_ context.Context, userID, field string, observed, value int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return false, ErrFake
	}
	row := s.row(userID)
	if row[field] != observed {
		return false, nil
	}
	row[field] = value
	return true, nil
}

// Get returns a counter value.
func (s *MemStats) Get(userID, field string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[userID][field]
}

func (s *MemStats) row(userID string) map[string]int {
	row, ok := s.counts[userID]
	if !ok {
		row = make(map[string]int)
		s.counts[userID] = row
	}
	return row
}

// Published is one event captured by RecordingPublisher.
type Published struct {
	Subject string
	Payload any
}

// RecordingPublisher captures published events.
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []Published
	// Fail makes Publish return ErrFake (after recording).
	Fail bool
}

func (p *RecordingPublisher) Publish(_ context.Context, subject string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, Published{Subject: subject, Payload: payload})
	if p.Fail {
		return ErrFake
	}
	return nil
}

// Subjects returns the subjects published so far, in order.
func (p *RecordingPublisher) Subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		out = append(out, e.Subject)
	}
	return out
}

// MemAudit records audit events.
type MemAudit struct {
	mu     sync.Mutex
	Events []audit.Event
}

func (m *MemAudit) Log(_ context.Context, e audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, e)
	return nil
}

// Types returns the recorded event types, in order.
func (m *MemAudit) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		out = append(out, e.EventType)
	}
	return out
}
