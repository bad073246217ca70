package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/propertyhub/internal/app/policy/listingpolicy"
	propertystore "github.com/dalemusser/propertyhub/internal/app/store/properties"
	"github.com/dalemusser/propertyhub/internal/app/system/apierr"
	"github.com/dalemusser/propertyhub/internal/app/system/events"
	"github.com/dalemusser/propertyhub/internal/app/system/formutil"
	"github.com/dalemusser/propertyhub/internal/domain/models"
)

// Create validates payload, stamps ownership and the contact snapshot,
// inserts the listing and increments the owner's properties_posted.
func (s *Service) Create(ctx context.Context, user *models.User, payload formutil.Payload) (*models.Property, error) {
	if user == nil {
		return nil, apierr.Unauthorized("authentication credentials were not provided")
	}
	if !listingpolicy.CanCreate(user) {
		return nil, apierr.Forbidden("only verified sellers and agents can post properties")
	}

	now := s.now()
	p := &models.Property{
		PropertyType: models.TypeHouse,
		Status:       models.StatusSale,
		IsPublic:     true,
	}
	if err := applyPayload(p, payload); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, apierr.Validation("title", "this field is required")
	}

	p.OwnerID = user.ID
	p.CreatedByID = user.ID
	p.ContactInfo = listingpolicy.SnapshotContact(user)
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.listings.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("insert listing: %w", err)
	}

	s.adjustCounter(ctx, "create", user.ID, p.ID.Hex(), +1)
	s.published(ctx, "create", events.SubjectListingCreated, p, user)
	return p, nil
}

// Update merges patch onto the listing with the given id. Ownership fields,
// the contact snapshot and created_at cannot be changed.
func (s *Service) Update(ctx context.Context, user *models.User, id string, patch formutil.Payload) (*models.Property, error) {
	if user == nil {
		return nil, apierr.Unauthorized("authentication credentials were not provided")
	}
	p, err := s.loadForWrite(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if err := applyPayload(p, patch); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, apierr.Validation("title", "this field may not be blank")
	}
	p.UpdatedAt = s.now()

	if err := s.listings.Replace(ctx, p.ID, *p); err != nil {
		if errors.Is(err, propertystore.ErrNotFound) {
			return nil, apierr.NotFound("property not found")
		}
		return nil, fmt.Errorf("replace listing: %w", err)
	}

	s.published(ctx, "update", events.SubjectListingUpdated, p, user)
	return p, nil
}

// AttachImage stores url as the listing image. Same authorization as Update.
func (s *Service) AttachImage(ctx context.Context, user *models.User, id, url string) (*models.Property, error) {
	if user == nil {
		return nil, apierr.Unauthorized("authentication credentials were not provided")
	}
	p, err := s.loadForWrite(ctx, user, id)
	if err != nil {
		return nil, err
	}

	p.Image = url
	p.UpdatedAt = s.now()
	if err := s.listings.SetImage(ctx, p.ID, url, p.UpdatedAt); err != nil {
		if errors.Is(err, propertystore.ErrNotFound) {
			return nil, apierr.NotFound("property not found")
		}
		return nil, fmt.Errorf("set listing image: %w", err)
	}

	s.published(ctx, "image", events.SubjectListingUpdated, p, user)
	return p, nil
}

// Authorize checks that user may modify the listing without changing it.
// The image upload handler calls it before storing the file.
func (s *Service) Authorize(ctx context.Context, user *models.User, id string) error {
	if user == nil {
		return apierr.Unauthorized("authentication credentials were not provided")
	}
	_, err := s.loadForWrite(ctx, user, id)
	return err
}

// Delete removes the listing and decrements its owner's counter, clamped
// at zero by the identity store.
func (s *Service) Delete(ctx context.Context, user *models.User, id string) error {
	if user == nil {
		return apierr.Unauthorized("authentication credentials were not provided")
	}
	p, err := s.loadForWrite(ctx, user, id)
	if err != nil {
		return err
	}

	deleted, err := s.listings.Delete(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if !deleted {
		return apierr.NotFound("property not found")
	}

	s.adjustCounter(ctx, "delete", p.OwnerID, p.ID.Hex(), -1)
	s.published(ctx, "delete", events.SubjectListingDeleted, p, user)
	return nil
}

// loadForWrite fetches the listing and checks CanModify.
func (s *Service) loadForWrite(ctx context.Context, user *models.User, id string) (*models.Property, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, apierr.NotFound("property not found")
	}
	p, err := s.listings.FindByID(ctx, oid)
	if err != nil {
		return nil, fmt.Errorf("load listing: %w", err)
	}
	if p == nil {
		return nil, apierr.NotFound("property not found")
	}
	if !listingpolicy.CanModify(user, p) {
		return nil, apierr.Forbidden("you do not have permission to modify this property")
	}
	return p, nil
}
