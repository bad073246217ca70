package listings

import (
	"fmt"

	"github.com/dalemusser/propertyhub/internal/app/system/apierr"
	"github.com/dalemusser/propertyhub/internal/app/system/formutil"
	"github.com/dalemusser/propertyhub/internal/app/system/normalize"
	"github.com/dalemusser/propertyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

// Fields a client may set. Anything else in a payload (id, owner_id,
// created_by_id, contact_info, created_at, updated_at) is ignored.
var (
	textFields  = []string{"title", "description", "address", "city", "state", "zip_code"}
	floatFields = []string{"price", "latitude", "longitude"}
	intFields   = []string{"bedrooms", "bathrooms", "area"}
	boolFields  = []string{"featured", "is_public"}
)

// applyPayload merges the present keys of in onto p. Keys that are absent
// leave p unchanged. Free text is stored exactly as submitted; markup is
// rejected rather than stripped.
func applyPayload(p *models.Property, in formutil.Payload) error {
	for _, f := range textFields {
		v, ok := in[f]
		if !ok {
			continue
		}
		s, err := formutil.String(f, v)
		if err != nil {
			return err
		}
		if normalize.HasMarkup(s) {
			return apierr.Validation(f, "must not contain HTML markup")
		}
		setText(p, f, s)
	}

	for _, f := range floatFields {
		v, ok := in[f]
		if !ok {
			continue
		}
		x, err := formutil.Float(f, v)
		if err != nil {
			return err
		}
		switch f {
		case "price":
			if x < 0 {
				return apierr.Validation(f, "must not be negative")
			}
			p.Price = x
		case "latitude":
			p.Latitude = x
		case "longitude":
			p.Longitude = x
		}
	}

	for _, f := range intFields {
		v, ok := in[f]
		if !ok {
			continue
		}
		n, err := formutil.Int(f, v)
		if err != nil {
			return err
		}
		if n < 0 {
			return apierr.Validation(f, "must not be negative")
		}
		switch f {
		case "bedrooms":
			p.Bedrooms = n
		case "bathrooms":
			p.Bathrooms = n
		case "area":
			p.Area = n
		}
	}

	for _, f := range boolFields {
		v, ok := in[f]
		if !ok {
			continue
		}
		b, err := formutil.Bool(f, v)
		if err != nil {
			return err
		}
		switch f {
		case "featured":
			p.Featured = b
		case "is_public":
			p.IsPublic = b
		}
	}

	if v, ok := in["property_type"]; ok {
		s, err := formutil.String("property_type", v)
		if err != nil {
			return err
		}
		s = normalize.Enum(s)
		if !models.ValidPropertyType(s) {
			return apierr.Validation("property_type", fmt.Sprintf("%q is not a valid choice", s))
		}
		p.PropertyType = s
	}

	if v, ok := in["status"]; ok {
		s, err := formutil.String("status", v)
		if err != nil {
			return err
		}
		s = normalize.Enum(s)
		if !models.ValidStatus(s) {
			return apierr.Validation("status", fmt.Sprintf("%q is not a valid choice", s))
		}
		p.Status = s
	}

	if v, ok := in["image"]; ok {
		s, err := formutil.String("image", v)
		if err != nil {
			return err
		}
		if s != "" && !urlutil.IsValidAbsHTTPURL(s) {
			return apierr.Validation("image", "must be an absolute http(s) URL")
		}
		p.Image = s
	}

	return nil
}

func setText(p *models.Property, field, v string) {
	switch field {
	case "title":
		p.Title = v
	case "description":
		p.Description = v
	case "address":
		p.Address = v
	case "city":
		p.City = v
	case "state":
		p.State = v
	case "zip_code":
		p.ZipCode = v
	}
}
