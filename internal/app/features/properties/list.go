package properties

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/propertyhub/internal/app/system/apierr"
	"github.com/dalemusser/propertyhub/internal/app/system/auth"
	"github.com/dalemusser/propertyhub/internal/app/system/listings"
	"github.com/dalemusser/propertyhub/internal/app/system/normalize"
	"github.com/dalemusser/waffle/pantry/query"
)

// listResponse mirrors the paginated envelope clients expect. Results are
// never paginated, so next and previous are always null.
type listResponse struct {
	Count    int                     `json:"count"`
	Next     *string                 `json:"next"`
	Previous *string                 `json:"previous"`
	Results  []listings.PropertyView `json:"results"`
}

func newListResponse(views []listings.PropertyView) listResponse {
	return listResponse{Count: len(views), Results: views}
}

// ServeList handles GET /properties/.
//
// Query parameters: property_type, status, featured=true, min_price,
// max_price, search, ordering, limit. When search is set the other filters
// and ordering are ignored.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	views, err := h.Listings.List(r.Context(), params, auth.UserOrNil(r))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, newListResponse(views))
}

// ServeMine handles GET /properties/mine/: the caller's own listings.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	views, err := h.Listings.ListByOwner(r.Context(), auth.UserOrNil(r))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, newListResponse(views))
}

func parseListParams(r *http.Request) (listings.ListParams, error) {
	p := listings.ListParams{
		PropertyType: normalize.Enum(query.Get(r, "property_type")),
		Status:       normalize.Enum(query.Get(r, "status")),
		Featured:     strings.EqualFold(query.Get(r, "featured"), "true"),
		Search:       query.Search(r, "search"),
		Ordering:     query.Get(r, "ordering"),
	}

	var err error
	if p.MinPrice, err = floatParam(r, "min_price"); err != nil {
		return p, err
	}
	if p.MaxPrice, err = floatParam(r, "max_price"); err != nil {
		return p, err
	}
	if s := query.Get(r, "limit"); s != "" {
		n, perr := strconv.ParseInt(s, 10, 64)
		if perr != nil {
			return p, apierr.Validation("limit", "must be an integer")
		}
		p.Limit = n
	}
	return p, nil
}

func floatParam(r *http.Request, key string) (*float64, error) {
	s := query.Get(r, key)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, apierr.Validation(key, "must be a number")
	}
	return &f, nil
}
