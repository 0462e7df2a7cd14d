package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/trznica/internal/demand"
	"github.com/erazemk/trznica/internal/model"
)

// DemandsHandler exposes the demand lifecycle over HTTP.
type DemandsHandler struct {
	Service *demand.Service
}

// dateTime accepts RFC 3339 timestamps and bare YYYY-MM-DD dates.
type dateTime struct {
	time.Time
}

func (d *dateTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("desiredBy must be a date string")
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("desiredBy %q is not a valid date", s)
}

type createDemandRequest struct {
	Commodity string         `json:"commodity"`
	Quantity  float64        `json:"quantity"`
	Unit      string         `json:"unit"`
	Location  model.Location `json:"location"`
	DesiredBy *dateTime      `json:"desiredBy"`
	Notes     string         `json:"notes"`
}

type respondRequest struct {
	Action     string   `json:"action"`
	PriceOffer *float64 `json:"priceOffer"`
	Notes      string   `json:"notes"`
}

type demandResponse struct {
	Message string        `json:"message,omitempty"`
	Demand  *model.Demand `json:"demand"`
}

// Create handles POST /api/demands.
func (h *DemandsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDemandRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := demand.CreateInput{
		Commodity: req.Commodity,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		Location:  req.Location,
		Notes:     req.Notes,
	}
	if req.DesiredBy != nil {
		in.DesiredBy = &req.DesiredBy.Time
	}

	d, err := h.Service.Create(r.Context(), callerFrom(r), in)
	if err != nil {
		demandError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, demandResponse{Message: "Demand created", Demand: d})
}

// List handles GET /api/demands.
func (h *DemandsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := queryInt(q.Get("page"))
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "page must be an integer")
		return
	}
	limit, err := queryInt(q.Get("limit"))
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "limit must be an integer")
		return
	}
	// Explicit zeros are out of range rather than "use the default".
	if q.Get("page") != "" && page == 0 {
		page = -1
	}
	if q.Get("limit") != "" && limit == 0 {
		limit = -1
	}

	result, err := h.Service.List(r.Context(), callerFrom(r), demand.ListQuery{
		Filter: demand.Filter{Status: q.Get("status"), Commodity: q.Get("commodity")},
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		demandError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

func queryInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// Get handles GET /api/demands/{id}.
func (h *DemandsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid demand id")
		return
	}

	d, err := h.Service.Get(r.Context(), id)
	if err != nil {
		demandError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, demandResponse{Demand: d})
}

// Update handles PUT /api/demands/{id}.
func (h *DemandsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid demand id")
		return
	}

	var raw map[string]json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch, err := decodePatch(raw)
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	d, err := h.Service.Update(r.Context(), callerFrom(r), id, patch)
	if err != nil {
		demandError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, demandResponse{Message: "Demand updated", Demand: d})
}

// decodePatch picks the updatable fields out of raw. Other keys are ignored.
func decodePatch(raw map[string]json.RawMessage) (model.DemandPatch, error) {
	var p model.DemandPatch

	if v, ok := raw["commodity"]; ok {
		if err := decodeField(v, &p.Commodity, "commodity must be a string"); err != nil {
			return p, err
		}
	}
	if v, ok := raw["quantity"]; ok {
		if err := decodeField(v, &p.Quantity, "quantity must be a number"); err != nil {
			return p, err
		}
	}
	if v, ok := raw["unit"]; ok {
		if err := decodeField(v, &p.Unit, "unit must be a string"); err != nil {
			return p, err
		}
	}
	if v, ok := raw["location"]; ok {
		loc := model.Location{}
		if !isNull(v) {
			if err := json.Unmarshal(v, &loc); err != nil {
				return p, errors.New("location must be an object")
			}
		}
		p.Location = &loc
	}
	if v, ok := raw["desiredBy"]; ok {
		if isNull(v) {
			p.ClearDesiredBy = true
		} else {
			var d dateTime
			if err := json.Unmarshal(v, &d); err != nil {
				return p, err
			}
			p.DesiredBy = &d.Time
		}
	}
	if v, ok := raw["notes"]; ok {
		notes := ""
		if !isNull(v) {
			if err := json.Unmarshal(v, &notes); err != nil {
				return p, errors.New("notes must be a string")
			}
		}
		p.Notes = &notes
	}
	return p, nil
}

// decodeField decodes a non-null JSON value into *dst.
func decodeField[T any](v json.RawMessage, dst **T, msg string) error {
	if isNull(v) {
		return errors.New(msg)
	}
	var val T
	if err := json.Unmarshal(v, &val); err != nil {
		return errors.New(msg)
	}
	*dst = &val
	return nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// Cancel handles DELETE /api/demands/{id}.
func (h *DemandsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid demand id")
		return
	}

	d, err := h.Service.Cancel(r.Context(), callerFrom(r), id)
	if err != nil {
		demandError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, demandResponse{Message: "Demand cancelled", Demand: d})
}

// Respond handles POST /api/demands/{id}/respond.
func (h *DemandsHandler) Respond(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid demand id")
		return
	}

	var req respondRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, msg, err := h.Service.Respond(r.Context(), callerFrom(r), id, demand.RespondInput{
		Action:     req.Action,
		PriceOffer: req.PriceOffer,
		Notes:      req.Notes,
	})
	if err != nil {
		demandError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, demandResponse{Message: msg, Demand: d})
}
