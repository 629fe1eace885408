package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

// ParameterView is the JSON form of a parameter.
type ParameterView struct {
	Address    string  `json:"address"`
	Category   string  `json:"category"`
	Name       string  `json:"name"`
	Size       int     `json:"size"`
	Min        uint32  `json:"min"`
	Max        uint32  `json:"max"`
	Default    uint32  `json:"default"`
	Value      uint32  `json:"value"`
	Display    float64 `json:"display"`
	Text       string  `json:"text"`
	Unit       string  `json:"unit,omitempty"`
	EffectType string  `json:"effect_type,omitempty"`
	EffectName string  `json:"effect_name,omitempty"`
}

// newParameterView copies p. Callers hold the registry lock.
func newParameterView(p *xgparam.Parameter) ParameterView {
	v := ParameterView{
		Address: p.Key().String(),
		Name:    p.Name(),
		Size:    p.Size(),
		Min:     p.Min(),
		Max:     p.Max(),
		Default: p.Default(),
		Value:   p.Value(),
		Display: p.DisplayValue(),
		Text:    p.Text(),
		Unit:    p.Unit(),
	}
	if c, _, err := xgparam.Route(p.Key()); err == nil {
		v.Category = c.String()
	}
	if etype, ok := p.EffectType(); ok {
		v.EffectType = xgparam.FormatEffectType(etype)
		v.EffectName = p.EffectName()
	}
	return v
}

// setParameterRequest is the body of PUT /parameters/{address}. Exactly
// one field must be set.
type setParameterRequest struct {
	Value   *uint32  `json:"value"`
	Display *float64 `json:"display"`
}

// handleListParameters returns the current parameters, optionally limited
// to one category.
//
// Query parameters:
//   - category: system, reverb, chorus, variation, multipart or drumsetup
func (s *Server) handleListParameters(w http.ResponseWriter, r *http.Request) {
	var filter *xgparam.Category
	if name := r.URL.Query().Get("category"); name != "" {
		c, err := xgparam.ParseCategory(name)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		filter = &c
	}

	var views []ParameterView
	_ = s.registry.Do(func() error { //nolint:errcheck // closure never fails
		views = currentViews(s.registry, func(c xgparam.Category) bool {
			return filter == nil || c == *filter
		})
		return nil
	})

	writeJSON(w, http.StatusOK, map[string]any{"parameters": views, "count": len(views)})
}

// currentViews returns the current parameters whose category match
// accepts, never nil. Call it inside Registry.Do.
func currentViews(reg *xgparam.Registry, match func(xgparam.Category) bool) []ParameterView {
	views := []ParameterView{}
	for _, p := range reg.CurrentParameters() {
		if c, _, err := xgparam.Route(p.Key()); err == nil && match(c) {
			views = append(views, newParameterView(p))
		}
	}
	return views
}

// handleGetParameter returns one parameter. With ?etype= an effect
// address is resolved for that effect type instead of the current one.
func (s *Server) handleGetParameter(w http.ResponseWriter, r *http.Request) {
	key, ok := addressParam(w, r)
	if !ok {
		return
	}

	var etype *uint16
	if raw := r.URL.Query().Get("etype"); raw != "" {
		v, err := xgparam.ParseEffectType(raw)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		etype = &v
	}

	var (
		view  ParameterView
		found bool
	)
	_ = s.registry.Do(func() error { //nolint:errcheck // closure never fails
		var p *xgparam.Parameter
		if etype != nil {
			p = s.registry.FindParameterByType(key, *etype)
		} else {
			p = s.registry.FindParameter(key)
		}
		if p != nil {
			view, found = newParameterView(p), true
		}
		return nil
	})
	if !found {
		writeNotFound(w, "no parameter at "+key.String())
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// handleSetParameter changes a current parameter by raw or display value.
func (s *Server) handleSetParameter(w http.ResponseWriter, r *http.Request) {
	key, ok := addressParam(w, r)
	if !ok {
		return
	}

	var req setParameterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if (req.Value == nil) == (req.Display == nil) {
		writeBadRequest(w, "exactly one of value and display is required")
		return
	}

	s.updateParameter(w, key, func(p *xgparam.Parameter) error {
		if req.Value != nil {
			return p.SetValue(*req.Value, nil)
		}
		return p.SetDisplayValue(*req.Display, nil)
	})
}

// handleResetParameter restores a parameter's default.
func (s *Server) handleResetParameter(w http.ResponseWriter, r *http.Request) {
	key, ok := addressParam(w, r)
	if !ok {
		return
	}
	s.updateParameter(w, key, func(p *xgparam.Parameter) error {
		return p.Reset(nil)
	})
}

// updateParameter applies fn to the current parameter at key under the
// registry lock and writes the resulting state.
func (s *Server) updateParameter(w http.ResponseWriter, key xgparam.AddressKey, fn func(*xgparam.Parameter) error) {
	var view ParameterView
	err := s.registry.Do(func() error {
		p := s.registry.FindParameter(key)
		if p == nil {
			return errNoParameter
		}
		if err := fn(p); err != nil {
			return err
		}
		view = newParameterView(p)
		return nil
	})
	if err != nil {
		writeRegistryError(w, key, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

var errNoParameter = errors.New("no parameter")

// writeRegistryError maps registry errors to responses.
func writeRegistryError(w http.ResponseWriter, key xgparam.AddressKey, err error) {
	switch {
	case errors.Is(err, errNoParameter):
		writeNotFound(w, "no parameter at "+key.String())
	case errors.Is(err, xgparam.ErrOutOfRange):
		writeOutOfRange(w, err.Error())
	case errors.Is(err, xgparam.ErrBusy):
		writeConflict(w, err.Error())
	default:
		writeInternalError(w, "failed to update parameter")
	}
}

// addressParam parses the {address} path segment, writing a 400 on
// failure.
func addressParam(w http.ResponseWriter, r *http.Request) (xgparam.AddressKey, bool) {
	key, err := xgparam.ParseAddressKey(chi.URLParam(r, "address"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return xgparam.AddressKey{}, false
	}
	return key, true
}
