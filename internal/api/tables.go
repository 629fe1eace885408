package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

// TableView is the JSON form of a parameter table.
type TableView struct {
	Category     string            `json:"category"`
	Effect       bool              `json:"effect"`
	CurrentKey   uint16            `json:"current_key"`
	CurrentName  string            `json:"current_name,omitempty"`
	KeyParameter string            `json:"key_parameter,omitempty"`
	Keys         []xgparam.KeyName `json:"keys,omitempty"`
	BuildError   string            `json:"build_error,omitempty"`
}

// newTableView copies t, building the current group first so a failed
// build shows up in BuildError. Callers hold the registry lock.
func newTableView(t *xgparam.Table, withKeys bool) TableView {
	v := TableView{
		Category:   t.Category().String(),
		Effect:     t.Category().IsEffect(),
		CurrentKey: t.CurrentKey(),
	}
	if name, ok := t.KeyName(t.CurrentKey()); ok {
		v.CurrentName = name
	}
	if kp := t.KeyParameter(); kp != nil {
		v.KeyParameter = kp.Key().String()
	}
	if withKeys {
		v.Keys = t.Keys()
	}
	t.CurrentGroup()
	if err := t.BuildError(t.CurrentKey()); err != nil {
		v.BuildError = err.Error()
	}
	return v
}

// selectKeyRequest is the body of PUT /tables/{category}/current.
type selectKeyRequest struct {
	Key *uint16 `json:"key"`
}

// handleListTables returns every table without its key names.
func (s *Server) handleListTables(w http.ResponseWriter, _ *http.Request) {
	var views []TableView
	_ = s.registry.Do(func() error { //nolint:errcheck // closure never fails
		for _, t := range s.registry.Tables() {
			views = append(views, newTableView(t, false))
		}
		return nil
	})
	writeJSON(w, http.StatusOK, map[string]any{"tables": views, "count": len(views)})
}

// handleGetTable returns one table with its key names.
func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	c, ok := categoryParam(w, r)
	if !ok {
		return
	}
	var view TableView
	_ = s.registry.Do(func() error { //nolint:errcheck // closure never fails
		view = newTableView(s.registry.Table(c), true)
		return nil
	})
	writeJSON(w, http.StatusOK, view)
}

// handleSelectKey switches a table's current key. Tables with a key
// parameter are switched through that parameter, so observers see an
// ordinary parameter change followed by the table reset.
func (s *Server) handleSelectKey(w http.ResponseWriter, r *http.Request) {
	c, ok := categoryParam(w, r)
	if !ok {
		return
	}
	var req selectKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == nil {
		writeBadRequest(w, "body must be {\"key\": n}")
		return
	}

	var (
		view TableView
		kp   xgparam.AddressKey
	)
	err := s.registry.Do(func() error {
		t := s.registry.Table(c)
		if p := t.KeyParameter(); p != nil {
			kp = p.Key()
			if err := p.SetValue(uint32(*req.Key), nil); err != nil {
				return err
			}
		} else {
			t.SetCurrentKey(*req.Key)
		}
		view = newTableView(t, false)
		return nil
	})
	if err != nil {
		writeRegistryError(w, kp, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// categoryParam parses the {category} path segment, writing a 404 for an
// unknown category.
func categoryParam(w http.ResponseWriter, r *http.Request) (xgparam.Category, bool) {
	c, err := xgparam.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeNotFound(w, err.Error())
		return 0, false
	}
	return c, true
}
