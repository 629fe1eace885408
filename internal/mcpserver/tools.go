package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nerrad567/xgparam-core/internal/snapshot"
	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

const addressHelp = `Parameter address "HH/MM/LL" in hex, e.g. "02/01/0C" (reverb return).`

// parameterInfo is the JSON form of a parameter returned by the tools.
type parameterInfo struct {
	Address    string  `json:"address"`
	Name       string  `json:"name"`
	Value      uint32  `json:"value"`
	Display    float64 `json:"display"`
	Text       string  `json:"text"`
	Min        uint32  `json:"min"`
	Max        uint32  `json:"max"`
	Default    uint32  `json:"default"`
	Unit       string  `json:"unit,omitempty"`
	EffectType string  `json:"effect_type,omitempty"`
	EffectName string  `json:"effect_name,omitempty"`
}

func newParameterInfo(p *xgparam.Parameter) parameterInfo {
	info := parameterInfo{
		Address: p.Key().String(),
		Name:    p.Name(),
		Value:   p.Value(),
		Display: p.DisplayValue(),
		Text:    p.Text(),
		Min:     p.Min(),
		Max:     p.Max(),
		Default: p.Default(),
		Unit:    p.Unit(),
	}
	if etype, ok := p.EffectType(); ok {
		info.EffectType = xgparam.FormatEffectType(etype)
		info.EffectName = p.EffectName()
	}
	return info
}

// keysInfo is the result of xg_list_keys and xg_select_key.
type keysInfo struct {
	Category     string            `json:"category"`
	CurrentKey   uint16            `json:"current_key"`
	CurrentName  string            `json:"current_name,omitempty"`
	KeyParameter string            `json:"key_parameter,omitempty"`
	Keys         []xgparam.KeyName `json:"keys,omitempty"`
	BuildError   string            `json:"build_error,omitempty"`
}

func newKeysInfo(t *xgparam.Table, withKeys bool) keysInfo {
	info := keysInfo{Category: t.Category().String(), CurrentKey: t.CurrentKey()}
	if name, ok := t.KeyName(t.CurrentKey()); ok {
		info.CurrentName = name
	}
	if kp := t.KeyParameter(); kp != nil {
		info.KeyParameter = kp.Key().String()
	}
	if withKeys {
		info.Keys = t.Keys()
	}
	t.CurrentGroup()
	if err := t.BuildError(t.CurrentKey()); err != nil {
		info.BuildError = err.Error()
	}
	return info
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("xg_get_parameter",
		mcp.WithDescription("Reads one XG parameter: name, raw value, display value, range and unit. "+
			"Effect addresses resolve through the current effect type unless etype is given."),
		mcp.WithString("address", mcp.Required(), mcp.Description(addressHelp)),
		mcp.WithString("etype", mcp.Description(`Effect type as "MSB/LSB" hex ("02/00") or a number, to read another effect type's slot.`)),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetParameter)

	s.mcp.AddTool(mcp.NewTool("xg_set_parameter",
		mcp.WithDescription("Sets one XG parameter by raw value or by display value. Out-of-range values are refused."),
		mcp.WithString("address", mcp.Required(), mcp.Description(addressHelp)),
		mcp.WithNumber("value", mcp.Description("Raw device value.")),
		mcp.WithNumber("display", mcp.Description("Value in display units (dB, s, semitones ...). Used when value is absent.")),
	), s.handleSetParameter)

	s.mcp.AddTool(mcp.NewTool("xg_list_parameters",
		mcp.WithDescription("Lists the current parameters of a category."),
		mcp.WithString("category", mcp.Required(),
			mcp.Enum(categoryNames()...),
			mcp.Description("Parameter category.")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListParameters)

	s.mcp.AddTool(mcp.NewTool("xg_list_keys",
		mcp.WithDescription("Lists the selector keys of a category (effect types, parts, drum setups) and the current one."),
		mcp.WithString("category", mcp.Required(), mcp.Enum(categoryNames()...)),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListKeys)

	s.mcp.AddTool(mcp.NewTool("xg_select_key",
		mcp.WithDescription("Switches a category to another key. For effects this changes the effect type "+
			"and restores that type's default parameters."),
		mcp.WithString("category", mcp.Required(), mcp.Enum(categoryNames()...)),
		mcp.WithNumber("key", mcp.Required(), mcp.Description("Key from xg_list_keys.")),
	), s.handleSelectKey)

	s.mcp.AddTool(mcp.NewTool("xg_list_snapshots",
		mcp.WithDescription("Lists stored snapshots, most recent first."),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListSnapshots)

	s.mcp.AddTool(mcp.NewTool("xg_save_snapshot",
		mcp.WithDescription("Saves every current parameter under a name, replacing a snapshot of the same name."),
		mcp.WithString("name", mcp.Required()),
		mcp.WithString("notes", mcp.Description("Free-form notes stored with the snapshot.")),
	), s.handleSaveSnapshot)

	s.mcp.AddTool(mcp.NewTool("xg_load_snapshot",
		mcp.WithDescription("Applies a stored snapshot to the device state."),
		mcp.WithString("name", mcp.Required()),
		mcp.WithDestructiveHintAnnotation(true),
	), s.handleLoadSnapshot)
}

func categoryNames() []string {
	cats := xgparam.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.String()
	}
	return names
}

func (s *Server) handleGetParameter(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := addressArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var etype *uint16
	if raw := req.GetString("etype", ""); raw != "" {
		v, err := xgparam.ParseEffectType(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		etype = &v
	}

	var (
		info  parameterInfo
		found bool
	)
	_ = s.reg.Do(func() error { //nolint:errcheck // closure never fails
		var p *xgparam.Parameter
		if etype != nil {
			p = s.reg.FindParameterByType(key, *etype)
		} else {
			p = s.reg.FindParameter(key)
		}
		if p != nil {
			info, found = newParameterInfo(p), true
		}
		return nil
	})
	if !found {
		return mcp.NewToolResultError("no parameter at " + key.String()), nil
	}
	return jsonResult(info)
}

func (s *Server) handleSetParameter(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := addressArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := req.GetArguments()
	raw, hasValue := args["value"].(float64)
	display, hasDisplay := args["display"].(float64)
	if !hasValue && !hasDisplay {
		return mcp.NewToolResultError("value or display is required"), nil
	}
	if hasValue && (raw < 0 || raw != float64(uint32(raw))) {
		return mcp.NewToolResultError(fmt.Sprintf("value %v is not a non-negative integer", raw)), nil
	}

	var info parameterInfo
	err = s.reg.Do(func() error {
		p := s.reg.FindParameter(key)
		if p == nil {
			return fmt.Errorf("no parameter at %s", key)
		}
		var err error
		if hasValue {
			err = p.SetValue(uint32(raw), nil)
		} else {
			err = p.SetDisplayValue(display, nil)
		}
		if err != nil {
			return err
		}
		info = newParameterInfo(p)
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.Info("parameter set via mcp", "address", info.Address, "value", info.Value)
	return jsonResult(info)
}

func (s *Server) handleListParameters(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cat, err := categoryArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	infos := []parameterInfo{}
	_ = s.reg.Do(func() error { //nolint:errcheck // closure never fails
		for _, p := range s.reg.CurrentParameters() {
			if c, _, err := xgparam.Route(p.Key()); err == nil && c == cat {
				infos = append(infos, newParameterInfo(p))
			}
		}
		return nil
	})
	return jsonResult(infos)
}

func (s *Server) handleListKeys(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cat, err := categoryArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var info keysInfo
	_ = s.reg.Do(func() error { //nolint:errcheck // closure never fails
		info = newKeysInfo(s.reg.Table(cat), true)
		return nil
	})
	return jsonResult(info)
}

func (s *Server) handleSelectKey(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cat, err := categoryArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	key, err := req.RequireInt("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if key < 0 || key > 0x3FFF {
		return mcp.NewToolResultError(fmt.Sprintf("key %d out of range 0-16383", key)), nil
	}

	var info keysInfo
	err = s.reg.Do(func() error {
		t := s.reg.Table(cat)
		if kp := t.KeyParameter(); kp != nil {
			if err := kp.SetValue(uint32(key), nil); err != nil {
				return err
			}
		} else {
			t.SetCurrentKey(uint16(key))
		}
		info = newKeysInfo(t, false)
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.Info("key selected via mcp", "category", info.Category, "key", info.CurrentKey)
	return jsonResult(info)
}

func (s *Server) handleListSnapshots(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snaps, err := s.snapshots.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	return jsonResult(snaps)
}

func (s *Server) handleSaveSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.snapshots.Save(ctx, name, s.reg)
	if err != nil {
		return snapshotError(err)
	}
	if notes := req.GetString("notes", ""); notes != "" {
		if err := s.snapshots.Annotate(ctx, name, notes); err != nil {
			return snapshotError(err)
		}
		snap.Notes = notes
	}
	s.logger.Info("snapshot saved via mcp", "name", snap.Name, "values", snap.Values)
	return jsonResult(snap)
}

func (s *Server) handleLoadSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.snapshots.Load(ctx, name, s.reg)
	if err != nil {
		return snapshotError(err)
	}
	s.logger.Info("snapshot loaded via mcp", "name", name, "applied", res.Applied)
	return jsonResult(res)
}

// snapshotError turns caller mistakes into tool errors and everything
// else into a protocol error.
func snapshotError(err error) (*mcp.CallToolResult, error) {
	if errors.Is(err, snapshot.ErrNotFound) || errors.Is(err, snapshot.ErrInvalidName) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return nil, err
}

func addressArg(req mcp.CallToolRequest) (xgparam.AddressKey, error) {
	raw, err := req.RequireString("address")
	if err != nil {
		return xgparam.AddressKey{}, err
	}
	return xgparam.ParseAddressKey(raw)
}

func categoryArg(req mcp.CallToolRequest) (xgparam.Category, error) {
	raw, err := req.RequireString("category")
	if err != nil {
		return 0, err
	}
	return xgparam.ParseCategory(raw)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
