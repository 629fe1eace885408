package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nerrad567/xgparam-core/internal/infrastructure/database"
	"github.com/nerrad567/xgparam-core/internal/snapshot"
	"github.com/nerrad567/xgparam-core/internal/xgdata"
	"github.com/nerrad567/xgparam-core/internal/xgparam"
	"github.com/nerrad567/xgparam-core/migrations"
)

type toolHandler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func newTestServer(t *testing.T) (*Server, *xgparam.Registry) {
	t.Helper()
	ctx := context.Background()

	reg := xgparam.NewRegistry()
	if err := xgdata.Populate(reg, xgdata.NewCatalog(), xgdata.Options{Parts: 2, DrumSetups: 1}); err != nil {
		t.Fatalf("Populate() error: %v", err)
	}
	db, err := database.Open(ctx, database.Config{Path: database.MemoryPath, BusyTimeout: 1})
	if err != nil {
		t.Fatalf("database.Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	s, err := New(reg, snapshot.NewSQLiteRepository(db.DB, "test"), Options{Version: "test"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return s, reg
}

func call(t *testing.T, h toolHandler, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("tool error: %v", err)
	}
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want text", res.Content[0])
	}
	return tc.Text
}

func decodeResult[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	if res.IsError {
		t.Fatalf("tool reported error: %s", resultText(t, res))
	}
	var v T
	if err := json.Unmarshal([]byte(resultText(t, res)), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return v
}

func value(reg *xgparam.Registry, k xgparam.AddressKey) uint32 {
	var u uint32
	_ = reg.Do(func() error { u = reg.FindParameter(k).Value(); return nil }) //nolint:errcheck // closure never fails
	return u
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(nil, nil, Options{}); err == nil {
		t.Error("New(nil registry) error = nil")
	}
	if _, err := New(xgparam.NewRegistry(), nil, Options{}); err == nil {
		t.Error("New(nil snapshots) error = nil")
	}
}

func TestGetParameter(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name      string
		args      map[string]any
		wantErr   bool
		wantName  string
		wantValue uint32
	}{
		{"static", map[string]any{"address": "02/01/0C"}, false, "Reverb Return", 64},
		{"effect slot", map[string]any{"address": "02/01/02"}, false, "Reverb Time", 18},
		{"explicit effect type", map[string]any{"address": "02/01/02", "etype": "01/00"}, false, "Reverb Time", 18},
		{"missing address", map[string]any{}, true, "", 0},
		{"bad address", map[string]any{"address": "nope"}, true, "", 0},
		{"bad effect type", map[string]any{"address": "02/01/02", "etype": "hall"}, true, "", 0},
		{"unknown address", map[string]any{"address": "00/00/7D"}, true, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, s.handleGetParameter, tt.args)
			if res.IsError != tt.wantErr {
				t.Fatalf("IsError = %v, want %v: %s", res.IsError, tt.wantErr, resultText(t, res))
			}
			if tt.wantErr {
				return
			}
			info := decodeResult[parameterInfo](t, res)
			if info.Name != tt.wantName || info.Value != tt.wantValue {
				t.Errorf("got %+v", info)
			}
		})
	}
}

func TestSetParameter(t *testing.T) {
	s, reg := newTestServer(t)
	transpose := xgparam.Address(0x00, 0x00, 0x06)

	tests := []struct {
		name    string
		args    map[string]any
		wantErr bool
		want    uint32
	}{
		{"raw", map[string]any{"address": "00/00/06", "value": float64(70)}, false, 70},
		{"display", map[string]any{"address": "00/00/06", "display": float64(-12)}, false, 52},
		{"out of range", map[string]any{"address": "00/00/06", "value": float64(127)}, true, 52},
		{"fractional raw", map[string]any{"address": "00/00/06", "value": 64.5}, true, 52},
		{"negative raw", map[string]any{"address": "00/00/06", "value": float64(-1)}, true, 52},
		{"no value", map[string]any{"address": "00/00/06"}, true, 52},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, s.handleSetParameter, tt.args)
			if res.IsError != tt.wantErr {
				t.Fatalf("IsError = %v, want %v: %s", res.IsError, tt.wantErr, resultText(t, res))
			}
			if got := value(reg, transpose); got != tt.want {
				t.Errorf("transpose = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestListParameters(t *testing.T) {
	s, _ := newTestServer(t)

	infos := decodeResult[[]parameterInfo](t, call(t, s.handleListParameters, map[string]any{"category": "system"}))
	if len(infos) != 4 || infos[1].Name != "Master Volume" {
		t.Errorf("system parameters = %+v", infos)
	}
	if res := call(t, s.handleListParameters, map[string]any{"category": "mixer"}); !res.IsError {
		t.Error("unknown category accepted")
	}
}

func TestSelectKey(t *testing.T) {
	s, reg := newTestServer(t)

	keys := decodeResult[keysInfo](t, call(t, s.handleListKeys, map[string]any{"category": "reverb"}))
	if keys.CurrentKey != 128 || keys.KeyParameter != "02/01/00" || len(keys.Keys) == 0 {
		t.Errorf("reverb keys = %+v", keys)
	}

	got := decodeResult[keysInfo](t, call(t, s.handleSelectKey, map[string]any{"category": "reverb", "key": float64(256)}))
	if got.CurrentKey != 256 {
		t.Errorf("current key = %d, want 256", got.CurrentKey)
	}
	if v := value(reg, xgparam.Address(0x02, 0x01, 0x00)); v != 256 {
		t.Errorf("reverb type = %d, want 256", v)
	}

	for _, key := range []float64{-1, 20000} {
		if res := call(t, s.handleSelectKey, map[string]any{"category": "reverb", "key": key}); !res.IsError {
			t.Errorf("key %v accepted", key)
		}
	}
}

func TestSnapshotTools(t *testing.T) {
	s, reg := newTestServer(t)
	volume := xgparam.Address(0x00, 0x00, 0x04)

	call(t, s.handleSetParameter, map[string]any{"address": "00/00/04", "value": float64(99)})
	snap := decodeResult[snapshot.Snapshot](t, call(t, s.handleSaveSnapshot, map[string]any{"name": "gig", "notes": "set 1"}))
	if snap.Name != "gig" || snap.Notes != "set 1" {
		t.Errorf("saved = %+v", snap)
	}

	call(t, s.handleSetParameter, map[string]any{"address": "00/00/04", "value": float64(1)})
	res := decodeResult[snapshot.LoadResult](t, call(t, s.handleLoadSnapshot, map[string]any{"name": "gig"}))
	if res.Applied == 0 {
		t.Errorf("load result = %+v", res)
	}
	if v := value(reg, volume); v != 99 {
		t.Errorf("master volume = %d, want 99", v)
	}

	list := decodeResult[[]snapshot.Snapshot](t, call(t, s.handleListSnapshots, nil))
	if len(list) != 1 {
		t.Errorf("snapshots = %+v", list)
	}

	if res := call(t, s.handleLoadSnapshot, map[string]any{"name": "missing"}); !res.IsError {
		t.Error("loading a missing snapshot succeeded")
	}
	if res := call(t, s.handleSaveSnapshot, map[string]any{"name": "a/b"}); !res.IsError {
		t.Error("invalid name accepted")
	}
}

func TestToolsOverJSONRPC(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	list := s.MCPServer().HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(list)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"xg_get_parameter", "xg_set_parameter", "xg_list_parameters", "xg_list_keys",
		"xg_select_key", "xg_list_snapshots", "xg_save_snapshot", "xg_load_snapshot"} {
		if !strings.Contains(string(data), `"`+name+`"`) {
			t.Errorf("tools/list lacks %s", name)
		}
	}

	reply := s.MCPServer().HandleMessage(ctx, json.RawMessage(
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"xg_get_parameter","arguments":{"address":"02/01/0C"}}}`))
	data, err = json.Marshal(reply)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Reverb Return") {
		t.Errorf("tools/call reply = %s", data)
	}
}
