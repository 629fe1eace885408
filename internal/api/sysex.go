package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/nerrad567/xgparam-core/internal/sysex"
)

// syxFilename is the attachment name of state dumps.
const syxFilename = "xg-state.syx"

// applyResult summarises a .syx upload.
type applyResult struct {
	Messages int `json:"messages"`
	Applied  int `json:"applied"`
	Unknown  int `json:"unknown"`
	Rejected int `json:"rejected"`
	Invalid  int `json:"invalid"`
}

// handleSysExDump returns the current state as a Standard MIDI sysex
// file: one Parameter Change per current parameter.
func (s *Server) handleSysExDump(w http.ResponseWriter, _ *http.Request) {
	var data []byte
	err := s.registry.Do(func() error {
		msgs, err := sysex.Dump(s.device, s.registry)
		if err != nil {
			return err
		}
		data = sysex.Join(msgs)
		return nil
	})
	if err != nil {
		s.logger.Error("building sysex dump", "error", err)
		writeInternalError(w, "failed to build sysex dump")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", syxFilename))
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck,gosec // Best-effort write to response
}

// handleSysExApply applies the XG messages of an uploaded .syx file in
// order. Non-XG messages are skipped; malformed ones are counted.
func (s *Server) handleSysExApply(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "failed to read body")
		return
	}
	msgs := sysex.SplitSysEx(body)
	if len(msgs) == 0 {
		writeBadRequest(w, "no sysex messages in body")
		return
	}

	res := applyResult{Messages: len(msgs)}
	_ = s.registry.Do(func() error { //nolint:errcheck // per-message errors are counted
		for _, msg := range msgs {
			mr, err := sysex.Apply(s.registry, msg, nil)
			res.Applied += mr.Applied
			res.Unknown += mr.Unknown
			res.Rejected += mr.Rejected
			if err != nil && !errors.Is(err, sysex.ErrNotXG) && mr.Rejected == 0 {
				res.Invalid++
			}
		}
		return nil
	})

	s.logger.Info("sysex file applied", "messages", res.Messages, "applied", res.Applied,
		"unknown", res.Unknown, "rejected", res.Rejected, "invalid", res.Invalid)
	writeJSON(w, http.StatusOK, res)
}

// handleSystemReset restores every default, as XG System On does on the
// device.
func (s *Server) handleSystemReset(w http.ResponseWriter, _ *http.Request) {
	var res sysex.Result
	err := s.registry.Do(func() error {
		var err error
		res, err = sysex.ApplyMessage(s.registry, &sysex.Message{Kind: sysex.KindSystemOn, Device: s.device}, nil)
		return err
	})
	if err != nil {
		s.logger.Error("system reset", "error", err)
		writeInternalError(w, "failed to reset parameters")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"applied": res.Applied})
}
