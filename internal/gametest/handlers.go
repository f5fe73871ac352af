package gametest

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/moonlit-client/internal/remote"
	"github.com/DoyleJ11/moonlit-client/pkg/types"
)

type handlers struct {
	reg *registry
	log *zap.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apiError
	if !errors.As(err, &ae) {
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		ae = &apiError{http.StatusInternalServerError, "Internal error."}
	}
	writeJSON(w, ae.status, types.ErrorBody{Detail: ae.detail})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &apiError{http.StatusUnprocessableEntity, "Invalid request body: " + err.Error()}
	}
	return nil
}

// mutate decodes a body of type T, runs fn on the game and answers with
// the game's snapshot.
func mutate[T any](h *handlers, fn func(g *game, req T) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req T
		if err := decodeBody(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		var snap types.Snapshot
		err := h.reg.with(r.Context(), chi.URLParam(r, "gameID"), "", func(g *game) error {
			if err := fn(g, req); err != nil {
				return err
			}
			snap = g.snapshot()
			return nil
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// query runs fn on the game and answers with whatever it produced.
func (h *handlers) query(w http.ResponseWriter, r *http.Request, fn func(g *game) (any, error)) {
	var out any
	err := h.reg.with(r.Context(), chi.URLParam(r, "gameID"), "", func(g *game) error {
		var err error
		out, err = fn(g)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) createGame(w http.ResponseWriter, r *http.Request) {
	var req types.CreateSessionRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	reply := make(chan createReply, 1)
	if err := h.reg.send(r.Context(), createGame{HostName: strings.TrimSpace(req.HostName), Reply: reply}); err != nil {
		h.fail(w, r, err)
		return
	}
	res := <-reply
	if res.err != nil {
		h.fail(w, r, res.err)
		return
	}
	writeJSON(w, http.StatusOK, types.CreateSessionResponse{
		SnapshotPatch: types.PatchOf(res.snap),
		HostPlayerID:  res.hostID,
	})
}

func (h *handlers) findByCode(w http.ResponseWriter, r *http.Request) {
	var snap types.Snapshot
	err := h.reg.with(r.Context(), "", remote.NormalizeCode(chi.URLParam(r, "code")), func(g *game) error {
		snap = g.snapshot()
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handlers) join(w http.ResponseWriter, r *http.Request) {
	var req types.JoinRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	h.query(w, r, func(g *game) (any, error) {
		p, err := g.join(req.PlayerName)
		if err != nil {
			return nil, err
		}
		return g.assignment(p.id)
	})
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, func(g *game) (any, error) { return g.snapshot(), nil })
}

func (h *handlers) assignment(w http.ResponseWriter, r *http.Request) {
	pid := chi.URLParam(r, "playerID")
	h.query(w, r, func(g *game) (any, error) { return g.assignment(pid) })
}

func (h *handlers) speech(w http.ResponseWriter, r *http.Request) {
	var req types.SpeechRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	h.query(w, r, func(g *game) (any, error) { return g.speak(req.PlayerID, req.SpeakerPlayerID) })
}

func (h *handlers) debugGet(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, func(g *game) (any, error) { return g.debugInfo(), nil })
}

func (h *handlers) debugSet(w http.ResponseWriter, r *http.Request) {
	var req types.DebugToggleRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	h.query(w, r, func(g *game) (any, error) { return g.setDebug(req.PlayerID, req.Enabled) })
}

func (h *handlers) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+1<<20)
	f, hdr, err := r.FormFile(remote.AudioFormField)
	if err != nil {
		h.fail(w, r, &apiError{http.StatusUnprocessableEntity, "Missing audio file."})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		h.fail(w, r, badRequest("Could not read the uploaded file."))
		return
	}
	pid := chi.URLParam(r, "playerID")
	h.query(w, r, func(g *game) (any, error) {
		return g.upload(pid, hdr.Filename, hdr.Header.Get("Content-Type"), data)
	})
}

func (h *handlers) fetchAudio(w http.ResponseWriter, r *http.Request) {
	var c storedClip
	clipID := chi.URLParam(r, "clipID")
	err := h.reg.with(r.Context(), chi.URLParam(r, "gameID"), "", func(g *game) error {
		var err error
		c, err = g.clip(clipID)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", c.info.ContentType)
	_, _ = w.Write(c.data)
}

func (h *handlers) archive(w http.ResponseWriter, r *http.Request) {
	pid := chi.URLParam(r, "playerID")
	var clips []storedClip
	err := h.reg.with(r.Context(), chi.URLParam(r, "gameID"), "", func(g *game) error {
		if _, ok := g.players[pid]; !ok {
			return notFound("Player not found.")
		}
		for _, c := range g.clips {
			if c.info.PlayerID == pid {
				clips = append(clips, c)
			}
		}
		if len(clips) == 0 {
			return notFound("No audio clips for this player.")
		}
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, c := range clips {
		fw, err := zw.Create(fmt.Sprintf("%02d_%s.wav", i+1, c.info.ClipID))
		if err == nil {
			_, err = fw.Write(c.data)
		}
		if err != nil {
			h.fail(w, r, err)
			return
		}
	}
	if err := zw.Close(); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	_, _ = w.Write(buf.Bytes())
}

func (h *handlers) deleteGame(w http.ResponseWriter, r *http.Request) {
	var req types.PlayerActionRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	id := chi.URLParam(r, "gameID")
	err := h.reg.with(r.Context(), id, "", func(g *game) error {
		return g.host(req.PlayerID, "delete the game")
	})
	if err == nil {
		reply := make(chan error, 1)
		if err = h.reg.send(r.Context(), removeGame{ID: id, Reply: reply}); err == nil {
			err = <-reply
		}
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
