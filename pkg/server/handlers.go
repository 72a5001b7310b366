package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/vardump/pkg/errors"
	"github.com/matzehuels/vardump/pkg/render"
	"github.com/matzehuels/vardump/pkg/source"
	"github.com/matzehuels/vardump/pkg/store"
)

type createResponse struct {
	ID  uuid.UUID `json:"id"`
	URL string    `json:"url"`
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	format, err := requestFormat(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}

	v, err := source.Decode(data, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tree, err := s.dumper.Dump(v)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	snap := &store.Snapshot{
		Name:   r.URL.Query().Get("name"),
		Format: format,
		Data:   data,
	}
	if err := s.store.Save(r.Context(), snap); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.remember(snap.ID, tree)

	s.logger.Debug("stored dump", "id", snap.ID, "format", format, "size", len(data))
	w.Header().Set("Location", "/dumps/"+snap.ID.String())
	writeJSON(w, http.StatusCreated, createResponse{ID: snap.ID, URL: "/dumps/" + snap.ID.String()})
}

// requestFormat reads ?format=, then the Content-Type, and defaults to JSON.
func requestFormat(r *http.Request) (source.Format, error) {
	if f := r.URL.Query().Get("format"); f != "" {
		return source.ParseFormat(f)
	}

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return source.FormatYAML, nil
	case "application/toml":
		return source.FormatTOML, nil
	}
	return source.FormatJSON, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", l))
			return
		}
		limit = n
	}

	infos, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if infos == nil {
		infos = []store.Info{}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	id, err := store.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	lt, err := s.tree(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body bytes.Buffer
	lt.mu.Lock()
	err = render.HTML(&body, lt.tree)
	lt.mu.Unlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	writePage(w, id, body.Bytes())
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, err := store.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	nodeParam := chi.URLParam(r, "node")
	nodeID, err := strconv.Atoi(nodeParam)
	if err != nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidPath, "invalid node id %q", nodeParam))
		return
	}
	var treeID uuid.UUID
	if tp := r.URL.Query().Get("tree"); tp != "" {
		if treeID, err = uuid.Parse(tp); err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidPath, "invalid tree id %q", tp))
			return
		}
	}

	lt, err := s.tree(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var frag bytes.Buffer
	lt.mu.Lock()
	err = func() error {
		// Node IDs follow build order, so they only mean something for
		// the tree the caller rendered.
		if treeID != uuid.Nil && treeID != lt.tree.ID {
			return errors.New(errors.ErrCodeStaleTree, "dump %s was rebuilt, reload the page", id)
		}
		node, ok := lt.tree.Node(nodeID)
		if !ok {
			return errors.New(errors.ErrCodeNodeNotFound, "node %d not found in dump %s", nodeID, id)
		}
		if err := node.Toggle(); err != nil {
			return err
		}
		return render.HTMLNode(&frag, node)
	}()
	lt.mu.Unlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(frag.Bytes())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := store.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.forget(id)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Responses
// =============================================================================

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound, errors.ErrCodeNodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath,
		errors.ErrCodeInvalidQuery, errors.ErrCodeInvalidKind:
		return http.StatusBadRequest
	case errors.ErrCodeStaleTree:
		return http.StatusConflict
	case errors.ErrCodeUnclassified:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
