package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nodeflowlabs/nodeflow/internal/clipboard"
	"github.com/nodeflowlabs/nodeflow/internal/config"
	"github.com/nodeflowlabs/nodeflow/internal/executor"
	"github.com/nodeflowlabs/nodeflow/internal/graph"
	"github.com/nodeflowlabs/nodeflow/internal/registry"
	"github.com/nodeflowlabs/nodeflow/internal/serial"
	"github.com/nodeflowlabs/nodeflow/internal/session"
	"github.com/nodeflowlabs/nodeflow/internal/store"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	mgr    *session.Manager
	reg    *registry.Registry
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(mgr *session.Manager, reg *registry.Registry, loader *config.Loader) http.Handler {
	h := &Handler{mgr: mgr, reg: reg, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/graphs", h.createGraph)
	h.mux.HandleFunc("GET /v1/graphs", h.listGraphs)
	h.mux.HandleFunc("POST /v1/graphs/open", h.openGraph)
	h.mux.HandleFunc("GET /v1/graphs/{id}", h.getGraph)
	h.mux.HandleFunc("PUT /v1/graphs/{id}", h.replaceGraph)
	h.mux.HandleFunc("DELETE /v1/graphs/{id}", h.closeGraph)
	h.mux.HandleFunc("POST /v1/graphs/{id}/save", h.saveGraph)

	h.mux.HandleFunc("POST /v1/graphs/{id}/nodes", h.addNode)
	h.mux.HandleFunc("DELETE /v1/graphs/{id}/nodes/{node}", h.removeNode)
	h.mux.HandleFunc("POST /v1/graphs/{id}/edges", h.addEdge)
	h.mux.HandleFunc("DELETE /v1/graphs/{id}/edges/{edge}", h.removeEdge)
	h.mux.HandleFunc("POST /v1/graphs/{id}/variables", h.addVariable)

	h.mux.HandleFunc("POST /v1/graphs/{id}/execute", h.execute)
	h.mux.HandleFunc("POST /v1/graphs/{id}/execute/step", h.executeStep)
	h.mux.HandleFunc("POST /v1/graphs/{id}/execute/reset", h.executeReset)

	h.mux.HandleFunc("POST /v1/graphs/{id}/undo", h.undo)
	h.mux.HandleFunc("POST /v1/graphs/{id}/redo", h.redo)

	h.mux.HandleFunc("POST /v1/graphs/{id}/clipboard/copy", h.clipboardCopy)
	h.mux.HandleFunc("POST /v1/graphs/{id}/clipboard/paste", h.clipboardPaste)

	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.healthz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

func (h *Handler) sessionFor(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.mgr.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return s, true
}

// POST /v1/graphs — open a fresh empty document.
func (h *Handler) createGraph(w http.ResponseWriter, r *http.Request) {
	s := h.mgr.Create()
	writeJSON(w, http.StatusCreated, map[string]any{"id": s.ID()})
}

// GET /v1/graphs — open sessions and stored documents.
func (h *Handler) listGraphs(w http.ResponseWriter, r *http.Request) {
	stored, err := h.mgr.Store().List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"open":   h.mgr.List(),
		"stored": stored,
	})
}

// POST /v1/graphs/open — load a stored document into a session.
func (h *Handler) openGraph(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, "a document id is required")
		return
	}
	s, res, err := h.mgr.Open(r.Context(), req.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": s.ID(), "load": res})
}

// GET /v1/graphs/{id} — the current serialized document.
func (h *Handler) getGraph(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	data, err := s.Document()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// PUT /v1/graphs/{id} — replace the document wholesale, as one undoable
// mutation.
func (h *Handler) replaceGraph(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	var doc serial.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	var res *serial.Result
	err := s.Mutate("Replace document", func(g *graph.Graph) error {
		id := g.ID
		restored, err := serial.Restore(g, &doc, h.reg)
		if err != nil {
			return err
		}
		// The session key stays authoritative over the incoming graph id.
		g.ID = id
		res = restored
		return nil
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"replaced": true, "load": res})
}

// DELETE /v1/graphs/{id} — close the session (unsaved changes are lost).
func (h *Handler) closeGraph(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.Close(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"closed": true})
}

// POST /v1/graphs/{id}/save — persist to the document store.
func (h *Handler) saveGraph(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	if err := h.mgr.Save(r.Context(), s); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"saved": true})
}

// POST /v1/graphs/{id}/nodes — spawn a node by type tag.
func (h *Handler) addNode(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	var req struct {
		Type     int            `json:"type"`
		Title    string         `json:"title"`
		Position [2]float64     `json:"position"`
		Data     map[string]any `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	var created *graph.Node
	err := s.Mutate("Create node", func(g *graph.Graph) error {
		n, err := h.reg.Spawn(g, req.Type, graph.Point{X: req.Position[0], Y: req.Position[1]})
		if err != nil {
			return err
		}
		if req.Title != "" {
			n.Title = req.Title
		}
		for k, v := range req.Data {
			n.Data[k] = v
		}
		created = n
		return nil
	})
	if err != nil {
		if errors.Is(err, registry.ErrUnknownType) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": created.ID.String()})
}

// DELETE /v1/graphs/{id}/nodes/{node} — cascades to incident edges.
func (h *Handler) removeNode(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	nodeID := graph.ID(r.PathValue("node"))
	err := s.Mutate("Delete node", func(g *graph.Graph) error {
		return g.RemoveNode(nodeID)
	})
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": true})
}

// POST /v1/graphs/{id}/edges — connect two sockets.
func (h *Handler) addEdge(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	var req struct {
		FromSocket string `json:"from_socket"`
		ToSocket   string `json:"to_socket"`
		Style      string `json:"style"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	var created *graph.Edge
	err := s.Mutate("Connect sockets", func(g *graph.Graph) error {
		e, err := g.AddEdge(graph.ID(req.FromSocket), graph.ID(req.ToSocket), graph.EdgeStyle(req.Style))
		if err != nil {
			return err
		}
		created = e
		return nil
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": created.ID.String()})
}

// DELETE /v1/graphs/{id}/edges/{edge}
func (h *Handler) removeEdge(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	edgeID := graph.ID(r.PathValue("edge"))
	err := s.Mutate("Disconnect sockets", func(g *graph.Graph) error {
		return g.RemoveEdge(edgeID)
	})
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": true})
}

// POST /v1/graphs/{id}/variables — declare a graph variable.
func (h *Handler) addVariable(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	var req struct {
		Name  string `json:"name"`
		Kind  string `json:"kind"`
		Value any    `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "variable name is required")
		return
	}
	err := s.Mutate("Create variable "+req.Name, func(g *graph.Graph) error {
		return g.Vars().Define(req.Name, graph.VarKind(req.Kind), req.Value)
	})
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"name": req.Name})
}

// POST /v1/graphs/{id}/execute — full run.
func (h *Handler) execute(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	if err := s.Execute(r.Context()); err != nil {
		writeExecError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// POST /v1/graphs/{id}/execute/step — advance one node.
func (h *Handler) executeStep(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	done, err := s.ExecuteStep(r.Context())
	if err != nil {
		writeExecError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"done": done})
}

// POST /v1/graphs/{id}/execute/reset — discard the stepped cursor.
func (h *Handler) executeReset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	s.ResetStepped()
	writeJSON(w, http.StatusOK, map[string]any{"reset": true})
}

func writeExecError(w http.ResponseWriter, err error) {
	var cycle *executor.CycleError
	var node *executor.NodeError
	switch {
	case errors.As(err, &cycle):
		writeJSON(w, http.StatusConflict, map[string]any{
			"status": "cycle",
			"node":   cycle.NodeID.String(),
			"error":  err.Error(),
		})
	case errors.As(err, &node):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"status": "failed",
			"node":   node.NodeID.String(),
			"error":  err.Error(),
		})
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// POST /v1/graphs/{id}/undo
func (h *Handler) undo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	moved, err := s.Undo()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"undone": moved})
}

// POST /v1/graphs/{id}/redo
func (h *Handler) redo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	moved, err := s.Redo()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"redone": moved})
}

// POST /v1/graphs/{id}/clipboard/copy — copy or cut a selection.
func (h *Handler) clipboardCopy(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	var req struct {
		NodeIDs []string `json:"node_ids"`
		Cut     bool     `json:"cut"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	ids := make([]graph.ID, len(req.NodeIDs))
	for i, id := range req.NodeIDs {
		ids[i] = graph.ID(id)
	}
	payload, err := s.Copy(ids, req.Cut)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// POST /v1/graphs/{id}/clipboard/paste — paste arbitrary clipboard text.
func (h *Handler) clipboardPaste(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionFor(w, r)
	if !ok {
		return
	}
	var req struct {
		Payload json.RawMessage `json:"payload"`
		Offset  [2]float64      `json:"offset"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	payload, err := clipboard.Decode(req.Payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload == nil {
		// Not our data: nothing to paste, and not an error.
		writeJSON(w, http.StatusOK, map[string]any{"pasted": 0})
		return
	}
	ids, err := s.Paste(payload, graph.Point{X: req.Offset[0], Y: req.Offset[1]})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{"pasted": len(out), "node_ids": out})
}

// GET /healthz — liveness probe.
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
