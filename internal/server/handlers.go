package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/netdiagram/pkg/buildinfo"
	"github.com/matzehuels/netdiagram/pkg/errors"
	"github.com/matzehuels/netdiagram/pkg/layout"
	"github.com/matzehuels/netdiagram/pkg/render/diagram"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

// =============================================================================
// Response Types
// =============================================================================

// GroupBox is a placed group.
type GroupBox struct {
	Name    string      `json:"name"`
	Bounds  layout.Rect `json:"bounds"`
	Members int         `json:"members"`
}

// DeviceBox is a placed standalone device.
type DeviceBox struct {
	Hostname string      `json:"hostname"`
	Bounds   layout.Rect `json:"bounds"`
}

// DragStatus describes the drag controller.
type DragStatus struct {
	State   string       `json:"state"`
	Group   string       `json:"group,omitempty"`
	Session string       `json:"session,omitempty"`
	Bounds  *layout.Rect `json:"bounds,omitempty"`
	Hit     *layout.Hit  `json:"hit,omitempty"`
}

// LayoutResponse is the body of GET /layout and the layout commands.
type LayoutResponse struct {
	Canvas      layout.Canvas       `json:"canvas"`
	Groups      []GroupBox          `json:"groups"`
	Standalone  []DeviceBox         `json:"standalone"`
	Drag        DragStatus          `json:"drag"`
	Diagnostics []layout.Diagnostic `json:"diagnostics"`
}

type pointRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type dragBeginRequest struct {
	Group string  `json:"group"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// =============================================================================
// Snapshot Access
// =============================================================================

func errNoTopology() error {
	return errors.New(errors.ErrCodeNotFound, "no topology loaded")
}

// withSnapshot runs fn on the loop once a snapshot has been loaded.
func (s *Server) withSnapshot(ctx context.Context, fn func(*State) error) error {
	return s.loop.Do(ctx, func(st *State) error {
		if st.Engine.Snapshot() == nil {
			return errNoTopology()
		}
		return fn(st)
	})
}

func layoutResponse(st *State) LayoutResponse {
	e := st.Engine
	snap, res, m := e.Snapshot(), e.Resolver(), e.Membership()
	resp := LayoutResponse{
		Canvas:      e.Canvas(),
		Groups:      make([]GroupBox, 0, len(snap.Groups)),
		Standalone:  []DeviceBox{},
		Drag:        dragStatus(st),
		Diagnostics: append([]layout.Diagnostic{}, st.Diagnostics()...),
	}
	for _, g := range snap.Groups {
		box, _ := res.GroupBounds(g.Name)
		resp.Groups = append(resp.Groups, GroupBox{Name: g.Name, Bounds: box, Members: len(m.Members(g.Name))})
	}
	for _, d := range snap.Devices {
		if !m.IsStandalone(d.Hostname) {
			continue
		}
		box, _ := res.DeviceBounds(d.Hostname)
		resp.Standalone = append(resp.Standalone, DeviceBox{Hostname: d.Hostname, Bounds: box})
	}
	return resp
}

func dragStatus(st *State) DragStatus {
	d := st.Engine.Drag()
	status := DragStatus{State: d.State().String(), Group: d.Group(), Session: d.Session()}
	if status.Group != "" && st.Engine.Resolver() != nil {
		if box, ok := st.Engine.Resolver().GroupBounds(status.Group); ok {
			status.Bounds = &box
		}
	}
	return status
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": buildinfo.Version,
		"build":   buildinfo.Get(),
		"clients": s.hub.ClientCount(),
	})
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	var data []byte
	err := s.withSnapshot(r.Context(), func(st *State) error {
		var err error
		data, err = topology.MarshalJSON(st.Engine.Snapshot())
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Paths.Topology == "" {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "server was not started from topology files"))
		return
	}
	if err := s.Reload(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	s.respondLayout(w, r)
}

// handlePutTopology replaces the served snapshot with the request body.
// YAML is accepted when the content type says so.
func (s *Server) handlePutTopology(w http.ResponseWriter, r *http.Request) {
	format := topology.FormatJSON
	if ct := r.Header.Get("Content-Type"); strings.Contains(ct, "yaml") {
		format = topology.FormatYAML
	}
	snap, err := topology.ReadSnapshot(r.Body, format)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.Load(r.Context(), snap); err != nil {
		writeError(w, err)
		return
	}
	s.respondLayout(w, r)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	s.respondLayout(w, r)
}

func (s *Server) respondLayout(w http.ResponseWriter, r *http.Request) {
	var resp LayoutResponse
	err := s.withSnapshot(r.Context(), func(st *State) error {
		resp = layoutResponse(st)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAutoArrange(w http.ResponseWriter, r *http.Request) {
	s.layoutCommand(w, r, (*layout.Engine).AutoArrange)
}

func (s *Server) handleRefreshSizes(w http.ResponseWriter, r *http.Request) {
	s.layoutCommand(w, r, (*layout.Engine).RefreshGroupSizes)
}

func (s *Server) layoutCommand(w http.ResponseWriter, r *http.Request, cmd func(*layout.Engine) layout.Canvas) {
	var resp LayoutResponse
	err := s.withSnapshot(r.Context(), func(st *State) error {
		cmd(st.Engine)
		resp = layoutResponse(st)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var opts []diagram.SVGOption
	if flag(q.Get("legend")) {
		opts = append(opts, diagram.WithLegend())
	}
	if flag(q.Get("labels")) {
		opts = append(opts, diagram.WithConnectionLabels())
	}
	if bg := q.Get("background"); bg != "" {
		opts = append(opts, diagram.WithBackground(bg))
	}

	var svg []byte
	err := s.loop.Do(r.Context(), func(st *State) error {
		svg = diagram.RenderSVG(st.Engine, opts...)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func (s *Server) handleDragBegin(w http.ResponseWriter, r *http.Request) {
	var req dragBeginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Group == "" {
		writeBadRequest(w, "group is required")
		return
	}
	s.dragCommand(w, r, func(st *State) error {
		return st.Engine.Drag().BeginDrag(req.Group, layout.Point{X: req.X, Y: req.Y})
	})
}

func (s *Server) handleDragMove(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.dragCommand(w, r, func(st *State) error {
		st.Engine.Drag().OnPointerMove(layout.Point{X: req.X, Y: req.Y})
		return nil
	})
}

func (s *Server) handleDragEnd(w http.ResponseWriter, r *http.Request) {
	s.dragCommand(w, r, func(st *State) error {
		st.Engine.Drag().EndDrag()
		return nil
	})
}

func (s *Server) handlePointerDown(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var hit layout.Hit
	s.dragCommand(w, r, func(st *State) error {
		var err error
		hit, err = st.Engine.Drag().PointerDown(layout.Point{X: req.X, Y: req.Y})
		return err
	}, func(status *DragStatus) { status.Hit = &hit })
}

func (s *Server) dragCommand(w http.ResponseWriter, r *http.Request, fn func(*State) error, decorate ...func(*DragStatus)) {
	var status DragStatus
	err := s.withSnapshot(r.Context(), func(st *State) error {
		if err := fn(st); err != nil {
			return err
		}
		st.claimDrag(nil)
		status = dragStatus(st)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	for _, d := range decorate {
		d(&status)
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleAnchor(w http.ResponseWriter, r *http.Request) {
	device, iface := chi.URLParam(r, "device"), chi.URLParam(r, "iface")
	s.pointQuery(w, r, device, func(e *layout.Engine) layout.Point {
		return e.InterfaceAnchor(device, iface)
	})
}

func (s *Server) handleDeviceCenter(w http.ResponseWriter, r *http.Request) {
	device := chi.URLParam(r, "device")
	s.pointQuery(w, r, device, func(e *layout.Engine) layout.Point {
		return e.DeviceCenter(device)
	})
}

func (s *Server) pointQuery(w http.ResponseWriter, r *http.Request, device string, fn func(*layout.Engine) layout.Point) {
	var p layout.Point
	err := s.withSnapshot(r.Context(), func(st *State) error {
		if _, ok := st.Engine.Snapshot().Device(device); !ok {
			return errors.New(errors.ErrCodeDeviceNotFound, "device %q not found", device)
		}
		p = fn(st.Engine)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSelectFlow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var flow topology.Flow
	err := s.withSnapshot(r.Context(), func(st *State) error {
		snap := st.Engine.Snapshot()
		if err := snap.SelectFlow(id); err != nil {
			return err
		}
		f, _ := snap.SelectedFlow()
		flow = *f
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flow)
}

func (s *Server) handleDeselect(w http.ResponseWriter, r *http.Request) {
	err := s.withSnapshot(r.Context(), func(st *State) error {
		st.Engine.Snapshot().DeselectAll()
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func flag(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}
