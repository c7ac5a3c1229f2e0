package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"mosques/internal/auth"
	"mosques/internal/core"
	"mosques/internal/report"
)

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req addUserRequest
	if err := decode(r, &req, msgAllFieldsRequired); err != nil {
		fail(w, r, err, nil)
		return
	}
	role, err := core.ParseRole(req.Role)
	if err != nil {
		fail(w, r, err, nil)
		return
	}
	u, err := s.svc.Users.AddUser(r.Context(), core.User{
		NationalID: req.NationalID, Name: req.Name, Mosque: req.Mosque, Role: role,
	})
	if err != nil {
		fail(w, r, err, messages{core.ErrConflict: msgUserExists})
		return
	}
	writeSuccess(w, msgUserAdded, toUserDTO(u))
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.Users.ListUsers(r.Context())
	if err != nil {
		fail(w, r, err, nil)
		return
	}
	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		out = append(out, toUserDTO(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func actor(r *http.Request) string {
	if c, ok := auth.FromContext(r.Context()); ok {
		return c.NationalID()
	}
	return ""
}

func (s *Server) handleAddMaterial(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if err := decode(r, &req, msgAllFieldsRequired); err != nil {
		fail(w, r, err, nil)
		return
	}
	m, err := s.svc.Materials.Add(r.Context(), actor(r), req.material(0))
	if err != nil {
		fail(w, r, err, nil)
		return
	}
	writeSuccess(w, msgMaterialAdded, toMaterialDTOs([]core.Material{m})[0])
}

// materialID parses the {id} path parameter. Anything but a positive
// integer cannot name a material row.
func materialID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		return 0, core.ErrNotFound
	}
	return id, nil
}

func (s *Server) handleUpdateMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := materialID(r)
	if err != nil {
		fail(w, r, err, messages{core.ErrNotFound: msgMaterialNotFound})
		return
	}
	var req materialRequest
	if err := decode(r, &req, msgAllFieldsRequired); err != nil {
		fail(w, r, err, nil)
		return
	}
	if err := s.svc.Materials.Update(r.Context(), actor(r), req.material(id)); err != nil {
		fail(w, r, err, messages{core.ErrNotFound: msgMaterialNotFound})
		return
	}
	writeSuccess(w, msgMaterialUpdated, nil)
}

func (s *Server) handleDeleteMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := materialID(r)
	if err != nil {
		fail(w, r, err, messages{core.ErrNotFound: msgMaterialNotFound})
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	if err := s.svc.Materials.Delete(r.Context(), actor(r), id, force); err != nil {
		fail(w, r, err, messages{core.ErrNotFound: msgMaterialNotFound})
		return
	}
	writeSuccess(w, msgMaterialDeleted, nil)
}

// handleAllocations returns the same list for every mosque; the path
// parameter is accepted for compatibility.
func (s *Server) handleAllocations(w http.ResponseWriter, r *http.Request) {
	as, err := s.svc.Materials.Allocations(r.Context())
	if err != nil {
		fail(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, allocationDTOs(as))
}

func (s *Server) handleSearchReceipts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := report.Filter{
		Governorate:    strings.TrimSpace(q.Get("governorate")),
		Zone:           strings.TrimSpace(q.Get("zone")),
		Mosque:         strings.TrimSpace(q.Get("mosque")),
		RegistrarName:  strings.TrimSpace(q.Get("registrarName")),
		RegistrarPhone: strings.TrimSpace(q.Get("registrarPhone")),
		WorkerName:     strings.TrimSpace(q.Get("workerName")),
	}
	var err error
	if f.Month, err = queryInt(q.Get("month")); err != nil {
		fail(w, r, &badRequestError{msg: msgAllFieldsRequired, fields: map[string]string{"month": "numeric"}, cause: err}, nil)
		return
	}
	if f.Year, err = queryInt(q.Get("year")); err != nil {
		fail(w, r, &badRequestError{msg: msgAllFieldsRequired, fields: map[string]string{"year": "numeric"}, cause: err}, nil)
		return
	}

	views, err := s.svc.Receipts.Search(r.Context(), f)
	if err != nil {
		fail(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, toReceiptDTOs(views))
}

func queryInt(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
