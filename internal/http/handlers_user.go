package http

import (
	"net/http"

	"mosques/internal/auth"
	"mosques/internal/services"
)

func (s *Server) handleAddReceipt(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	var req addReceiptRequest
	if err := decode(r, &req, msgAllFieldsRequired); err != nil {
		fail(w, r, err, nil)
		return
	}
	by := services.Registrar{NationalID: claims.NationalID(), Name: claims.Name}
	if _, err := s.svc.Receipts.Add(r.Context(), by, req.receipt()); err != nil {
		fail(w, r, err, nil)
		return
	}
	writeSuccess(w, msgReceiptAdded, nil)
}

func (s *Server) handleMyReceipts(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	views, err := s.svc.Receipts.ListByRegistrar(r.Context(), claims.NationalID())
	if err != nil {
		fail(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, toReceiptDTOs(views))
}

func (s *Server) handleListMaterials(w http.ResponseWriter, r *http.Request) {
	ms, err := s.svc.Materials.List(r.Context())
	if err != nil {
		fail(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, toMaterialDTOs(ms))
}

// handleGovernoratesZones is public: the receipt form loads it before login
// completes.
func (s *Server) handleGovernoratesZones(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.Receipts.GovernorateZones(r.Context())
	if err != nil {
		fail(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, g.Zones)
}
