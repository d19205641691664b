package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fias-importer/internal/model"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type tableInfo struct {
	Name    string `json:"name"`
	Loaders string `json:"loaders"`
}

func (s *Server) handleListTables(w http.ResponseWriter, _ *http.Request) {
	names := s.resolver.Tables()
	out := make([]tableInfo, 0, len(names))
	for _, name := range names {
		out = append(out, tableInfo{Name: name, Loaders: s.resolver.Origin(name)})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAddress(w http.ResponseWriter, r *http.Request) {
	guid, err := uuid.Parse(chi.URLParam(r, "guid"))
	if err != nil {
		respondError(w, r, eris.Wrap(err, "api: parse aoguid"), http.StatusBadRequest)
		return
	}
	view, err := ShowAddress(r.Context(), s.store, guid)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, eris.Wrap(err, "api: parse record id"), http.StatusBadRequest)
		return
	}
	view, err := ShowRecord(r.Context(), s.store, id)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

type saveRecordRequest struct {
	ID        *uuid.UUID `json:"id"`
	Kind      string     `json:"kind"`
	Address   uuid.UUID  `json:"address"`
	House     *int       `json:"house"`
	Corps     string     `json:"corps"`
	Apartment *int       `json:"apartment"`
}

func (s *Server) handleSaveRecord(w http.ResponseWriter, r *http.Request) {
	var req saveRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, eris.Wrap(err, "api: decode record"), http.StatusBadRequest)
		return
	}
	if req.Kind == "" || req.Address == uuid.Nil {
		respondError(w, r, eris.New("api: kind and address are required"), http.StatusBadRequest)
		return
	}

	rec := &model.Record{
		ID:          req.ID,
		Kind:        req.Kind,
		AddressGUID: req.Address,
		House:       model.House{House: req.House, Corps: req.Corps, Apartment: req.Apartment},
	}
	if err := rec.House.Validate(); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	status := http.StatusOK
	if rec.IsNew() {
		status = http.StatusCreated
	}
	if err := s.saver.Save(r.Context(), rec); err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, status, NewRecordView(rec))
}
