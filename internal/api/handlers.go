package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/balkashynov/volhours/internal/auth"
	"github.com/balkashynov/volhours/internal/ledger"
	"github.com/balkashynov/volhours/internal/parser"
)

// eventRequest is the body of the volunteer endpoints. Older clients send
// the event id as "event".
type eventRequest struct {
	EventID     string   `json:"eventId"`
	Event       string   `json:"event"`
	HoursWorked *float64 `json:"hoursWorked"`
}

func (req eventRequest) eventID() string {
	if id := strings.TrimSpace(req.EventID); id != "" {
		return id
	}
	return strings.TrimSpace(req.Event)
}

type manualHoursRequest struct {
	UserEmail    string   `json:"userEmail"`
	EventID      string   `json:"eventId"`
	Event        string   `json:"event"`
	HoursWorked  *float64 `json:"hoursWorked"`
	StartTime    *string  `json:"startTime"`
	EndTime      *string  `json:"endTime"`
	MarkApproved bool     `json:"markApproved"`
}

// requestTime parses an optional date-time field. Values without an offset
// are taken as UTC.
func requestTime(field string, v *string) (*time.Time, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	t, err := parser.ParseTimestamp(*v, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%s must be a valid date-time", field)
	}
	return &t, nil
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// caller returns the authenticated user; Authenticate guarantees presence
func caller(r *http.Request) auth.Identity {
	id, _ := auth.CurrentUser(r.Context())
	return id
}

func (s *Server) checkIn(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := s.ledger.CheckIn(r.Context(), caller(r).UserID, req.eventID())
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, session, http.StatusCreated)
}

func (s *Server) checkOut(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := s.ledger.CheckOut(r.Context(), caller(r).UserID, req.eventID())
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, session, http.StatusOK)
}

func (s *Server) logHours(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.HoursWorked == nil {
		respondError(w, "hoursWorked is required", http.StatusBadRequest)
		return
	}

	session, err := s.ledger.LogDirect(r.Context(), caller(r).UserID, req.eventID(), *req.HoursWorked)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, session, http.StatusCreated)
}

func (s *Server) myHours(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.ledger.ListMine(r.Context(), caller(r).UserID)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, sessions, http.StatusOK)
}

func (s *Server) myStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.MyStats(r.Context(), caller(r).UserID)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, stats, http.StatusOK)
}

func (s *Server) listHours(w http.ResponseWriter, r *http.Request) {
	var approved *bool
	switch r.URL.Query().Get("approved") {
	case "":
	case "true":
		v := true
		approved = &v
	case "false":
		v := false
		approved = &v
	default:
		respondError(w, "approved must be true or false", http.StatusBadRequest)
		return
	}

	sessions, err := s.ledger.ListAll(r.Context(), approved)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, sessions, http.StatusOK)
}

func (s *Server) approve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Approved any `json:"approved"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Anything but a JSON boolean is rejected by the ledger
	var approved *bool
	if b, ok := req.Approved.(bool); ok {
		approved = &b
	}

	session, err := s.ledger.SetApproval(r.Context(), chi.URLParam(r, "id"), approved)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, session, http.StatusOK)
}

func (s *Server) manualHours(w http.ResponseWriter, r *http.Request) {
	var req manualHoursRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	eventID := req.EventID
	if strings.TrimSpace(eventID) == "" {
		eventID = req.Event
	}

	start, err := requestTime("startTime", req.StartTime)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	end, err := requestTime("endTime", req.EndTime)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	session, err := s.ledger.CreateManualEntry(r.Context(), ledger.ManualEntry{
		UserEmail:    req.UserEmail,
		EventID:      eventID,
		HoursWorked:  req.HoursWorked,
		StartTime:    start,
		EndTime:      end,
		MarkApproved: req.MarkApproved,
	})
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, session, http.StatusCreated)
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := s.ledger.DashboardStats(r.Context())
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, dash, http.StatusOK)
}
