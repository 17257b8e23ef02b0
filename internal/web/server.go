// Package web serves the JSON API used by the front-desk UI.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/example/hotelier/internal/auth"
	"github.com/example/hotelier/internal/booking"
	"github.com/example/hotelier/internal/catalog"
	"github.com/example/hotelier/internal/domain/reservation"
	"github.com/example/hotelier/internal/internaltypes"
	"github.com/go-playground/validator/v10"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Server struct {
	Auth    *auth.Store
	Booking *booking.Service
	Catalog catalog.Catalog
	Log     *zap.Logger

	validate *validator.Validate
}

func NewServer(a *auth.Store, b *booking.Service, cat catalog.Catalog, log *zap.Logger) *Server {
	return &Server{
		Auth:     a,
		Booking:  b,
		Catalog:  cat,
		Log:      log,
		validate: validator.New(),
	}
}

func (s *Server) Routes() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	router.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost)
	router.HandleFunc("/api/logout", s.handleLogout).Methods(http.MethodPost)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.Auth.RequireAuth)
	api.HandleFunc("/reservations", s.handleCreateReservation).Methods(http.MethodPost)
	api.HandleFunc("/reservations", s.handleListReservations).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{id}", s.handleGetReservation).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{id}", s.handleDeleteReservation).Methods(http.MethodDelete)
	api.HandleFunc("/reservations/{id}/checkin", s.handleCheckIn).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{number:[0-9]+}/checkout", s.handleCheckOut).Methods(http.MethodPost)
	api.HandleFunc("/roomtypes", s.handleListRoomTypes).Methods(http.MethodGet)

	headersOk := gorillaHandlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type"})
	methodsOk := gorillaHandlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"})
	cors := gorillaHandlers.CORS(headersOk, methodsOk, gorillaHandlers.AllowCredentials())

	return gorillaHandlers.RecoveryHandler()(cors(s.logRequests(router)))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.Log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}
	uid, err := s.Auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, internaltypes.ErrUnauthorized)
		return
	}
	if err := s.Auth.SetSession(w, r, uid); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"user_id": uid})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

type createReservationRequest struct {
	GuestName   string `json:"guest_name" validate:"required"`
	RoomType    string `json:"room_type" validate:"required"`
	ArrivalDate string `json:"arrival_date" validate:"required,datetime=2006-01-02"`
	Nights      int    `json:"nights" validate:"required,min=1"`
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if !s.decode(w, r, &req) {
		return
	}
	arrival, err := time.Parse(time.DateOnly, req.ArrivalDate)
	if err != nil {
		s.writeError(w, internaltypes.ErrInvalidInput)
		return
	}
	res, err := s.Booking.CreateReservation(r.Context(), req.GuestName, req.RoomType, arrival, req.Nights)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toReservationResponse(res))
}

func (s *Server) handleListReservations(w http.ResponseWriter, r *http.Request) {
	list, err := s.Booking.ListActive(r.Context(), r.URL.Query().Get("room_type"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]reservationResponse, 0, len(list))
	for _, res := range list {
		out = append(out, toReservationResponse(res))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := s.Booking.Lookup(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toReservationResponse(res))
}

func (s *Server) handleDeleteReservation(w http.ResponseWriter, r *http.Request) {
	if err := s.Booking.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	room, err := s.Booking.CheckIn(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"id": id, "room_number": room})
}

func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	room, err := strconv.Atoi(mux.Vars(r)["number"])
	if err != nil {
		s.writeError(w, internaltypes.ErrInvalidInput)
		return
	}
	out, err := s.Booking.CheckOut(r.Context(), room)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"reservation": toReservationResponse(out.Reservation),
		"total":       catalog.FormatMoney(out.TotalCents),
		"total_cents": out.TotalCents,
	})
}

func (s *Server) handleListRoomTypes(w http.ResponseWriter, r *http.Request) {
	types := s.Catalog.Types()
	out := make([]map[string]any, 0, len(types))
	for _, rt := range types {
		out = append(out, map[string]any{
			"code":       rt.Code,
			"inventory":  rt.Inventory,
			"rate":       catalog.FormatMoney(rt.RateCents),
			"first_room": rt.FirstRoom,
			"last_room":  rt.LastRoom,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"hotel_name": s.Catalog.HotelName,
		"hotel_code": s.Catalog.HotelCode,
		"room_types": out,
	})
}

type reservationResponse struct {
	ID          string `json:"id"`
	GuestName   string `json:"guest_name"`
	RoomType    string `json:"room_type"`
	Rate        string `json:"rate"`
	RateCents   int64  `json:"rate_cents"`
	ArrivalDate string `json:"arrival_date"`
	Nights      int    `json:"nights"`
	RoomNumber  *int   `json:"room_number,omitempty"`
	Status      string `json:"status"`
}

func toReservationResponse(res reservation.Reservation) reservationResponse {
	return reservationResponse{
		ID:          res.ID,
		GuestName:   res.GuestName,
		RoomType:    res.RoomType,
		Rate:        catalog.FormatMoney(res.RateCents),
		RateCents:   res.RateCents,
		ArrivalDate: res.ArrivalDate.Format(time.DateOnly),
		Nights:      res.Nights,
		RoomNumber:  res.RoomNumber,
		Status:      string(res.Status),
	}
}

// decode unmarshals and validates a JSON body, answering the error
// itself when the payload is bad.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, internaltypes.ErrInvalidInput)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.writeError(w, internaltypes.ErrInvalidInput)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, internaltypes.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, internaltypes.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, internaltypes.ErrNoAvailability),
		errors.Is(err, internaltypes.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, internaltypes.ErrUnauthorized):
		status = http.StatusUnauthorized
	}
	if status == http.StatusInternalServerError {
		s.Log.Error("request failed", zap.Error(err))
		err = errors.New("internal error")
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func Start(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
