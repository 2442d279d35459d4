package handlers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/travel-reservations/internal/domain"
	"github.com/diagnosis/travel-reservations/internal/http/response"
)

// Notifier is told about every reserve and cancel call. It must not block
// the response on failure.
type Notifier interface {
	Notify(ctx context.Context, kind domain.ReservationKind, action domain.ReservationAction, id string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.ReservationKind, domain.ReservationAction, string) {}

// ReservationsHandler serves the flight and hotel endpoints. Every response is
// canned: request bodies are never read.
type ReservationsHandler struct {
	notifier Notifier
}

func NewReservationsHandler(notifier Notifier) *ReservationsHandler {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &ReservationsHandler{notifier: notifier}
}

func (h *ReservationsHandler) FlightRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.reserveFlight)
	r.Get("/", h.listFlights)
	r.Delete("/{id}", h.cancelFlight)
	return r
}

func (h *ReservationsHandler) HotelRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.reserveHotel)
	r.Get("/", h.listHotels)
	r.Delete("/{id}", h.cancelHotel)
	return r
}

func (h *ReservationsHandler) reserveFlight(w http.ResponseWriter, r *http.Request) {
	h.notifier.Notify(r.Context(), domain.KindFlight, domain.ActionReserved, "")
	response.OK(w, domain.FlightReserved())
}

func (h *ReservationsHandler) reserveHotel(w http.ResponseWriter, r *http.Request) {
	h.notifier.Notify(r.Context(), domain.KindHotel, domain.ActionReserved, "")
	response.OK(w, domain.HotelReserved())
}

func (h *ReservationsHandler) listFlights(w http.ResponseWriter, r *http.Request) {
	response.OK(w, domain.Flights())
}

func (h *ReservationsHandler) listHotels(w http.ResponseWriter, r *http.Request) {
	response.OK(w, domain.Hotels())
}

func (h *ReservationsHandler) cancelFlight(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	h.notifier.Notify(r.Context(), domain.KindFlight, domain.ActionCanceled, id)
	response.OK(w, domain.FlightCanceled(id))
}

func (h *ReservationsHandler) cancelHotel(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	h.notifier.Notify(r.Context(), domain.KindHotel, domain.ActionCanceled, id)
	response.OK(w, domain.HotelCanceled(id))
}

// pathID returns the {id} segment decoded exactly once. chi matches on
// r.URL.RawPath when it is set, leaving the param escaped; otherwise the
// param comes from the already decoded r.URL.Path.
func pathID(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	if r.URL.RawPath == "" {
		return raw
	}
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}
