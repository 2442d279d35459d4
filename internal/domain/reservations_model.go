package domain

type ReservationKind string

const (
	KindFlight ReservationKind = "flight"
	KindHotel  ReservationKind = "hotel"
)

type ReservationAction string

const (
	ActionReserved ReservationAction = "reserved"
	ActionCanceled ReservationAction = "canceled"
)

type Flight struct {
	FlightNumber string `json:"flightNumber"`
	From         string `json:"from"`
	To           string `json:"to"`
}

type Hotel struct {
	HotelName string `json:"hotelName"`
	Location  string `json:"location"`
}

// Message is the confirmation body returned by reserve and cancel calls.
type Message struct {
	Message string `json:"message"`
}

const (
	FlightReservedMessage = "Vuelo reservado"
	HotelReservedMessage  = "Hotel reservado"
)

var sampleFlights = [...]Flight{
	{FlightNumber: "RH123", From: "LHR", To: "RDU"},
	{FlightNumber: "QK456", From: "MAD", To: "SFO"},
}

var sampleHotels = [...]Hotel{
	{HotelName: "Red Hat Inn", Location: "Raleigh"},
	{HotelName: "Quarkus Lodge", Location: "Remote"},
}

// Flights returns a fresh copy of the sample flight list.
func Flights() []Flight {
	out := make([]Flight, len(sampleFlights))
	copy(out, sampleFlights[:])
	return out
}

// Hotels returns a fresh copy of the sample hotel list.
func Hotels() []Hotel {
	out := make([]Hotel, len(sampleHotels))
	copy(out, sampleHotels[:])
	return out
}

func FlightReserved() Message { return Message{Message: FlightReservedMessage} }

func HotelReserved() Message { return Message{Message: HotelReservedMessage} }

// FlightCanceled embeds id verbatim; no escaping or validation is applied.
func FlightCanceled(id string) Message {
	return Message{Message: "Vuelo " + id + " cancelado"}
}

func HotelCanceled(id string) Message {
	return Message{Message: "Reserva de hotel " + id + " cancelada"}
}
