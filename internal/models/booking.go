package models

import "time"

// Booking statuses as reported by the upstream booking API.
const (
	StatusConfirmed = "confirmed"
	StatusPending   = "pending"
	StatusCancelled = "cancelled"
)

// Payment statuses as reported by the upstream booking API.
const (
	PaymentPaid   = "paid"
	PaymentUnpaid = "unpaid"
)

// DefaultBayRef is used when a booking carries no bay reference.
const DefaultBayRef = "1"

// BayRefs lists the two physical bays of the venue.
var BayRefs = []string{"1", "2"}

// BookingUser identifies the user owning a booking.
type BookingUser struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	IsSystemUser bool   `json:"isSystemUser"`
}

// PlayerOption describes an upstream player-option line on a booking.
type PlayerOption struct {
	ID       int64  `json:"id"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

// Booking represents a reservation record fetched from the booking API.
// The interval is half-open [Start, End).
type Booking struct {
	ID            int64          `json:"id"`
	Start         time.Time      `json:"start"`
	End           time.Time      `json:"end"`
	Status        string         `json:"status"`
	PaymentStatus string         `json:"paymentStatus"`
	Type          string         `json:"type"`
	Notes         string         `json:"notes"`
	Source        string         `json:"source"`
	IsBlock       bool           `json:"isBlock"`
	Players       int            `json:"players"`
	PlayerOptions []PlayerOption `json:"playerOptions"`
	User          BookingUser    `json:"user"`
	ExtrasString  string         `json:"extrasString"`
	ProductIDs    []int64        `json:"productIds"`
	BayRef        string         `json:"bayRef"`
	BayID         int64          `json:"bayId"`
	BayOptionID   int64          `json:"bayOptionId"`
}

// Bay returns the bay reference, defaulting to bay "1" when the
// upstream record carries none.
func (b *Booking) Bay() string {
	if b.BayRef == "" {
		return DefaultBayRef
	}
	return b.BayRef
}

// DurationMinutes returns the booking length computed from the
// minute-of-day of start and end. A booking crossing midnight yields a
// negative value here; callers clamp for display purposes.
func (b *Booking) DurationMinutes() int {
	startMin := b.Start.Hour()*60 + b.Start.Minute()
	endMin := b.End.Hour()*60 + b.End.Minute()
	return endMin - startMin
}

// BayOption is resource-option metadata used to annotate bookings with
// a human-readable label.
type BayOption struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BayOptionNames builds a lookup map from option ID to display name.
func BayOptionNames(options []BayOption) map[int64]string {
	names := make(map[int64]string, len(options))
	for _, o := range options {
		names[o.ID] = o.Name
	}
	return names
}
