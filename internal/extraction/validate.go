package extraction

import "time"

// Reason classifies the outcome of validating a BookingIntent.
type Reason string

const (
	ReasonOK                Reason = "ok"
	ReasonMissingFields     Reason = "missing_fields"
	ReasonNonPositiveNights Reason = "non_positive_nights"
)

// Required field names, in the order they are reported.
const (
	FieldCheckIn         = "check_in"
	FieldCheckOut        = "check_out"
	FieldGuestCount      = "guest_count"
	FieldRoomCount       = "room_count"
	FieldRoomDescription = "room_description"
)

// Validation is the outcome of checking an intent before pricing it.
type Validation struct {
	Reason  Reason
	Missing []string
	Nights  int
}

// OK reports whether the intent can be priced.
func (v Validation) OK() bool {
	return v.Reason == ReasonOK
}

// Validate checks the required field set and that the stay spans at least
// one night.
func (b BookingIntent) Validate() Validation {
	var missing []string
	if b.CheckIn.IsZero() {
		missing = append(missing, FieldCheckIn)
	}
	if b.CheckOut.IsZero() {
		missing = append(missing, FieldCheckOut)
	}
	if b.GuestCount <= 0 {
		missing = append(missing, FieldGuestCount)
	}
	if b.RoomCount <= 0 {
		missing = append(missing, FieldRoomCount)
	}
	if b.RoomDescription == "" {
		missing = append(missing, FieldRoomDescription)
	}
	if len(missing) > 0 {
		return Validation{Reason: ReasonMissingFields, Missing: missing}
	}

	nights := Nights(b.CheckIn, b.CheckOut)
	if nights <= 0 {
		return Validation{Reason: ReasonNonPositiveNights, Nights: nights}
	}
	return Validation{Reason: ReasonOK, Nights: nights}
}

// Nights counts calendar days between check-in and check-out, ignoring
// time of day and DST shifts.
func Nights(checkIn, checkOut time.Time) int {
	in := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	out := time.Date(checkOut.Year(), checkOut.Month(), checkOut.Day(), 0, 0, 0, 0, time.UTC)
	return int(out.Sub(in).Hours() / 24)
}
