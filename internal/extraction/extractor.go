// Package extraction turns a free-form Spanish booking request into a
// BookingIntent using independent pattern matchers per field.
package extraction

import (
	"fmt"
	"time"

	"github.com/wolfman30/hotel-quote-bot/internal/textnorm"
)

// BookingIntent is the possibly partial stay a customer asked for. A zero
// field means the message did not mention it.
type BookingIntent struct {
	CheckIn         time.Time
	CheckOut        time.Time
	GuestCount      int
	RoomCount       int
	RoomDescription string
}

// Extract normalizes message once and runs the date, room and guest
// extractors over it. It never fails; callers check Validate.
func Extract(message string, now time.Time) BookingIntent {
	text := textnorm.Normalize(message)

	var intent BookingIntent
	if checkIn, checkOut, ok := ExtractDates(text, now); ok {
		intent.CheckIn = checkIn
		intent.CheckOut = checkOut
	}
	if count, description, ok := ExtractRooms(text); ok {
		intent.RoomCount = count
		intent.RoomDescription = description
	}
	if guests, ok := ExtractGuests(text); ok {
		intent.GuestCount = guests
	}

	if intent.RoomCount > 0 && intent.RoomDescription == "" {
		intent.RoomDescription = fmt.Sprintf("%d standard", intent.RoomCount)
	}
	return intent
}
