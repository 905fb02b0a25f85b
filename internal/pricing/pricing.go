// Package pricing turns a room description into priced line items and
// totals with 19% IVA.
package pricing

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wolfman30/hotel-quote-bot/internal/textnorm"
)

// TaxRate is the Chilean IVA applied to the net total.
var TaxRate = decimal.New(19, -2)

// MaxRoomQuantity bounds a single "<quantity> <type>" phrase. Larger
// quantities are treated as unmatched so line totals cannot overflow.
const MaxRoomQuantity = 999

// ValidQuantity reports whether qty is a bookable room quantity.
func ValidQuantity(qty int) bool {
	return qty > 0 && qty <= MaxRoomQuantity
}

var (
	segmentSplitRE = regexp.MustCompile(`[,;]|\s+y\s+|\s+e\s+`)
	segmentRE      = regexp.MustCompile(`(\d+)\s+(single|sencilla|simple|estandar|standard|superior|premium|doble|matrimonial)`)
	bareNumberRE   = regexp.MustCompile(`\d+`)
)

// RoomRequest is one "<quantity> <type>" phrase from a room description.
type RoomRequest struct {
	RoomType RoomType
	Quantity int
}

// LineItem is one priced row of a quotation.
type LineItem struct {
	RoomType    RoomType
	Quantity    int
	NightlyRate int64
	LineTotal   int64
}

// Totals is the priced quotation.
type Totals struct {
	LineItems []LineItem
	Nights    int
	Net       int64
	Tax       int64
	Gross     int64
}

// ParseRooms splits description on commas, semicolons, " y " and " e " and
// reads one "<quantity> <type>" pair per segment. Segments without a pair are
// dropped. When nothing matches, the first bare number becomes a quantity of
// standard rooms, and failing that a single standard room is assumed.
func ParseRooms(description string) []RoomRequest {
	folded := textnorm.Fold(description)

	var rooms []RoomRequest
	for _, segment := range segmentSplitRE.Split(folded, -1) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		m := segmentRE.FindStringSubmatch(segment)
		if m == nil {
			continue
		}
		qty, err := strconv.Atoi(m[1])
		if err != nil || !ValidQuantity(qty) {
			continue
		}
		rooms = append(rooms, RoomRequest{RoomType: classifyRoom(m[2]), Quantity: qty})
	}
	if len(rooms) > 0 {
		return rooms
	}

	if m := bareNumberRE.FindString(folded); m != "" {
		if qty, err := strconv.Atoi(m); err == nil && ValidQuantity(qty) {
			return []RoomRequest{{RoomType: RoomStandard, Quantity: qty}}
		}
	}
	return []RoomRequest{{RoomType: RoomStandard, Quantity: 1}}
}

// Quote prices description for the given number of nights. Repeated room
// types stay as separate line items.
func Quote(description string, nights int, rates RateTable) Totals {
	totals := Totals{Nights: nights}
	for _, room := range ParseRooms(description) {
		rate := rates.RateFor(room.RoomType)
		item := LineItem{
			RoomType:    room.RoomType,
			Quantity:    room.Quantity,
			NightlyRate: rate,
			LineTotal:   int64(room.Quantity) * int64(nights) * rate,
		}
		totals.LineItems = append(totals.LineItems, item)
		totals.Net += item.LineTotal
	}
	totals.Tax = Tax(totals.Net)
	totals.Gross = totals.Net + totals.Tax
	return totals
}

// Tax returns IVA on net, truncated to whole pesos.
func Tax(net int64) int64 {
	return decimal.NewFromInt(net).Mul(TaxRate).Floor().IntPart()
}
