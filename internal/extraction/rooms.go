package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/wolfman30/hotel-quote-bot/internal/pricing"
)

var (
	roomTypeRE    = regexp.MustCompile(`(\d+)\s*(?:habs?|piezas?)?\s*(doble|single|standard|superior)`)
	genericRoomRE = regexp.MustCompile(`(\d+)\s*(?:habitaciones|habitacion|hab|pieza)`)
)

// ExtractRooms collects every "<qty> <type>" mention in normalized text.
// The description lists each mention in order ("2 doble, 1 superior") and
// count is their sum. Without a typed mention, a bare "<qty> hab" is read as
// that many standard rooms. Quantities outside 1..pricing.MaxRoomQuantity
// are ignored.
func ExtractRooms(text string) (count int, description string, ok bool) {
	matches := roomTypeRE.FindAllStringSubmatch(text, -1)
	if len(matches) > 0 {
		parts := make([]string, 0, len(matches))
		for _, m := range matches {
			qty, err := strconv.Atoi(m[1])
			if err != nil || !pricing.ValidQuantity(qty) {
				continue
			}
			count += qty
			parts = append(parts, fmt.Sprintf("%d %s", qty, m[2]))
		}
		if len(parts) > 0 {
			return count, strings.Join(parts, ", "), true
		}
	}

	if m := genericRoomRE.FindStringSubmatch(text); m != nil {
		qty, err := strconv.Atoi(m[1])
		if err == nil && pricing.ValidQuantity(qty) {
			return qty, fmt.Sprintf("%d standard", qty), true
		}
	}
	return 0, "", false
}
