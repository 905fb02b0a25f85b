package pricing

import (
	"fmt"
	"strings"
)

// RoomType is a canonical room category used for pricing.
type RoomType string

const (
	RoomSingle   RoomType = "single"
	RoomStandard RoomType = "standard"
	RoomSuperior RoomType = "superior"
	RoomDouble   RoomType = "double"
)

var roomLabels = map[RoomType]string{
	RoomSingle:   "Habitación Single",
	RoomStandard: "Habitación Estándar",
	RoomSuperior: "Habitación Superior",
	RoomDouble:   "Habitación Doble 2 Camas",
}

// Label is the customer-facing name printed on quotations.
func (t RoomType) Label() string {
	if label, ok := roomLabels[t]; ok {
		return label
	}
	return roomLabels[RoomStandard]
}

// ShortLabel drops the "Habitación " prefix for chat summaries.
func (t RoomType) ShortLabel() string {
	return strings.TrimPrefix(t.Label(), "Habitación ")
}

// ParseRoomType accepts the canonical name or any label ("double",
// "Habitación Doble 2 Camas").
func ParseRoomType(s string) (RoomType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for t, label := range roomLabels {
		if key == string(t) || key == strings.ToLower(label) {
			return t, nil
		}
	}
	return "", fmt.Errorf("pricing: unknown room type %q", s)
}

var roomKeywords = []struct {
	keywords []string
	roomType RoomType
}{
	{[]string{"single", "sencilla", "simple"}, RoomSingle},
	{[]string{"estandar", "standard"}, RoomStandard},
	{[]string{"superior", "premium"}, RoomSuperior},
	{[]string{"doble", "matrimonial"}, RoomDouble},
}

// classifyRoom maps a folded keyword to its room type; unknown words are
// priced as standard rooms.
func classifyRoom(word string) RoomType {
	for _, group := range roomKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(word, kw) {
				return group.roomType
			}
		}
	}
	return RoomStandard
}
