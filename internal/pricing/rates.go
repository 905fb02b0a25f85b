package pricing

import (
	"encoding/json"
	"fmt"
)

// DefaultNightlyRate applies to room types missing from a RateTable.
const DefaultNightlyRate int64 = 50000

// RateTable holds nightly rates in whole pesos per room type.
type RateTable map[RoomType]int64

// DefaultRates returns the hotel's published rack rates.
func DefaultRates() RateTable {
	return RateTable{
		RoomSingle:   79980,
		RoomStandard: 79980,
		RoomSuperior: 81990,
		RoomDouble:   79980,
	}
}

// RateFor returns the nightly rate for t, or DefaultNightlyRate.
func (r RateTable) RateFor(t RoomType) int64 {
	if rate, ok := r[t]; ok {
		return rate
	}
	return DefaultNightlyRate
}

// ParseRateTable decodes a JSON object keyed by room type or label, e.g.
// {"double": 79980, "Habitación Superior": 81990}.
func ParseRateTable(raw string) (RateTable, error) {
	var entries map[string]int64
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("pricing: decode rate table: %w", err)
	}
	table := make(RateTable, len(entries))
	for name, rate := range entries {
		t, err := ParseRoomType(name)
		if err != nil {
			return nil, err
		}
		if rate <= 0 {
			return nil, fmt.Errorf("pricing: rate for %s must be positive", t)
		}
		table[t] = rate
	}
	return table, nil
}
