package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// OpenSpaceLot is a raw OpenSpace lot record.
type OpenSpaceLot struct {
	LocationName    FlexString `json:"location_name"`
	LocationAddress FlexString `json:"location_address"`
	Geocode         FlexString `json:"geocode"`
	TotalSpaces     FlexNumber `json:"total_spaces"`
	FreeSpaces      FlexNumber `json:"free_spaces"`
	Occupancy       FlexNumber `json:"occupancy"`
}

// Lot is a normalized parking lot.
type Lot struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Location        LotLocation `json:"location"`
	TotalSpaces     int         `json:"totalSpaces"`
	AvailableSpaces int         `json:"availableSpaces"`
	Occupancy       int         `json:"occupancy"`
	IsHidden        bool        `json:"isHidden"`
}

type LotLocation struct {
	Address    *string     `json:"address"`
	Coordinate *Coordinate `json:"coordinate"`
}

// LotKey derives the storage key from a lot's display name: the first word
// lowercased, each later word capitalized, joined without spaces. Characters
// that are not valid in a document key are dropped.
func LotKey(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(words[0]))
	for _, w := range words[1:] {
		b.WriteString(capitalize(w))
	}
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(".$#[]/", r) {
			return -1
		}
		return r
	}, b.String())
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}

// NormalizeLot maps an OpenSpace record onto a Lot. It reports false when the
// record has no usable name.
func NormalizeLot(raw OpenSpaceLot) (Lot, bool) {
	name := string(raw.LocationName)
	key := LotKey(name)
	if key == "" {
		return Lot{}, false
	}
	return Lot{
		ID:   key,
		Name: name,
		Location: LotLocation{
			Address:    optional(string(raw.LocationAddress)),
			Coordinate: ParseGeocode(string(raw.Geocode)),
		},
		TotalSpaces:     raw.TotalSpaces.IntOr(0),
		AvailableSpaces: raw.FreeSpaces.IntOr(0),
		Occupancy:       raw.Occupancy.IntOr(0),
	}, true
}

// NormalizeLots normalizes every lot, counting nameless ones as skipped.
func NormalizeLots(raw []OpenSpaceLot) (lots []Lot, skipped int) {
	lots = make([]Lot, 0, len(raw))
	for _, r := range raw {
		lot, ok := NormalizeLot(r)
		if !ok {
			skipped++
			continue
		}
		lots = append(lots, lot)
	}
	return lots, skipped
}
