package ledger

import "errors"

var (
	ErrNoRosterMembers = errors.New("roster needs at least one member")
	ErrInvalidPerDay   = errors.New("shoppers per day must be at least 1")
)

// RosterDay is one market day with its assigned shoppers.
type RosterDay struct {
	Date     string
	Shoppers []string
}

// BazaarRoster assigns perDay shoppers to each date round-robin over members.
// The rotation continues across dates, so with members [a b c] and perDay 2 the
// days get [a b], [c a], [b c], ... perDay is capped at the number of members.
func BazaarRoster(members, dates []string, perDay int) ([]RosterDay, error) {
	members = UniqueIDs(members)
	if len(members) == 0 {
		return nil, ErrNoRosterMembers
	}
	if perDay < 1 {
		return nil, ErrInvalidPerDay
	}
	if perDay > len(members) {
		perDay = len(members)
	}

	roster := make([]RosterDay, 0, len(dates))
	next := 0
	for _, date := range dates {
		day := RosterDay{Date: date, Shoppers: make([]string, 0, perDay)}
		for i := 0; i < perDay; i++ {
			day.Shoppers = append(day.Shoppers, members[next])
			next = (next + 1) % len(members)
		}
		roster = append(roster, day)
	}
	return roster, nil
}
