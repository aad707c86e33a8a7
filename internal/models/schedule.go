package models

// BazaarSchedule assigns shoppers to a market day.
type BazaarSchedule struct {
	ID       string
	MonthID  string
	Date     string // YYYY-MM-DD
	Note     string
	Shoppers []string // user IDs

	CreatedAt int64
}
