package api

type Schedule struct {
	ID           string   `json:"id"`
	MonthID      string   `json:"monthId"`
	Date         string   `json:"date"`
	Note         string   `json:"note"`
	Shoppers     []string `json:"shoppers"`
	ShopperNames []string `json:"shopperNames"`
	CreatedAt    int64    `json:"createdAt"`
}

type CreateScheduleRequest struct {
	MonthID  string   `json:"monthId"`
	Date     string   `json:"date"`
	Note     string   `json:"note"`
	Shoppers []string `json:"shoppers"`
}

type ScheduleResponse struct {
	Schedule *Schedule `json:"schedule"`
}

// GenerateRosterRequest fills every date from StartDate to EndDate inclusive.
type GenerateRosterRequest struct {
	MonthID   string `json:"monthId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	PerDay    int    `json:"perDay"`
	Note      string `json:"note"`
}

type DeleteScheduleRequest struct {
	ScheduleID string `json:"scheduleId"`
}

type ListSchedulesResponse struct {
	Schedules []*Schedule `json:"schedules"`
}
