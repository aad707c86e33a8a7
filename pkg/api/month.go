package api

type Month struct {
	ID        string `json:"id"`
	MessID    string `json:"messId"`
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	IsActive  bool   `json:"isActive"`
	CreatedAt int64  `json:"createdAt"`
}

type StartMonthRequest struct {
	MessID    string `json:"messId"`
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
}

// MonthRequest targets one month.
type MonthRequest struct {
	MonthID string `json:"monthId"`
}

// MessRequest targets one mess.
type MessRequest struct {
	MessID string `json:"messId"`
}

type MonthResponse struct {
	Month *Month `json:"month"`
}

type ListMonthsResponse struct {
	Months []*Month `json:"months"`
}
