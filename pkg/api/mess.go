package api

type Mess struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedBy string `json:"createdBy"`
	CreatedAt int64  `json:"createdAt"`
}

type Member struct {
	MessID           string `json:"messId"`
	UserID           string `json:"userId"`
	Name             string `json:"name"`
	Role             string `json:"role"`
	Status           string `json:"status"`
	CanManageMeals   bool   `json:"canManageMeals"`
	CanManageFinance bool   `json:"canManageFinance"`
	CanManageMembers bool   `json:"canManageMembers"`
	JoinedAt         int64  `json:"joinedAt"`
}

type CreateMessRequest struct {
	Name string `json:"name"`
}

type CreateMessResponse struct {
	Mess    *Mess   `json:"mess"`
	Manager *Member `json:"manager"`
}

type JoinMessRequest struct {
	MessID string `json:"messId"`
}

// MemberRequest targets one member of a mess.
type MemberRequest struct {
	MessID string `json:"messId"`
	UserID string `json:"userId"`
}

type MemberResponse struct {
	Member *Member `json:"member"`
}

type UpdatePermissionsRequest struct {
	MessID           string `json:"messId"`
	UserID           string `json:"userId"`
	CanManageMeals   bool   `json:"canManageMeals"`
	CanManageFinance bool   `json:"canManageFinance"`
	CanManageMembers bool   `json:"canManageMembers"`
}

type ListMembersRequest struct {
	MessID string `json:"messId"`
	// Status filters by "pending" or "active". Empty lists all.
	Status string `json:"status,omitempty"`
}

type ListMembersResponse struct {
	Members []*Member `json:"members"`
}
