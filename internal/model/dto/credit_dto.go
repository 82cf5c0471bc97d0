package dto

// CreditInfo 当前额度状态，/user/credits 返回
type CreditInfo struct {
	Plan              string `json:"plan"`
	Credits           int    `json:"credits"`
	MonthlyFreeUsed   int    `json:"monthly_free_used"`
	MonthlyFreeLimit  int    `json:"monthly_free_limit"`
	TrialUsed         int    `json:"trial_used"`
	TrialLimit        int    `json:"trial_limit"`
	SchoolStoriesUsed int    `json:"school_stories_used,omitempty"`
	SchoolPackageSize int    `json:"school_package_size,omitempty"`
	CanCreate         bool   `json:"can_create"`
	CreditType        string `json:"credit_type,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

type BuyPackRequest struct {
	PackID string `json:"pack_id" binding:"required"`
}

type PackView struct {
	PackID      string  `json:"pack_id"`
	DisplayName string  `json:"display_name"`
	Plan        string  `json:"plan"`
	Credits     int     `json:"credits"`
	Price       float64 `json:"price"`
}
