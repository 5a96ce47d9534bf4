package model

import "github.com/shopspring/decimal"

// Activity is a bookable tour product.
type Activity struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ActivityCost is one price point from the cost configuration store. A nil
// GuideID marks the global tier; guide-specific rows are overrides.
type ActivityCost struct {
	ActivityID string          `json:"activity_id"`
	GuideID    *string         `json:"guide_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
}

// IsGlobal reports whether the cost applies regardless of guide.
func (c *ActivityCost) IsGlobal() bool {
	return c.GuideID == nil
}

// Guide is an entry of the guide directory. Only used for display.
type Guide struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
