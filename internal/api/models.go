package api

import (
	"strings"

	"github.com/shopspring/decimal"
)

// BalanceRequest is the inbound body. At least one of the two fields must be
// non-blank; userName wins when both are present.
type BalanceRequest struct {
	UserName string `json:"userName" validate:"required_without=UserID"`
	UserID   string `json:"userId"   validate:"required_without=UserName"`
}

// normalize trims both fields so whitespace-only values count as missing.
func (r *BalanceRequest) normalize() {
	r.UserName = strings.TrimSpace(r.UserName)
	r.UserID = strings.TrimSpace(r.UserID)
}

// BalanceResponse is the success body, e.g. {"balance":"4.5"}.
type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}
