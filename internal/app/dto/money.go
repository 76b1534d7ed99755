package dto

import "condobook/internal/domain/shared/money"

// MoneyDTO carries a fee in minor units plus a display form for clients that
// do not format currencies themselves.
type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display,omitempty"`
}

func MapMoney(value money.Money) MoneyDTO {
	if value.IsZero() && value.Currency == "" {
		return MoneyDTO{}
	}
	return MoneyDTO{
		Amount:   value.Amount,
		Currency: value.Currency,
		Display:  value.String(),
	}
}
