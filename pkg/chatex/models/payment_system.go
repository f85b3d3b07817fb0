package models

import (
	"errors"

	"github.com/dmitrijs2005/chatex/pkg/chatex/coin"
)

type PaymentSystemID int64

type PaymentSystem struct {
	ID          PaymentSystemID `json:"id"`
	Name        string          `json:"name"`
	Fiat        string          `json:"fiat"`
	CountryCode string          `json:"country_code"`
	MinAmount   string          `json:"min_amount"`
	MaxAmount   string          `json:"max_amount"`
	Fee         string          `json:"fee"`
	IsActive    bool            `json:"is_active"`
}

// FiatEstimation is one payment system able to settle an Estimate, with the
// amount the payer would be charged.
type FiatEstimation struct {
	PaymentSystemID   PaymentSystemID `json:"payment_system_id"`
	PaymentSystemName string          `json:"payment_system_name"`
	Coin              coin.Coin       `json:"coin"`
	Amount            string          `json:"amount"`
	Fiat              string          `json:"fiat"`
	FiatAmount        string          `json:"fiat_amount"`
	Rate              string          `json:"rate"`
	Fee               string          `json:"fee"`
}

type FiatEstimations []FiatEstimation

// Estimate asks which payment systems can settle Amount of Coin in Fiat.
type Estimate struct {
	Coin        coin.Coin
	Fiat        string
	Amount      string
	CountryCode string
	LangID      string
}

// Validate checks required fields and the ISO codes.
func (e Estimate) Validate() error {
	if e.Coin == "" || e.Fiat == "" || e.Amount == "" {
		return errors.New("coin, fiat and amount are required")
	}
	return ValidateISO(e.Fiat, e.CountryCode, e.LangID)
}
