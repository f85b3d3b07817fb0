package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chatex/pkg/chatex/coin"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

type InvoiceStatus string

const (
	InvoiceStatusActive    InvoiceStatus = "ACTIVE"
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusCompleted InvoiceStatus = "COMPLETED"
	InvoiceStatusCanceled  InvoiceStatus = "CANCELED"
	InvoiceStatusExpired   InvoiceStatus = "EXPIRED"
)

type Invoice struct {
	ID              string          `json:"id"`
	Coin            coin.Coin       `json:"coin"`
	Amount          string          `json:"amount"`
	Fiat            string          `json:"fiat"`
	FiatAmount      string          `json:"fiat_amount"`
	CountryCode     string          `json:"country_code"`
	PaymentSystemID PaymentSystemID `json:"payment_system_id"`
	LangID          string          `json:"lang_id"`
	Status          InvoiceStatus   `json:"status"`
	PaymentURL      string          `json:"payment_url"`
	CallbackURL     string          `json:"callback_url,omitempty"`
	RedirectURL     string          `json:"redirect_url,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type Invoices []Invoice

// CreateInvoice is the body of POST /invoices. Fiat is an ISO 4217 code,
// CountryCode an ISO 3166-1 alpha-2 region and LangID an ISO 639-1 language.
type CreateInvoice struct {
	Coin            coin.Coin       `json:"coin"`
	Amount          string          `json:"amount"`
	Fiat            string          `json:"fiat"`
	CountryCode     string          `json:"country_code"`
	PaymentSystemID PaymentSystemID `json:"payment_system_id"`
	LangID          string          `json:"lang_id"`
	CallbackURL     string          `json:"callback_url,omitempty"`
	RedirectURL     string          `json:"redirect_url,omitempty"`
}

// Validate checks required fields and the ISO codes.
func (c CreateInvoice) Validate() error {
	var errs []error
	if c.Coin == "" {
		errs = append(errs, errors.New("coin is required"))
	}
	if c.Amount == "" {
		errs = append(errs, errors.New("amount is required"))
	}
	if c.PaymentSystemID <= 0 {
		errs = append(errs, errors.New("payment_system_id is required"))
	}
	if err := ValidateISO(c.Fiat, c.CountryCode, c.LangID); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ValidateISO checks the optional fiat currency, country and language codes;
// empty values are skipped.
func ValidateISO(fiat, country, lang string) error {
	var errs []error
	if fiat != "" {
		if _, err := currency.ParseISO(fiat); err != nil {
			errs = append(errs, fmt.Errorf("fiat %q: %w", fiat, err))
		}
	}
	if country != "" {
		if _, err := language.ParseRegion(country); err != nil {
			errs = append(errs, fmt.Errorf("country_code %q: %w", country, err))
		}
	}
	if lang != "" {
		if _, err := language.ParseBase(lang); err != nil {
			errs = append(errs, fmt.Errorf("lang_id %q: %w", lang, err))
		}
	}
	return errors.Join(errs...)
}

// InvoiceFilter narrows GET /invoices. Empty slices and zero times are not
// sent.
type InvoiceFilter struct {
	Coins            []coin.Coin
	Fiat             []currency.Unit
	CountryCodes     []language.Region
	PaymentSystemIDs []PaymentSystemID
	LangIDs          []language.Base
	Statuses         []InvoiceStatus
	DateStart        time.Time
	DateEnd          time.Time
	Page
}
