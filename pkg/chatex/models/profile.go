package models

// AccessToken is the body of POST /auth/access-token. ExpiresAt is in Unix
// seconds.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// BasicInfo is returned by GET /me.
type BasicInfo struct {
	ID           int64         `json:"id"`
	MerchantInfo *MerchantInfo `json:"merchant_info"`
	Profile      Profile       `json:"profile"`
}

type MerchantInfo struct {
	Name               string `json:"name"`
	USDAmountMaxLimit string `json:"usd_amount_max_limit"`
}

type Profile struct {
	CountryCode      string       `json:"country_code"`
	Email            *string      `json:"email"`
	IsFinanceBlocked bool         `json:"is_finance_blocked"`
	LangID           string       `json:"lang_id"`
	Limits           AML5Limits   `json:"limits"`
	Phone            string       `json:"phone"`
	Username         string       `json:"username"`
	Verification     Verification `json:"verification"`
}

// AML5Limits are the anti-money-laundering turnover and withdrawal limits of
// the account.
type AML5Limits struct {
	CurrentTurnover    string `json:"current_turnover"`
	CurrentWithdraw    string `json:"current_withdraw"`
	TurnoverLimit      string `json:"turnover_limit"`
	WithdrawLimit      string `json:"withdraw_limit"`
	WithdrawLimitDaily string `json:"withdraw_limit_daily"`
}

type Verification struct {
	CurrentLevel string `json:"current_level"`
}

// Currency is one line of the balance summary.
type Currency struct {
	Amount string `json:"amount"`
	Coin   string `json:"coin"`
	Held   string `json:"held"`
}

// Balance is returned by GET /me/balance.
type Balance []Currency
