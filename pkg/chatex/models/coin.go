package models

type Coin struct {
	Decimals uint32 `json:"decimals"`
	FullName string `json:"full_name"`
	Name     string `json:"name"`
}

type Coins []Coin
