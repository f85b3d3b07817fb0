// Package coin identifies the assets traded on Chatex and the pairs orders are
// placed on. The set of coins is open: names the package does not know are kept
// verbatim so new listings work without a release.
package coin

import (
	"errors"
	"fmt"
	"strings"
)

// Coin is the lower-case ticker name used by the API ("btc", "ton_crystal").
type Coin string

const (
	BTC  Coin = "btc"
	LTC  Coin = "ltc"
	BCH  Coin = "bch"
	XRP  Coin = "xrp"
	BTG  Coin = "btg"
	ETH  Coin = "eth"
	TRX  Coin = "trx"
	DASH Coin = "dash"
	USDT Coin = "usdt"
	TON  Coin = "ton_crystal"
)

// Known lists the coins listed on the exchange at the time of writing.
var Known = []Coin{BTC, LTC, BCH, XRP, BTG, ETH, TRX, DASH, USDT, TON}

var ErrEmptyCoin = errors.New("coin name is empty")

// Parse normalises s to a Coin. Unknown names are accepted as-is.
func Parse(s string) (Coin, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return "", ErrEmptyCoin
	}
	if strings.ContainsAny(name, "/ ") {
		return "", fmt.Errorf("invalid coin name %q", s)
	}
	return Coin(name), nil
}

// IsKnown reports whether c is one of Known.
func (c Coin) IsKnown() bool {
	for _, k := range Known {
		if k == c {
			return true
		}
	}
	return false
}

func (c Coin) String() string { return string(c) }

// Pair is a market such as btc/usdt: Left is traded for Right.
type Pair struct {
	Left  Coin
	Right Coin
}

func NewPair(left, right Coin) Pair {
	return Pair{Left: left, Right: right}
}

// Reversed swaps the sides of the pair.
func (p Pair) Reversed() Pair {
	return Pair{Left: p.Right, Right: p.Left}
}

func (p Pair) String() string {
	return p.Left.String() + "/" + p.Right.String()
}

// IsZero reports whether p has no coins set.
func (p Pair) IsZero() bool {
	return p.Left == "" && p.Right == ""
}

// ParsePair parses the "left/right" notation.
func ParsePair(s string) (Pair, error) {
	left, right, ok := strings.Cut(s, "/")
	if !ok {
		return Pair{}, fmt.Errorf("invalid pair %q: expected left/right", s)
	}
	l, err := Parse(left)
	if err != nil {
		return Pair{}, fmt.Errorf("invalid pair %q: %w", s, err)
	}
	r, err := Parse(right)
	if err != nil {
		return Pair{}, fmt.Errorf("invalid pair %q: %w", s, err)
	}
	return Pair{Left: l, Right: r}, nil
}

func (p Pair) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Pair) UnmarshalText(b []byte) error {
	parsed, err := ParsePair(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
