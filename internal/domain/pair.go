package domain

import (
	"fmt"
	"strings"
)

// QuoteAsset is the reference stablecoin every pair is quoted in.
const QuoteAsset = "USDT"

const (
	minBaseLen = 2
	maxBaseLen = 12
)

// Pair is a canonical BASE/QUOTE trading pair. The quote side is always
// QuoteAsset; construct pairs with ParsePair or NewPair.
type Pair struct {
	Base  string
	Quote string
}

// NewPair returns the canonical pair for base, validating the base symbol.
func NewPair(base string) (Pair, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if !validBase(base) || base == QuoteAsset {
		return Pair{}, fmt.Errorf("%w: base %q", ErrInvalidPair, base)
	}
	return Pair{Base: base, Quote: QuoteAsset}, nil
}

// MustPair is NewPair for compile-time constants. It panics on invalid input.
func MustPair(base string) Pair {
	p, err := NewPair(base)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePair normalizes free-form user input into a canonical pair. Accepted
// shapes are "btc", "BTCUSDT" and "BTC/ANY"; the quote is always forced to
// QuoteAsset.
func ParsePair(input string) (Pair, error) {
	s := strings.ToUpper(strings.TrimSpace(input))
	switch {
	case s == "":
		return Pair{}, fmt.Errorf("%w: empty input", ErrInvalidPair)
	case strings.Contains(s, "/"):
		base, _, _ := strings.Cut(s, "/")
		return NewPair(base)
	case strings.HasSuffix(s, QuoteAsset) && len(s) > len(QuoteAsset):
		return NewPair(strings.TrimSuffix(s, QuoteAsset))
	default:
		return NewPair(s)
	}
}

// MustParsePairs parses a list of pair strings, panicking on the first
// invalid entry.
func MustParsePairs(inputs ...string) []Pair {
	out := make([]Pair, 0, len(inputs))
	for _, in := range inputs {
		p, err := ParsePair(in)
		if err != nil {
			panic(err)
		}
		out = append(out, p)
	}
	return out
}

func validBase(base string) bool {
	if len(base) < minBaseLen || len(base) > maxBaseLen {
		return false
	}
	for i := 0; i < len(base); i++ {
		if base[i] < 'A' || base[i] > 'Z' {
			return false
		}
	}
	return true
}

// String renders the pair as BASE/QUOTE.
func (p Pair) String() string {
	return p.Base + "/" + p.Quote
}

// IsZero reports whether p is the zero Pair.
func (p Pair) IsZero() bool {
	return p.Base == "" && p.Quote == ""
}

// SymbolStyle is an exchange's native symbol syntax.
type SymbolStyle int

const (
	SymbolConcat      SymbolStyle = iota // BTCUSDT
	SymbolHyphen                         // BTC-USDT
	SymbolUnderscore                     // BTC_USDT
	SymbolLowerConcat                    // btcusdt
)

// Symbol maps the pair to the native symbol syntax of an exchange.
func (p Pair) Symbol(style SymbolStyle) string {
	switch style {
	case SymbolHyphen:
		return p.Base + "-" + p.Quote
	case SymbolUnderscore:
		return p.Base + "_" + p.Quote
	case SymbolLowerConcat:
		return strings.ToLower(p.Base + p.Quote)
	default:
		return p.Base + p.Quote
	}
}

// MarshalText encodes the pair as BASE/QUOTE.
func (p Pair) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes any input accepted by ParsePair, which lets pairs be
// used directly in TOML and JSON.
func (p *Pair) UnmarshalText(text []byte) error {
	parsed, err := ParsePair(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
