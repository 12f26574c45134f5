package wallet

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrUnknownStock  = errors.New("unknown stock")
)

// Stock is a single position, countervalue is its current market value
type Stock struct {
	Symbol       string  `json:"symbol"`
	Investment   float64 `json:"investment"`
	Countervalue float64 `json:"countervalue"`
}

// NewStock opens a position whose countervalue equals the investment
func NewStock(symbol string, investment float64) (*Stock, error) {
	return NewStockWithCountervalue(symbol, investment, investment)
}

func NewStockWithCountervalue(symbol string, investment, countervalue float64) (*Stock, error) {
	if investment <= 0 {
		return nil, fmt.Errorf("%w: investment must be positive, got %v", ErrInvalidAmount, investment)
	}

	return &Stock{Symbol: symbol, Investment: investment, Countervalue: countervalue}, nil
}

func (s *Stock) ReturnOnInvestment() float64 {
	return s.Countervalue/s.Investment - 1
}

// ModifyPosition adds (or with a negative amount removes) money from the position
func (s *Stock) ModifyPosition(byAmount float64) error {
	if s.Countervalue+byAmount < 0 {
		return fmt.Errorf("%w: can't decrease position (%v) by more than its countervalue (%v)", ErrInvalidAmount, byAmount, s.Countervalue)
	}

	s.Countervalue += byAmount
	s.Investment += byAmount
	return nil
}

// ApplyPercentageValueChange applies a fractional change, 0.1 is a 10% increase
func (s *Stock) ApplyPercentageValueChange(change float64) {
	s.Countervalue *= 1 + change
}

type Wallet struct {
	Stocks map[string]*Stock `json:"stocks"`
}

func New() *Wallet {
	return &Wallet{Stocks: map[string]*Stock{}}
}

func FromStocks(stocks ...*Stock) *Wallet {
	w := New()
	for _, s := range stocks {
		w.Stocks[s.Symbol] = s
	}
	return w
}

func (w *Wallet) Investment() (res float64) {
	for _, s := range w.Stocks {
		res += s.Investment
	}
	return
}

func (w *Wallet) Countervalue() (res float64) {
	for _, s := range w.Stocks {
		res += s.Countervalue
	}
	return
}

func (w *Wallet) ReturnOnInvestment() float64 {
	if w.IsEmpty() {
		return 0
	}
	return w.Countervalue()/w.Investment() - 1
}

func (w *Wallet) IsEmpty() bool {
	return len(w.Stocks) == 0
}

// Symbols returns the held symbols in sorted order
func (w *Wallet) Symbols() []string {
	return slices.Sorted(maps.Keys(w.Stocks))
}

func (w *Wallet) Buy(symbol string, amount float64) error {
	if s, ok := w.Stocks[symbol]; ok {
		return s.ModifyPosition(amount)
	}

	s, err := NewStock(symbol, amount)
	if err != nil {
		return err
	}

	w.Stocks[symbol] = s
	return nil
}

func (w *Wallet) Sell(symbol string, amount float64) error {
	s, ok := w.Stocks[symbol]
	if !ok {
		return fmt.Errorf("%w: stock %s not in wallet", ErrUnknownStock, symbol)
	}
	return s.ModifyPosition(-amount)
}

// ApplyPercentageValueChange applies a fractional change to one held stock, a value can't drop below zero
func (w *Wallet) ApplyPercentageValueChange(symbol string, change float64) error {
	s, ok := w.Stocks[symbol]
	if !ok {
		return fmt.Errorf("%w: stock %s not in wallet", ErrUnknownStock, symbol)
	}
	if change < -1 {
		return fmt.Errorf("%w: change %v would make the countervalue of %s negative", ErrInvalidAmount, change, symbol)
	}

	s.ApplyPercentageValueChange(change)
	return nil
}
