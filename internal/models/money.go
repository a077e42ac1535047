package models

import "github.com/shopspring/decimal"

func init() {
	// the SPA expects plain JSON numbers for amounts
	decimal.MarshalJSONWithoutQuotes = true
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentVisa     PaymentMethod = "visa"
	PaymentTransfer PaymentMethod = "transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentVisa, PaymentTransfer:
		return true
	}
	return false
}
