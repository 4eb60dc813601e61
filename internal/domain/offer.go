package domain

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

var errOfferShape = errors.New("offer must be a number or a string")

// Offer is a rate or counter offer as the caller sent it. JSON numbers keep
// decimal precision and are written back as numbers; strings such as "$1,800"
// are kept verbatim and written back as strings.
type Offer struct {
	amount  decimal.Decimal
	text    string
	numeric bool
}

// OfferAmount builds a numeric offer.
func OfferAmount(d decimal.Decimal) Offer {
	return Offer{amount: d, numeric: true}
}

// OfferText builds a textual offer.
func OfferText(s string) Offer {
	return Offer{text: s}
}

// Amount returns the numeric value; ok is false for textual offers.
func (o Offer) Amount() (decimal.Decimal, bool) {
	return o.amount, o.numeric
}

func (o Offer) String() string {
	if o.numeric {
		return o.amount.String()
	}
	return o.text
}

// Equal compares kind and value; 2100.50 equals 2100.5.
func (o Offer) Equal(other Offer) bool {
	if o.numeric != other.numeric {
		return false
	}
	if o.numeric {
		return o.amount.Equal(other.amount)
	}
	return o.text == other.text
}

func (o Offer) MarshalJSON() ([]byte, error) {
	if o.numeric {
		return []byte(o.amount.String()), nil
	}
	return json.Marshal(o.text)
}

func (o *Offer) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return errOfferShape
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*o = OfferText(s)
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		d, err := decimal.NewFromString(string(b))
		if err != nil {
			return err
		}
		*o = OfferAmount(d)
		return nil
	default:
		return errOfferShape
	}
}
