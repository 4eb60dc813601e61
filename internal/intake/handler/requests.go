package handler

import (
	"bytes"
	"encoding/json"
	"strings"

	"carriercheck/internal/domain"
	dErrors "carriercheck/pkg/domain-errors"
)

// payload is a POST body keyed by field name. Keeping raw values lets the
// handler tell an absent key from a null or blank one.
type payload map[string]json.RawMessage

func (p payload) has(key string) bool {
	_, ok := p[key]
	return ok
}

// text renders a scalar JSON value as a string. Null, absent, objects and
// arrays report ok=false.
func (p payload) text(key string) (string, bool) {
	raw, ok := p[key]
	if !ok {
		return "", false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case '{', '[':
		return "", false
	default:
		// numbers and booleans keep their literal form
		return string(raw), true
	}
}

// isNull reports whether key is present with a JSON null value.
func (p payload) isNull(key string) bool {
	raw, ok := p[key]
	return ok && bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (p payload) intakeFields() domain.IntakeFields {
	get := func(k string) string {
		s, _ := p.text(k)
		return s
	}
	return domain.IntakeFields{
		MCNumber:       get("mc_number"),
		Origin:         get("origin"),
		Destination:    get("destination"),
		PickupDatetime: get("pickup_datetime"),
		EquipmentType:  get("equipment_type"),
	}
}

// requestID returns the enrichment target, trimmed.
func (p payload) requestID() string {
	s, _ := p.text("request_id")
	return strings.TrimSpace(s)
}

// intakeUpdate collects the recognized optional fields. A null value is
// treated as not supplied; a value of the wrong shape is a field violation.
func (p payload) intakeUpdate() (domain.IntakeUpdate, error) {
	var (
		u          domain.IntakeUpdate
		violations map[string]string
	)
	invalid := func(k string) {
		if violations == nil {
			violations = make(map[string]string)
		}
		violations[k] = domain.FieldViolationMessage
	}

	str := func(k string) *string {
		if !p.has(k) || p.isNull(k) {
			return nil
		}
		s, ok := p.text(k)
		if !ok {
			invalid(k)
			return nil
		}
		return &s
	}
	offer := func(k string) *domain.Offer {
		if !p.has(k) || p.isNull(k) {
			return nil
		}
		var o domain.Offer
		if err := json.Unmarshal(p[k], &o); err != nil {
			invalid(k)
			return nil
		}
		return &o
	}

	u.DeliveryDatetime = str("delivery_datetime")
	u.CarrierName = str("carrier_name")
	u.RateOffer = offer("rate_offer")
	u.CounterOffer = offer("counter_offer")
	u.Outcome = str("outcome")
	u.Sentiment = str("sentiment")

	if violations != nil {
		return domain.IntakeUpdate{}, dErrors.NewValidation("Invalid fields", violations)
	}
	return u, nil
}
