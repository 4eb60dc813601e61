package domain

import (
	"regexp"
	"strings"
)

// FieldViolationMessage is reported for every missing or blank required field.
const FieldViolationMessage = "This field is missing or incorrect"

// RequiredFields lists the intake fields a new result cannot be created without,
// in the order violations are reported.
var RequiredFields = []string{
	"mc_number",
	"origin",
	"destination",
	"pickup_datetime",
	"equipment_type",
}

// OptionalFields lists the fields enrichment may add or overwrite.
var OptionalFields = []string{
	"delivery_datetime",
	"carrier_name",
	"rate_offer",
	"counter_offer",
	"outcome",
	"sentiment",
}

var nonDigits = regexp.MustCompile(`[^0-9]`)

// NormalizeMC strips every non-digit character from a carrier identifier.
// NormalizeMC(NormalizeMC(x)) == NormalizeMC(x).
func NormalizeMC(mc string) string {
	return nonDigits.ReplaceAllString(mc, "")
}

// Intake is the caller-supplied request. Required fields are fixed at creation;
// optional fields are only written through IntakeUpdate.
type Intake struct {
	MCNumber       string `json:"mc_number"`
	Origin         string `json:"origin"`
	Destination    string `json:"destination"`
	PickupDatetime string `json:"pickup_datetime"`
	EquipmentType  string `json:"equipment_type"`

	DeliveryDatetime *string `json:"delivery_datetime,omitempty"`
	CarrierName      *string `json:"carrier_name,omitempty"`
	RateOffer        *Offer  `json:"rate_offer,omitempty"`
	CounterOffer     *Offer  `json:"counter_offer,omitempty"`
	Outcome          *string `json:"outcome,omitempty"`
	Sentiment        *string `json:"sentiment,omitempty"`
}

// IntakeFields carries the raw required values of a create request.
type IntakeFields struct {
	MCNumber       string
	Origin         string
	Destination    string
	PickupDatetime string
	EquipmentType  string
}

// Violations returns one entry per missing or blank required field; nil when valid.
func (f IntakeFields) Violations() map[string]string {
	values := map[string]string{
		"mc_number":       f.MCNumber,
		"origin":          f.Origin,
		"destination":     f.Destination,
		"pickup_datetime": f.PickupDatetime,
		"equipment_type":  f.EquipmentType,
	}
	var violations map[string]string
	for _, name := range RequiredFields {
		if strings.TrimSpace(values[name]) != "" {
			continue
		}
		if violations == nil {
			violations = make(map[string]string)
		}
		violations[name] = FieldViolationMessage
	}
	return violations
}

// Normalize produces the stored intake: digits-only MC number, trimmed strings.
func (f IntakeFields) Normalize() Intake {
	return Intake{
		MCNumber:       NormalizeMC(f.MCNumber),
		Origin:         strings.TrimSpace(f.Origin),
		Destination:    strings.TrimSpace(f.Destination),
		PickupDatetime: strings.TrimSpace(f.PickupDatetime),
		EquipmentType:  strings.TrimSpace(f.EquipmentType),
	}
}

// IntakeUpdate holds the optional fields supplied by an enrichment request.
// A nil field was not supplied.
type IntakeUpdate struct {
	DeliveryDatetime *string
	CarrierName      *string
	RateOffer        *Offer
	CounterOffer     *Offer
	Outcome          *string
	Sentiment        *string
}

// Empty reports whether no recognized optional field was supplied.
func (u IntakeUpdate) Empty() bool {
	return u.DeliveryDatetime == nil &&
		u.CarrierName == nil &&
		u.RateOffer == nil &&
		u.CounterOffer == nil &&
		u.Outcome == nil &&
		u.Sentiment == nil
}

// ApplyTo merges the supplied fields into in. Required fields are never touched.
func (u IntakeUpdate) ApplyTo(in *Intake) {
	if u.DeliveryDatetime != nil {
		in.DeliveryDatetime = u.DeliveryDatetime
	}
	if u.CarrierName != nil {
		in.CarrierName = u.CarrierName
	}
	if u.RateOffer != nil {
		in.RateOffer = u.RateOffer
	}
	if u.CounterOffer != nil {
		in.CounterOffer = u.CounterOffer
	}
	if u.Outcome != nil {
		in.Outcome = u.Outcome
	}
	if u.Sentiment != nil {
		in.Sentiment = u.Sentiment
	}
}
