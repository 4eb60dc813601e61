package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// ErrMissingWebKeyOrMC is the error marker for verification requests rejected
// before any network call.
const ErrMissingWebKeyOrMC = "missing_webkey_or_mc"

// ErrCarrierNotFound marks a registry response without a content object.
const ErrCarrierNotFound = "not_found"

// CarrierVerification is the normalized registry outcome for one carrier.
// Nil pointer fields were absent in the registry response.
type CarrierVerification struct {
	Valid            bool            `json:"valid"`
	AllowedToOperate *string         `json:"allowed_to_operate,omitempty"`
	DOTNumber        *string         `json:"dot_number,omitempty"`
	CarrierName      *string         `json:"carrier_name,omitempty"`
	Endpoint         string          `json:"endpoint,omitempty"`
	CheckedAt        time.Time       `json:"checked_at"`
	Error            *string         `json:"error,omitempty"`
	Raw              json.RawMessage `json:"raw,omitempty"`
}

// AllowedToOperateValid is the single rule deciding carrier validity: the
// registry flag must be "Y", case-insensitively. Absence is never valid.
func AllowedToOperateValid(flag *string) bool {
	return flag != nil && strings.EqualFold(*flag, "Y")
}
