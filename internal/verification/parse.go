package verification

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"carriercheck/internal/domain"
)

// registryFields are the values read from a registry payload. Nil means the
// field was absent at whichever nesting level was consulted.
type registryFields struct {
	allowedToOperate *string
	dotNumber        *string
	legalName        *string
}

// parseCarrier builds a verification from a 2xx response body. A missing or
// malformed body is treated as an empty object.
func parseCarrier(body []byte) domain.CarrierVerification {
	raw, data := decodePayload(body)
	top, _ := data.(map[string]any)
	fields, found := extractFields(top)

	out := domain.CarrierVerification{
		Valid:            domain.AllowedToOperateValid(fields.allowedToOperate),
		AllowedToOperate: fields.allowedToOperate,
		DOTNumber:        fields.dotNumber,
		CarrierName:      fields.legalName,
		Raw:              json.RawMessage(raw),
	}
	if !found {
		msg := domain.ErrCarrierNotFound
		out.Error = &msg
	}
	return out
}

// extractFields looks for the carrier fields first in content.carrier and then
// in content itself. found is false when the payload has no usable content.
func extractFields(top map[string]any) (registryFields, bool) {
	contentVal, ok := top["content"]
	if !ok || !truthy(contentVal) {
		return registryFields{}, false
	}
	content, ok := contentVal.(map[string]any)
	if !ok {
		// Present but not an object, e.g. a list from a docket search.
		return registryFields{}, true
	}

	source := content
	if carrier, ok := content["carrier"].(map[string]any); ok && len(carrier) > 0 {
		source = carrier
	}

	dot := scalar(source["dotNumber"])
	if !truthy(source["dotNumber"]) {
		dot = scalar(source["usdotNumber"])
	}

	return registryFields{
		allowedToOperate: scalar(source["allowedToOperate"]),
		dotNumber:        dot,
		legalName:        scalar(source["legalName"]),
	}, true
}

// scalar renders a decoded JSON value as text; nil stays nil.
func scalar(v any) *string {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s = t
	case json.Number:
		s = t.String()
	case bool:
		if t {
			s = "true"
		} else {
			s = "false"
		}
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		s = string(b)
	}
	return &s
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		return true
	}
}

// decodePayload returns the compacted body and its decoded value. Anything that
// is not exactly one JSON value, trailing data included, becomes an empty object.
func decodePayload(body []byte) ([]byte, any) {
	empty := func() ([]byte, any) { return []byte("{}"), map[string]any{} }

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return empty()
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return empty()
	}

	var data any
	dec := json.NewDecoder(bytes.NewReader(buf.Bytes()))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return empty()
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return empty()
	}
	return buf.Bytes(), data
}
