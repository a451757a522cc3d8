package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/noah-isme/pmb-api/pkg/currency"
)

// Amount is a Rupiah amount accepted either as a JSON number or as a
// display string such as "1.500.000". Unparseable strings and negative
// numbers decode to 0.
type Amount int64

// Int64 returns the amount as int64.
func (a Amount) Int64() int64 { return int64(a) }

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*a = Amount(currency.Parse(raw))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a number or string: %w", err)
	}
	v, err := n.Int64()
	if err != nil || v < 0 {
		*a = 0
		return nil
	}
	*a = Amount(v)
	return nil
}

// DecodeStrict decodes a single JSON object from r into dest and rejects
// unknown fields and trailing data.
func DecodeStrict(r io.Reader, dest interface{}) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON object")
	}
	return nil
}
