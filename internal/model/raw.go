package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// RawValue holds an upstream field verbatim as text. It accepts JSON strings,
// numbers and null so raw files written by older crawlers still load.
type RawValue string

// UnmarshalJSON implements json.Unmarshaler.
func (v *RawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = RawValue(s)
		return nil
	}
	*v = RawValue(data)
	return nil
}

// String returns the trimmed text.
func (v RawValue) String() string {
	return strings.TrimSpace(string(v))
}

// RawVnQuote is one retail quote as written to the intermediate raw file.
// All values are uncoerced; the normalizer turns them into a VnGoldQuote.
type RawVnQuote struct {
	Date      RawValue `json:"date"`
	Time      RawValue `json:"time"`
	Timestamp RawValue `json:"timestamp"`
	GoldType  RawValue `json:"gold_type"`
	Location  RawValue `json:"location,omitempty"`
	BuyPrice  RawValue `json:"buy_price"`
	SellPrice RawValue `json:"sell_price"`
	Endpoint  string   `json:"endpoint,omitempty"`
}
