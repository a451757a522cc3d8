package dto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountDecoding(t *testing.T) {
	cases := map[string]int64{
		`{"baseFee":"1.500.000"}`:  1500000,
		`{"baseFee":"Rp 250.000"}`: 250000,
		`{"baseFee":1500000}`:      1500000,
		`{"baseFee":"abc"}`:        0,
		`{"baseFee":-10}`:          0,
		`{"baseFee":1.5}`:          0,
		`{"baseFee":null}`:         0,
	}
	for body, want := range cases {
		var req QuoteRequest
		require.NoError(t, DecodeStrict(strings.NewReader(body), &req), body)
		assert.Equal(t, want, req.BaseFee.Int64(), body)
	}
}

func TestDecodeStrict(t *testing.T) {
	var req QuoteRequest
	assert.Error(t, DecodeStrict(strings.NewReader(`{"total":0}`), &req))
	assert.Error(t, DecodeStrict(strings.NewReader(`{"baseFee":1}{"baseFee":2}`), &req))
	assert.Error(t, DecodeStrict(strings.NewReader(`{"baseFee":true}`), &req))
	assert.NoError(t, DecodeStrict(strings.NewReader(`{"feeId":"fee-1"} `), &req))
	assert.Equal(t, "fee-1", req.FeeID)
}
