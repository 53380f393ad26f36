package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"

	"tvlScope/internal/tvl"
)

func sampleReport() (Header, tvl.Report) {
	header := Header{
		RPC:         "http://node.example",
		ChainID:     big.NewInt(1),
		BlockNumber: 19_000_000,
		Aggregator:  common.HexToAddress("0x3F78BBD206e4D3c504Eb854232EdA7e47E9Fd8FC"),
		Provider:    common.HexToAddress("0x2f39d218133AFaB8F2B819B1066c7E434Ad94E9e"),
	}
	rep := tvl.Report{
		Metric:            tvl.MetricTotalAvailable,
		ReferencePriceUSD: 1,
		ReferenceUnit:     big.NewInt(100_000_000),
		Outcomes: []tvl.Outcome{
			{
				Position:    0,
				Symbol:      "WETH",
				Asset:       common.HexToAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"),
				Status:      tvl.StatusCounted,
				Decimals:    18,
				SuppliedRaw: new(big.Int).Mul(big.NewInt(1_234_567), big.NewInt(1_000_000_000_000_000)),
				Normalized:  1234.567,
				ValueInRef:  3_703_701,
				ValueUSD:    3_703_701,
			},
			{Position: 1, Symbol: "ICE", Status: tvl.StatusIneligible, Decimals: 6},
			{Position: 2, Symbol: "BROKEN", Status: tvl.StatusFailed, Err: errors.New("malformed reserve record")},
		},
		TotalUSD:   3_703_701,
		Counted:    1,
		Ineligible: 1,
		Failed:     1,
	}
	return header, rep
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		raw      *big.Int
		decimals uint64
		want     string
	}{
		{big.NewInt(1_000_000), 6, "1.0000"},
		{big.NewInt(123_456_789_012), 6, "123,456.7890"},
		{big.NewInt(5), 6, "0.0000"},
		{big.NewInt(987), 0, "987.0000"},
		{nil, 6, "-"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.raw, tc.decimals); got != tc.want {
			t.Fatalf("FormatAmount(%v, %d) = %q, want %q", tc.raw, tc.decimals, got, tc.want)
		}
	}
}

func TestFormatUSD(t *testing.T) {
	cases := map[float64]string{
		0:              "$0.00",
		1:              "$1.00",
		999.5:          "$999.50",
		1234567.891:    "$1,234,567.89",
		-1500:          "$-1,500.00",
		12345678901.25: "$12,345,678,901.25",
	}
	for value, want := range cases {
		if got := FormatUSD(value); got != want {
			t.Fatalf("FormatUSD(%v) = %q, want %q", value, got, want)
		}
	}
}

func TestRenderTerminal(t *testing.T) {
	color.NoColor = true
	header, rep := sampleReport()

	var buf bytes.Buffer
	if err := RenderTerminal(&buf, header, rep); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Latest block from RPC: 19000000",
		"$1.0000 per unit",
		"Market Reference Currency Unit: 100000000",
		"Processing 3 reserves",
		"1,234.5670",
		"$3,703,701.00",
		"ineligible",
		"malformed reserve record",
		"Total Value Locked (TVL) in USD: $3,703,701.00",
		"Counted 1, ineligible 1, skipped 1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderJSON(t *testing.T) {
	header, rep := sampleReport()

	var buf bytes.Buffer
	if err := RenderJSON(&buf, header, rep); err != nil {
		t.Fatalf("render: %v", err)
	}

	var doc jsonDocument
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not json: %v", err)
	}
	if doc.ChainID != "1" || doc.BlockNumber != 19_000_000 || doc.TotalUSD != 3_703_701 {
		t.Fatalf("header mismatch: %+v", doc)
	}
	if doc.Aggregator != "0x3F78BBD206e4D3c504Eb854232EdA7e47E9Fd8FC" {
		t.Fatalf("aggregator should be checksummed: %s", doc.Aggregator)
	}
	if len(doc.Reserves) != 3 {
		t.Fatalf("reserves mismatch: %d", len(doc.Reserves))
	}
	if doc.Reserves[0].Asset != "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2" {
		t.Fatalf("asset should be checksummed: %s", doc.Reserves[0].Asset)
	}
	if doc.Reserves[0].Reserve != 1 || doc.Reserves[0].SuppliedRaw != "1234567000000000000000" {
		t.Fatalf("first reserve mismatch: %+v", doc.Reserves[0])
	}
	if doc.Reserves[2].Status != "failed" || doc.Reserves[2].Error == "" {
		t.Fatalf("failed reserve mismatch: %+v", doc.Reserves[2])
	}
}
