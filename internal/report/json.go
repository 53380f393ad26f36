package report

import (
	"encoding/json"
	"io"

	"tvlScope/internal/tvl"
)

type jsonDocument struct {
	RPC               string        `json:"rpc"`
	ChainID           string        `json:"chain_id"`
	BlockNumber       uint64        `json:"block_number"`
	Aggregator        string        `json:"aggregator"`
	Provider          string        `json:"provider"`
	Metric            string        `json:"metric"`
	ReferencePriceUSD float64       `json:"reference_price_usd"`
	ReferenceUnit     string        `json:"reference_unit"`
	TotalUSD          float64       `json:"total_usd"`
	Counted           int           `json:"counted"`
	Ineligible        int           `json:"ineligible"`
	Failed            int           `json:"failed"`
	Reserves          []jsonReserve `json:"reserves"`
}

type jsonReserve struct {
	Reserve     int     `json:"reserve"`
	Symbol      string  `json:"symbol"`
	Asset       string  `json:"asset"`
	Status      string  `json:"status"`
	Decimals    uint64  `json:"decimals"`
	SuppliedRaw string  `json:"supplied_raw,omitempty"`
	TotalLocked float64 `json:"total_locked"`
	ValueInRef  float64 `json:"value_in_ref"`
	ValueUSD    float64 `json:"value_usd"`
	Error       string  `json:"error,omitempty"`
}

// RenderJSON writes the report as a single indented JSON document.
func RenderJSON(w io.Writer, header Header, rep tvl.Report) error {
	doc := jsonDocument{
		RPC:               header.RPC,
		ChainID:           chainIDString(header.ChainID),
		BlockNumber:       header.BlockNumber,
		Aggregator:        header.Aggregator.Hex(),
		Provider:          header.Provider.Hex(),
		Metric:            string(rep.Metric),
		ReferencePriceUSD: rep.ReferencePriceUSD,
		ReferenceUnit:     unitString(rep),
		TotalUSD:          rep.TotalUSD,
		Counted:           rep.Counted,
		Ineligible:        rep.Ineligible,
		Failed:            rep.Failed,
		Reserves:          make([]jsonReserve, 0, len(rep.Outcomes)),
	}

	for _, out := range rep.Outcomes {
		item := jsonReserve{
			Reserve:     out.Position + 1,
			Symbol:      out.Symbol,
			Asset:       out.Asset.Hex(),
			Status:      string(out.Status),
			Decimals:    out.Decimals,
			TotalLocked: out.Normalized,
			ValueInRef:  out.ValueInRef,
			ValueUSD:    out.ValueUSD,
		}
		if out.SuppliedRaw != nil {
			item.SuppliedRaw = out.SuppliedRaw.String()
		}
		if out.Err != nil {
			item.Error = out.Err.Error()
		}
		doc.Reserves = append(doc.Reserves, item)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
