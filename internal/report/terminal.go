package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/rodaine/table"

	"tvlScope/internal/tvl"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// RenderTerminal writes the progress lines, a per-reserve table, and the
// final total.
func RenderTerminal(w io.Writer, header Header, rep tvl.Report) error {
	ew := &errWriter{w: w}

	ew.printf("Connected to %s (chain %s)\n", header.RPC, chainIDString(header.ChainID))
	ew.printf("Latest block from RPC: %s\n", cyan(fmt.Sprintf("%d", header.BlockNumber)))
	ew.printf("Reserves from getReservesData(%s) via %s\n\n", header.Provider.Hex(), header.Aggregator.Hex())

	ew.printf("%s\n", bold("Calculating Total Value Locked"))
	ew.printf("Market Reference Currency: $%.4f per unit\n", rep.ReferencePriceUSD)
	ew.printf("Market Reference Currency Unit: %s\n", unitString(rep))
	ew.printf("Processing %d reserves (metric: %s)\n\n", len(rep.Outcomes), rep.Metric)
	if ew.err != nil {
		return ew.err
	}

	if len(rep.Outcomes) > 0 {
		headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
		tbl := table.New("#", "Symbol", "Total Locked", "Value (USD)", "Status", "Note")
		tbl.WithHeaderFormatter(headerFmt)
		tbl.WithWriter(w)

		for _, out := range rep.Outcomes {
			tbl.AddRow(out.Position+1, out.Symbol, lockedCell(out), valueCell(out), statusCell(out.Status), noteCell(out))
		}
		tbl.Print()
		ew.printf("\n")
	}

	ew.printf("%s\n", bold("TVL Calculation Complete"))
	ew.printf("Total Value Locked (TVL) in USD: %s\n", bold(green(FormatUSD(rep.TotalUSD))))
	ew.printf("Counted %d, ineligible %d, skipped %d\n", rep.Counted, rep.Ineligible, rep.Failed)
	return ew.err
}

func unitString(rep tvl.Report) string {
	if rep.ReferenceUnit == nil {
		return placeholder
	}
	return rep.ReferenceUnit.String()
}

func lockedCell(out tvl.Outcome) string {
	if out.Status != tvl.StatusCounted {
		return placeholder
	}
	return FormatAmount(out.SuppliedRaw, out.Decimals)
}

func valueCell(out tvl.Outcome) string {
	if out.Status != tvl.StatusCounted {
		return placeholder
	}
	return FormatUSD(out.ValueUSD)
}

func statusCell(status tvl.Status) string {
	switch status {
	case tvl.StatusCounted:
		return green(string(status))
	case tvl.StatusIneligible:
		return yellow(string(status))
	default:
		return red(string(status))
	}
}

func noteCell(out tvl.Outcome) string {
	if out.Err == nil {
		return ""
	}
	return out.Err.Error()
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
