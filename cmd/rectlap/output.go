package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/lixenwraith/rectlap/config"
	"github.com/lixenwraith/rectlap/geom"
)

// resultRecord is the JSON shape of one published rectangle
type resultRecord struct {
	ID       int     `json:"id"`
	X        float64 `json:"rectX"`
	Y        float64 `json:"rectY"`
	W        float64 `json:"rectW"`
	H        float64 `json:"rectH"`
	Overlaps bool    `json:"overlaps"`
}

// writeResult prints the published collection as a tab-aligned table or JSON
func writeResult(w io.Writer, format string, rects []geom.Rectangle) error {
	if format == config.OutputJSON {
		records := make([]resultRecord, len(rects))
		for i, r := range rects {
			records[i] = resultRecord{ID: r.ID, X: r.X, Y: r.Y, W: r.W, H: r.H, Overlaps: r.Overlaps}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tX\tY\tW\tH\tOVERLAPS")
	for _, r := range rects {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%t\n", r.ID, num(r.X), num(r.Y), num(r.W), num(r.H), r.Overlaps)
	}
	return tw.Flush()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
