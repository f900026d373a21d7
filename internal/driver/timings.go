package driver

import (
	"encoding/json"
	"fmt"

	"pasfront/internal/diag"
	"pasfront/internal/observ"
	"pasfront/internal/source"
)

type timingPayload struct {
	Kind string `json:"kind"`
	Path string `json:"path,omitempty"`
	observ.Report
}

// AppendTimings adds report to bag as an informational OBS diagnostic. The
// message is a one-line summary and the only note holds the JSON form. The
// bag grows if it is full.
func AppendTimings(bag *diag.Bag, kind, path string, report observ.Report) {
	if bag == nil {
		return
	}
	if kind == "" {
		kind = "pipeline"
	}
	data, err := json.Marshal(timingPayload{Kind: kind, Path: path, Report: report})
	if err != nil {
		return
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", kind, report.TotalMS)
	if path != "" {
		msg += ": " + path
	}
	d := diag.New(diag.SevInfo, diag.ObsTimings, source.Span{}, msg).WithNote(source.Span{}, string(data))
	if !bag.Add(d) {
		extra := diag.NewBag(1)
		extra.Add(d)
		bag.Merge(extra)
	}
}
