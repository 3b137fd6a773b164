package attendance

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// PrintSummary renders the final slot list as a terminal table so a
// run's outcome is inspectable without opening the workbook.
func PrintSummary(w io.Writer, final []SlotRecord) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)

	t.AppendHeader(table.Row{"Date", "Campus", "Start", "End"})
	for _, s := range final {
		t.AppendRow(table.Row{s.SlotDate, s.CampusName, s.SlotStart, s.SlotEnd})
	}
	t.AppendFooter(table.Row{"", "", "slots", len(final)})
	t.Render()
}
