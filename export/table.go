package export

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// RenderTable renders the projection as a boxed pterm table, preceded by
// the period labels and followed by the financing summary. Negative net
// months are printed in red.
func RenderTable(r Report) string {
	var b strings.Builder

	if r.Title != "" {
		b.WriteString(pterm.DefaultSection.Sprint(r.Title))
	}
	for _, label := range r.Periods {
		b.WriteString("  " + label + "\n")
	}
	if len(r.Periods) > 0 {
		b.WriteString("\n")
	}

	rows := r.rows()
	if len(rows) == 0 {
		b.WriteString(pterm.Warning.Sprintln("No months to project"))
		return b.String()
	}

	data := pterm.TableData{columns}
	for _, row := range rows {
		c := cells(row)
		if row.Net.IsNegative() {
			c[4] = pterm.FgRed.Sprint(c[4])
		}
		data = append(data, c)
	}
	table, err := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithRightAlignment().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(data).
		Srender()
	if err != nil {
		table = fmt.Sprintf("table render failed: %v\n", err)
	}
	b.WriteString(table)
	b.WriteString("\n")

	if r.Projection != nil && r.Projection.Financing != nil {
		f := r.Projection.Financing
		b.WriteString(fmt.Sprintf("\nFinancing %s to %s: installment %s, running cost %s, total outlay %s\n",
			f.StartMonth, f.EndMonth, money(f.Installment), money(f.RunningCost), money(f.TotalOutlay)))
	}
	if final, ok := r.Projection.Final(); ok {
		b.WriteString(fmt.Sprintf("Final month %s: cash %s, invested %s, total wealth %s\n",
			final.Month, money(final.CashBalance), money(final.InvestedBalance), money(final.TotalWealth)))
	}
	return b.String()
}
