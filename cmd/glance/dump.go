package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/five82/glance/internal/app"
	"github.com/five82/glance/internal/report"
	"github.com/five82/glance/internal/table"
)

type dumpOptions struct {
	page   int
	sort   string
	expand bool
	json   bool
}

func newDumpCmd(opts *options) *cobra.Command {
	d := &dumpOptions{}
	cmd := &cobra.Command{
		Use:   "dump <panel>",
		Short: "Print one page of a panel from the report files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadForOutput(cmd)
			if err != nil {
				return err
			}
			c, err := app.NewContext(cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			if _, err := c.LoadFiles(cfg.Report); err != nil {
				return err
			}
			view, err := d.render(c.Pipeline, c.Registry.ValidPanels(), args[0])
			if err != nil {
				return err
			}
			if d.json {
				return writeJSON(cmd.OutOrStdout(), dumpJSON(view))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderDump(view))
			return err
		},
	}
	cmd.Flags().IntVar(&d.page, "page", 1, "page to print")
	cmd.Flags().StringVar(&d.sort, "sort", "", "sort column, optionally field:asc or field:desc")
	cmd.Flags().BoolVar(&d.expand, "expand", false, "expand every row with children")
	cmd.Flags().BoolVar(&d.json, "json", false, "print the page as JSON")
	return cmd
}

func (d *dumpOptions) render(p *table.Pipeline, valid []string, panelID string) (table.View, error) {
	if len(valid) == 0 {
		return table.View{}, app.ErrNoReport
	}
	view, ok := p.Render(panelID, table.First)
	if !ok {
		return table.View{}, fmt.Errorf("%w %q (have %s)", report.ErrUnknownPanel, panelID, strings.Join(valid, ", "))
	}

	if d.sort != "" {
		field, order, hasOrder := strings.Cut(d.sort, ":")
		if !hasHeader(view, field) {
			return table.View{}, fmt.Errorf("cannot sort %s by %q", panelID, field)
		}
		if hasOrder {
			order = strings.ToLower(order)
			if order != report.Asc && order != report.Desc {
				return table.View{}, fmt.Errorf("sort order must be asc or desc, got %q", order)
			}
			view, _ = p.SetSortOrder(panelID, report.Sort{Field: field, Order: order})
		} else {
			view, _ = p.SetSort(panelID, field)
		}
	}
	if d.expand {
		for _, key := range expandable(p.Rows(panelID)) {
			p.ToggleRow(panelID, key)
		}
	}
	view, _ = p.Render(panelID, table.Page(d.page))
	return view, nil
}

func hasHeader(v table.View, key string) bool {
	for _, h := range v.Headers {
		if h.Key == key {
			return true
		}
	}
	return false
}

func expandable(rows []report.Row) []string {
	var keys []string
	for _, r := range rows {
		if r.HasChildren() {
			keys = append(keys, r.Key())
		}
	}
	return keys
}

func cellText(c table.Cell) string {
	if c.Percent == "" {
		return c.Text
	}
	return c.Text + " (" + c.Percent + ")"
}

func renderDump(v table.View) string {
	muted := lipgloss.NewStyle().Faint(true)
	bold := lipgloss.NewStyle().Bold(true)

	headers := []string{"#"}
	for _, h := range v.Headers {
		title := h.Title
		if h.Sorted {
			if h.Descending {
				title += " ↓"
			} else {
				title += " ↑"
			}
		}
		headers = append(headers, title)
	}

	var rows [][]string
	metaRow := -1
	if hasMeta(v.Meta) {
		row := []string{""}
		for _, m := range v.Meta {
			if m.Label == "" {
				row = append(row, "")
				continue
			}
			row = append(row, m.Label+" "+m.Text)
		}
		metaRow = len(rows)
		rows = append(rows, row)
	}
	for _, r := range v.Rows {
		row := make([]string, 0, len(headers))
		switch {
		case r.Info:
			row = append(row, "")
		case r.Depth > 0:
			row = append(row, "└")
		default:
			row = append(row, strconv.Itoa(r.Index))
		}
		for _, c := range r.Cells {
			row = append(row, cellText(c))
		}
		for len(row) < len(headers) {
			row = append(row, "")
		}
		rows = append(rows, row)
	}

	t := lgtable.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == lgtable.HeaderRow:
				return s.Inherit(bold)
			case row == metaRow:
				return s.Inherit(muted)
			}
			if col > 0 && col-1 < len(v.Headers) && v.Headers[col-1].Numeric {
				return s.Align(lipgloss.Right)
			}
			return s
		})

	var b strings.Builder
	b.WriteString(bold.Render(v.Title))
	b.WriteString("\n")
	b.WriteString(t.String())
	b.WriteString("\n")
	fmt.Fprintf(&b, "page %d/%d · %d rows · sort %s %s", v.Page, v.TotalPages, v.TotalRows, v.Sort.Field, strings.ToLower(v.Sort.Order))
	return b.String()
}

func hasMeta(meta []table.Cell) bool {
	for _, m := range meta {
		if m.Label != "" {
			return true
		}
	}
	return false
}

type dumpRow struct {
	Index    int               `json:"index"`
	Key      string            `json:"key"`
	Parent   string            `json:"parent,omitempty"`
	Cells    map[string]string `json:"cells"`
	Children bool              `json:"hasChildren,omitempty"`
}

type dumpPage struct {
	Panel      string      `json:"panel"`
	Title      string      `json:"title"`
	Page       int         `json:"page"`
	TotalPages int         `json:"totalPages"`
	TotalRows  int         `json:"totalRows"`
	Sort       report.Sort `json:"sort"`
	Columns    []string    `json:"columns"`
	Rows       []dumpRow   `json:"rows"`
}

func dumpJSON(v table.View) dumpPage {
	out := dumpPage{
		Panel:      v.PanelID,
		Title:      v.Title,
		Page:       v.Page,
		TotalPages: v.TotalPages,
		TotalRows:  v.TotalRows,
		Sort:       v.Sort,
		Rows:       []dumpRow{},
	}
	for _, h := range v.Headers {
		out.Columns = append(out.Columns, h.Key)
	}
	for _, r := range v.Rows {
		if r.Info {
			continue
		}
		row := dumpRow{Index: r.Index, Key: r.Key, Parent: r.ParentKey, Children: r.HasChildren, Cells: map[string]string{}}
		for i, c := range r.Cells {
			if i < len(v.Headers) {
				row.Cells[v.Headers[i].Key] = cellText(c)
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
