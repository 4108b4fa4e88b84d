package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/muurk/attrstore/internal/attribute"
)

// Attribute table columns
var attributeColumns = []string{"NAME", "TYPE", "ACCESS", "VALUE", "UNIT", "BOUNDS"}

// AttributeRow returns the table cells for one attribute. value is shown
// as given; pass "" when the value is unknown or not readable.
func AttributeRow(d attribute.Descriptor, value string) []string {
	return []string{
		d.Name,
		d.Type.String(),
		d.Access.String(),
		value,
		d.Unit,
		FormatBounds(d.Bounds),
	}
}

// FormatBounds renders bounds as "min..max", or "" when absent.
func FormatBounds(b *attribute.Bounds) string {
	if b == nil {
		return ""
	}
	return b.Min + ".." + b.Max
}

// RenderAttributeTable renders descriptors in declaration order. Values
// missing from values are shown empty.
func RenderAttributeTable(descs []attribute.Descriptor, values map[string]string) string {
	if len(descs) == 0 {
		return HintItemStyle.Render("  (no attributes registered)")
	}

	rows := make([][]string, 0, len(descs))
	for _, d := range descs {
		rows = append(rows, AttributeRow(d, values[d.Name]))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(PrimaryColor)).
		Headers(attributeColumns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case col == 2:
				return TableCellStyle.Foreground(AccessColor(descs[row].Access))
			case col >= 4:
				return TableMutedCellStyle
			default:
				return TableCellStyle
			}
		})

	return strings.TrimRight(t.Render(), "\n")
}
