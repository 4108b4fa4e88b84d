// Package ui renders attrstore-ctl output with lipgloss.
//
// One-shot commands print result boxes and attribute tables through a
// Printer:
//
//	p := ui.NewPrinter(os.Stdout)
//	p.PrintHeader("Attributes", "ws://localhost:8080/ws")
//	p.PrintAttributes(descs, values)
//	p.PrintSuccess("Value written",
//	    ui.Detail{Key: "Attribute", Value: "setpoint"},
//	    ui.Detail{Key: "Value", Value: "21.5"},
//	)
//
// The watch command runs a Bubble Tea program (WatchModel) that polls the
// server and redraws a live table.
//
// Widths follow the terminal (golang.org/x/term) between MinTerminalWidth
// and MaxContentWidth.
package ui
