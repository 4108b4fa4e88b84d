package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/attrstore/internal/attribute"
)

func testDescriptors() []attribute.Descriptor {
	return []attribute.Descriptor{
		{Name: "setpoint", Type: attribute.TypeDouble, Access: attribute.ReadWrite, Unit: "C",
			Bounds: &attribute.Bounds{Min: "0", Max: "100"}},
		{Name: "firmware", Type: attribute.TypeString, Access: attribute.ReadOnly},
		{Name: "secret", Type: attribute.TypeString, Access: attribute.WriteOnly},
		{Name: "count", Type: attribute.TypeInteger, Access: attribute.ReadWrite},
	}
}

func TestFormatBounds(t *testing.T) {
	if got := FormatBounds(nil); got != "" {
		t.Errorf("FormatBounds(nil) = %q, want empty", got)
	}
	if got := FormatBounds(&attribute.Bounds{Min: "-5", Max: "5"}); got != "-5..5" {
		t.Errorf("FormatBounds() = %q, want -5..5", got)
	}
}

func TestRenderAttributeTable(t *testing.T) {
	out := RenderAttributeTable(testDescriptors(), map[string]string{"setpoint": "21.5"})

	for _, want := range []string{"NAME", "setpoint", "firmware", "secret", "21.5", "0..100",
		attribute.ReadOnly.String(), attribute.TypeDouble.String()} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "setpoint") > strings.Index(out, "count") {
		t.Error("rows should keep declaration order")
	}
}

func TestRenderAttributeTable_Empty(t *testing.T) {
	out := RenderAttributeTable(nil, nil)
	if !strings.Contains(out, "no attributes registered") {
		t.Errorf("unexpected output for empty table: %q", out)
	}
}

func TestSnapshotRows(t *testing.T) {
	rows := SnapshotRows(Snapshot{
		Descriptors: testDescriptors(),
		Values:      map[string]string{"setpoint": "21.5", "firmware": "1.2.0"},
		Errors:      map[string]error{"count": errors.New("coercion failed")},
	})

	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}

	want := []string{"21.5", "1.2.0", "(write only)", FailureMarker + " coercion failed"}
	for i, row := range rows {
		if row[3] != want[i] {
			t.Errorf("row %d value = %q, want %q", i, row[3], want[i])
		}
	}
	if rows[0][4] != "C" {
		t.Errorf("unit = %q, want C", rows[0][4])
	}
}

func TestResult_Render(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		want   []string
	}{
		{
			name:   "success",
			result: NewSuccessResult("Attribute written", Detail{Key: "Name", Value: "setpoint"}),
			want:   []string{"SUCCESS", "Attribute written", "Name:", "setpoint"},
		},
		{
			name:   "warning",
			result: NewWarningResult("Not persisted").AddDetail("State file", "/tmp/state.json"),
			want:   []string{"WARNING", "Not persisted", "State file:"},
		},
		{
			name:   "failure",
			result: NewFailureResult("Write refused", errors.New("access denied"), "check the access mode"),
			want:   []string{"FAILED", "Write refused", "access denied", "Try:", "check the access mode"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.result.SetWidth(80).Render()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("render missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintHeader("storage", "ws://localhost:8080/ws")
	p.PrintAttributes(testDescriptors(), nil)
	p.PrintError("Connection failed", errors.New("refused"))

	out := buf.String()
	for _, want := range []string{"STORAGE", "setpoint", "Connection failed", "refused"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestWatchModel_Update(t *testing.T) {
	fetches := 0
	fetch := func(context.Context) (Snapshot, error) {
		fetches++
		return Snapshot{Descriptors: testDescriptors()[:1], Values: map[string]string{"setpoint": "19"}}, nil
	}

	m := NewWatchModel(context.Background(), "storage", fetch, time.Second)

	msg, ok := m.fetchCmd()().(snapshotMsg)
	if !ok {
		t.Fatal("fetch should produce a snapshotMsg")
	}
	updated, next := m.Update(msg)
	m = updated.(WatchModel)
	if next == nil {
		t.Error("a snapshot should schedule the next poll")
	}

	if fetches != 1 {
		t.Errorf("fetches = %d, want 1", fetches)
	}
	if m.fetching {
		t.Error("model should not be fetching after a snapshot arrives")
	}
	if got := len(m.table.Rows()); got != 1 {
		t.Errorf("table rows = %d, want 1", got)
	}
	if view := m.View(); !strings.Contains(view, "STORAGE") || !strings.Contains(view, "1 attributes") {
		t.Errorf("unexpected view:\n%s", view)
	}

	// A failed poll keeps the previous rows and shows the error.
	updated, _ = m.Update(snapshotMsg{err: errors.New("connection lost"), at: time.Now()})
	m = updated.(WatchModel)
	if got := len(m.table.Rows()); got != 1 {
		t.Errorf("table rows after failed poll = %d, want 1", got)
	}
	if !strings.Contains(m.View(), "connection lost") {
		t.Error("view should show the poll error")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should produce tea.QuitMsg")
	}
}

func TestWatchModel_PollWhileFetching(t *testing.T) {
	m := NewWatchModel(context.Background(), "storage", func(context.Context) (Snapshot, error) {
		return Snapshot{}, nil
	}, time.Second)

	// A new model is fetching until its first snapshot arrives.
	if _, cmd := m.Update(pollMsg{}); cmd != nil {
		t.Error("poll while fetching should not start another fetch")
	}
}
