package table

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/trialpoint/trialctl/internal/models"
)

func TestToggleSortActivatesAscendingThenFlips(t *testing.T) {
	v := NewView(FileColumns())

	field, desc, ok := v.ToggleSort("file_name")
	if !ok || field != "file_name" || desc {
		t.Fatalf("first toggle = %q desc=%v ok=%v, want ascending file_name", field, desc, ok)
	}

	_, desc, _ = v.ToggleSort("file_name")
	if !desc {
		t.Error("second toggle on the same column should flip to descending")
	}

	_, desc, _ = v.ToggleSort("file_name")
	if desc {
		t.Error("third toggle should flip back to ascending")
	}
}

func TestToggleSortDeactivatesOtherColumns(t *testing.T) {
	v := NewView(FileColumns())

	v.ToggleSort("file_name")
	v.ToggleSort("file_size_bytes")

	active := 0
	for _, col := range v.Columns() {
		if col.Active {
			active++
			if col.Key != "file_size_bytes" || col.Descending {
				t.Errorf("active column = %+v, want ascending file_size_bytes", col)
			}
		}
	}
	if active != 1 {
		t.Errorf("active columns = %d, want exactly 1", active)
	}
}

func TestToggleSortRejectsUnknownKey(t *testing.T) {
	v := NewView(FileColumns())
	if _, _, ok := v.ToggleSort("no_such_column"); ok {
		t.Error("unknown column must not change the sort")
	}
	if field, desc := v.ActiveSort(); field != "uploaded_timestamp" || !desc {
		t.Errorf("default sort = %q desc=%v, want uploaded_timestamp desc", field, desc)
	}
}

func TestSelectionToggleAndClear(t *testing.T) {
	v := NewView(FileColumns())

	for _, id := range []string{"f1", "f2", "f3"} {
		if !v.ToggleSelect(id) {
			t.Errorf("ToggleSelect(%q) = false, want selected", id)
		}
	}
	if !v.CanDownload() || v.SelectedCount() != 3 {
		t.Fatalf("count = %d canDownload = %v", v.SelectedCount(), v.CanDownload())
	}
	if got := v.Selected(); !reflect.DeepEqual(got, []string{"f1", "f2", "f3"}) {
		t.Errorf("Selected() = %v", got)
	}

	v.ClearSelection()
	if v.SelectedCount() != 0 {
		t.Errorf("count = %d after clear, want 0", v.SelectedCount())
	}
	if v.CanDownload() {
		t.Error("download must be disabled when nothing is selected")
	}
}

func TestToggleSelectRemoves(t *testing.T) {
	v := NewView(FileColumns())
	v.ToggleSelect("f1")
	if v.ToggleSelect("f1") {
		t.Error("second toggle should deselect")
	}
	if v.IsSelected("f1") {
		t.Error("f1 still selected after deselect")
	}
}

func TestRenderMarksSelectionAndSort(t *testing.T) {
	v := NewView(FileColumns())
	v.ToggleSelect("f2")

	files := []models.DataFile{
		{ID: "f1", FileName: "wes_tumor.bam", TrialID: "NCI-001", DataCategory: "WES", FileSizeBytes: 2 << 30, UploadedTimestamp: time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)},
		{ID: "f2", FileName: "participants.csv", TrialID: "NCI-001", DataCategory: "Participants", FileSizeBytes: 1024},
	}

	var buf bytes.Buffer
	v.Render(&buf, files, 0, 15, 2)
	out := buf.String()

	if !strings.Contains(out, "UPLOADED v") {
		t.Errorf("output missing sort indicator:\n%s", out)
	}
	if !strings.Contains(out, "[*]") {
		t.Errorf("output missing selection marker:\n%s", out)
	}
	if !strings.Contains(out, "Page 1 of 1 (2 files, 1 selected)") {
		t.Errorf("output missing footer:\n%s", out)
	}
}

func TestFormatSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 << 20, "5.0 MB"},
		{3 << 30, "3.0 GB"},
	}
	for _, tc := range cases {
		if got := FormatSize(tc.in); got != tc.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
