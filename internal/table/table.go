// Package table holds the file listing view model: sortable columns,
// the row selection set, and fixed-width terminal rendering.
package table

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/trialpoint/trialctl/internal/models"
)

// Column describes one table column. At most one column is Active (the
// current sort column); Descending only has meaning on the active one.
type Column struct {
	Key        string // API sort field
	Label      string
	Sortable   bool
	Active     bool
	Descending bool
}

// FileColumns returns the default column set for the downloadable
// files table.
func FileColumns() []Column {
	return []Column{
		{Key: "file_name", Label: "Name", Sortable: true},
		{Key: "trial_id", Label: "Trial", Sortable: true},
		{Key: "data_category", Label: "Category", Sortable: true},
		{Key: "file_size_bytes", Label: "Size", Sortable: true},
		{Key: "uploaded_timestamp", Label: "Uploaded", Sortable: true, Active: true, Descending: true},
	}
}

// View is the table state for one listing.
type View struct {
	columns  []Column
	selected map[string]bool
}

// NewView creates a view over the given columns.
func NewView(columns []Column) *View {
	return &View{
		columns:  append([]Column(nil), columns...),
		selected: make(map[string]bool),
	}
}

// Columns returns a copy of the column set.
func (v *View) Columns() []Column {
	return append([]Column(nil), v.columns...)
}

// ToggleSort activates the column with the given key. Clicking the
// already-active column flips its direction; activating another column
// starts ascending and deactivates the rest. Returns the resulting sort
// field and direction; ok is false for unknown or unsortable keys.
func (v *View) ToggleSort(key string) (field string, descending, ok bool) {
	idx := -1
	for i, col := range v.columns {
		if col.Key == key {
			idx = i
			break
		}
	}
	if idx < 0 || !v.columns[idx].Sortable {
		return "", false, false
	}

	if v.columns[idx].Active {
		v.columns[idx].Descending = !v.columns[idx].Descending
	} else {
		for i := range v.columns {
			v.columns[i].Active = false
		}
		v.columns[idx].Active = true
		v.columns[idx].Descending = false
	}
	return v.columns[idx].Key, v.columns[idx].Descending, true
}

// ActiveSort returns the active sort column's key and direction.
func (v *View) ActiveSort() (field string, descending bool) {
	for _, col := range v.columns {
		if col.Active {
			return col.Key, col.Descending
		}
	}
	return "", false
}

// ToggleSelect flips row membership in the selection set and reports
// whether the row is selected afterwards.
func (v *View) ToggleSelect(id string) bool {
	if v.selected[id] {
		delete(v.selected, id)
		return false
	}
	v.selected[id] = true
	return true
}

// IsSelected reports whether a row is in the selection set.
func (v *View) IsSelected(id string) bool {
	return v.selected[id]
}

// Selected returns the selected row ids, sorted for stable output.
func (v *View) Selected() []string {
	ids := make([]string, 0, len(v.selected))
	for id := range v.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SelectedCount returns the selection set size.
func (v *View) SelectedCount() int {
	return len(v.selected)
}

// ClearSelection empties the selection set.
func (v *View) ClearSelection() {
	v.selected = make(map[string]bool)
}

// CanDownload reports whether the batch-download action is enabled. It
// is disabled exactly when nothing is selected.
func (v *View) CanDownload() bool {
	return len(v.selected) > 0
}

// Render writes the file table with selection markers, the active sort
// indicator, and a pagination footer.
func (v *View) Render(w io.Writer, files []models.DataFile, page, pageSize, total int) {
	fmt.Fprintf(w, "    %-3s %-36s %-12s %-22s %10s  %s\n",
		"#", v.header("file_name"), v.header("trial_id"),
		v.header("data_category"), v.header("file_size_bytes"), v.header("uploaded_timestamp"))

	for i, f := range files {
		marker := " "
		if v.selected[f.ID] {
			marker = "*"
		}
		uploaded := ""
		if !f.UploadedTimestamp.IsZero() {
			uploaded = f.UploadedTimestamp.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "[%s] %-3d %-36s %-12s %-22s %10s  %s\n",
			marker, page*pageSize+i+1,
			truncate(f.FileName, 36), f.TrialID,
			truncate(f.DataCategory, 22), FormatSize(f.FileSizeBytes), uploaded)
	}

	pages := 1
	if pageSize > 0 && total > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	fmt.Fprintf(w, "\nPage %d of %d (%d files, %d selected)\n", page+1, pages, total, len(v.selected))
}

// header decorates a column label with the sort direction when active.
func (v *View) header(key string) string {
	for _, col := range v.columns {
		if col.Key != key {
			continue
		}
		label := strings.ToUpper(col.Label)
		if col.Active {
			if col.Descending {
				return label + " v"
			}
			return label + " ^"
		}
		return label
	}
	return strings.ToUpper(key)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// FormatSize renders a byte count in human units.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
