package filter

import (
	"reflect"
	"testing"

	"github.com/trialpoint/trialctl/internal/models"
)

func testFiles() []models.DataFile {
	return []models.DataFile{
		{ID: "f1", FileName: "wes_tumor.bam", TrialID: "NCI-001", DataCategory: "WES"},
		{ID: "f2", FileName: "wes_normal.bam", TrialID: "NCI-001", DataCategory: "WES"},
		{ID: "f3", FileName: "participants.csv", TrialID: "NCI-002", DataCategory: "Participants"},
		{ID: "f4", FileName: "debug_log.txt", TrialID: "NCI-002", DataCategory: "Misc"},
	}
}

func ids(files []models.DataFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.ID
	}
	return out
}

func TestApplyEmptyConfigReturnsAll(t *testing.T) {
	got := Apply(testFiles(), Config{})
	if len(got) != 4 {
		t.Errorf("got %d files, want all 4", len(got))
	}
}

func TestApplyIncludeGlob(t *testing.T) {
	got := Apply(testFiles(), Config{Include: []string{"*.bam"}})
	if !reflect.DeepEqual(ids(got), []string{"f1", "f2"}) {
		t.Errorf("ids = %v", ids(got))
	}
}

func TestApplyExcludeWinsOverInclude(t *testing.T) {
	got := Apply(testFiles(), Config{
		Include: []string{"*"},
		Exclude: []string{"debug*"},
	})
	if len(got) != 3 {
		t.Errorf("got %v, exclude should drop debug_log.txt", ids(got))
	}
}

func TestApplySearchRequiresAllTerms(t *testing.T) {
	got := Apply(testFiles(), Config{Search: []string{"WES", "tumor"}})
	if !reflect.DeepEqual(ids(got), []string{"f1"}) {
		t.Errorf("ids = %v, search terms must all match case-insensitively", ids(got))
	}
}

func TestApplyCategoryAndTrial(t *testing.T) {
	got := Apply(testFiles(), Config{Categories: []string{"wes"}})
	if len(got) != 2 {
		t.Errorf("category filter: %v", ids(got))
	}

	got = Apply(testFiles(), Config{TrialIDs: []string{"NCI-002"}})
	if !reflect.DeepEqual(ids(got), []string{"f3", "f4"}) {
		t.Errorf("trial filter: %v", ids(got))
	}
}

func TestParsePatternList(t *testing.T) {
	got := ParsePatternList(" *.bam, *.vcf ,,")
	if !reflect.DeepEqual(got, []string{"*.bam", "*.vcf"}) {
		t.Errorf("ParsePatternList() = %v", got)
	}
	if ParsePatternList("") != nil {
		t.Error("empty input should yield nil")
	}
}
