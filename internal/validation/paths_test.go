package validation

import "testing"

func TestValidateFilename(t *testing.T) {
	valid := []string{"wes_tumor.bam", "report..v2.csv", "participants (1).csv"}
	for _, name := range valid {
		if err := ValidateFilename(name); err != nil {
			t.Errorf("ValidateFilename(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "..", "a/b.bam", `a\b.bam`, "nul\x00byte"}
	for _, name := range invalid {
		if err := ValidateFilename(name); err == nil {
			t.Errorf("ValidateFilename(%q) = nil, want error", name)
		}
	}
}

func TestValidatePathInDirectory(t *testing.T) {
	base := t.TempDir()

	if err := ValidatePathInDirectory("sub/file.bam", base); err != nil {
		t.Errorf("relative path inside base rejected: %v", err)
	}
	if err := ValidatePathInDirectory("../../etc/passwd", base); err == nil {
		t.Error("traversal path accepted")
	}
	if err := ValidatePathInDirectory("/etc/passwd", base); err == nil {
		t.Error("absolute path outside base accepted")
	}
	if err := ValidatePathInDirectory("", base); err == nil {
		t.Error("empty path accepted")
	}
}
