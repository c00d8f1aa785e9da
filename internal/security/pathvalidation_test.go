package security

import (
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"marker directly under dir", filepath.Join(dir, "arm_at_home"), false},
		{"marker in subdirectory", filepath.Join(dir, "state", "arm_at_home"), false},
		{"escape via dotdot", filepath.Join(dir, "..", "arm_at_home"), true},
		{"unrelated absolute path", "/etc/arm_at_home", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, dir)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePathWithinDirectory(%q, %q) error = %v, wantErr %v",
					tt.path, dir, err, tt.wantErr)
			}
		})
	}
}
