package mounts

import (
	"embed"
	"errors"
	"io/fs"
	"strings"
	"testing"
)

//go:embed testdata
var testdata embed.FS

func TestMounts(t *testing.T) {

	tests := []struct {
		name       string
		mountName  string
		embeddedFS fs.FS
		dirPath    string
		fileToStat string
		wantErr    error
	}{
		{
			name:       "embedded fs mount",
			mountName:  "testdata",
			embeddedFS: testdata,
			dirPath:    "",
			fileToStat: "sub/nested.sql",
		},
		{
			name:       "directory fs mount",
			mountName:  "testdata",
			embeddedFS: testdata,
			dirPath:    "./testdata",
			fileToStat: "sub/nested.sql",
		},
		{
			name:       "directory fs mount fail",
			mountName:  "testdata",
			embeddedFS: testdata,
			dirPath:    "./doesNotExist",
			wantErr:    errors.New(`new mount at "./doesNotExist"`),
		},
		{
			name:       "invalid mount name",
			mountName:  "/dev/null",
			embeddedFS: testdata,
			wantErr:    ErrInvalidPath{"/dev/null"},
		},
		{
			name:       "empty mount name",
			mountName:  "",
			embeddedFS: testdata,
			wantErr:    errors.New("no mount name provided"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, err := New(tt.mountName, tt.embeddedFS, tt.dirPath)
			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr.Error()) {
					t.Errorf("error got %q want substring %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, err := fs.Stat(fm, tt.fileToStat); err != nil {
				t.Errorf("could not stat %q in mount: %v", tt.fileToStat, err)
			}
			if got := fm.String(); !strings.Contains(got, "nested.sql") {
				t.Errorf("mount listing missing file: %q", got)
			}
		})
	}
}
