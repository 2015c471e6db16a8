package main

import (
	"context"
	"testing"
)

// fakeApplicator records the command dispatched by the CLI.
type fakeApplicator struct {
	called  string
	cfgPath string
	aow     string
	search  string
}

func (f *fakeApplicator) Serve(ctx context.Context, cfgPath string) error {
	f.called, f.cfgPath = "serve", cfgPath
	return nil
}

func (f *fakeApplicator) InitDB(ctx context.Context, cfgPath string) error {
	f.called, f.cfgPath = "init-db", cfgPath
	return nil
}

func (f *fakeApplicator) ImportEnquiries(ctx context.Context, cfgPath, areaOfWork, search string) error {
	f.called, f.cfgPath = "import-enquiries", cfgPath
	f.aow, f.search = areaOfWork, search
	return nil
}

func (f *fakeApplicator) Wipe(ctx context.Context, cfgPath string) error {
	f.called, f.cfgPath = "wipe", cfgPath
	return nil
}

func TestCLIDispatch(t *testing.T) {

	tests := []struct {
		name    string
		args    []string
		called  string
		cfgPath string
		aow     string
		search  string
	}{
		{
			name:    "serve default config",
			args:    []string{"hlxportal", "serve"},
			called:  "serve",
			cfgPath: "config.yaml",
		},
		{
			name:    "serve custom config",
			args:    []string{"hlxportal", "serve", "--config", "custom.yaml"},
			called:  "serve",
			cfgPath: "custom.yaml",
		},
		{
			name:    "init-db",
			args:    []string{"hlxportal", "init-db", "-c", "custom.yaml"},
			called:  "init-db",
			cfgPath: "custom.yaml",
		},
		{
			name:    "import with flags",
			args:    []string{"hlxportal", "import-enquiries", "--aow", "wills", "--search", "bloggs"},
			called:  "import-enquiries",
			cfgPath: "config.yaml",
			aow:     "wills",
			search:  "bloggs",
		},
		{
			name:    "wipe",
			args:    []string{"hlxportal", "wipe"},
			called:  "wipe",
			cfgPath: "config.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeApplicator{}
			cmd := BuildCLI(fake)
			if err := cmd.Run(context.Background(), tt.args); err != nil {
				t.Fatal(err)
			}
			if got, want := fake.called, tt.called; got != want {
				t.Errorf("got command %q want %q", got, want)
			}
			if got, want := fake.cfgPath, tt.cfgPath; got != want {
				t.Errorf("got config path %q want %q", got, want)
			}
			if got, want := fake.aow, tt.aow; got != want {
				t.Errorf("got aow %q want %q", got, want)
			}
			if got, want := fake.search, tt.search; got != want {
				t.Errorf("got search %q want %q", got, want)
			}
		})
	}
}

func TestCLIImportRequiresAow(t *testing.T) {
	fake := &fakeApplicator{}
	cmd := BuildCLI(fake)
	err := cmd.Run(context.Background(), []string{"hlxportal", "import-enquiries"})
	if err == nil {
		t.Fatal("expected an error for a missing --aow flag")
	}
	if fake.called != "" {
		t.Errorf("no command should run, got %q", fake.called)
	}
}
