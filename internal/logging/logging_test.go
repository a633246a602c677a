package logging

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "defaults", opts: Options{}},
		{name: "json debug", opts: Options{Level: "DEBUG", Format: "json"}},
		{name: "verbose overrides level", opts: Options{Level: "error", Verbose: true}},
		{name: "bad level", opts: Options{Level: "loud"}, wantErr: true},
		{name: "bad format", opts: Options{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && logger == nil {
				t.Fatal("expected logger")
			}
		})
	}
}

func TestVerboseEnablesDebug(t *testing.T) {
	logger, err := New(Options{Verbose: true})
	if err != nil {
		t.Fatal(err)
	}
	if !logger.Desugar().Core().Enabled(-1) {
		t.Error("expected debug level to be enabled")
	}
}

func TestWith(t *testing.T) {
	child := Nop().With("run_id", "abc")
	if child == nil || child.SugaredLogger == nil {
		t.Fatal("expected child logger")
	}
	child.Infow("ok")
}
