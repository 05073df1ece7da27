package debug

import (
	"log/slog"
	"testing"
)

func TestParseCategories(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]bool
	}{
		{"empty", "", map[string]bool{}},
		{"single", "auth", map[string]bool{"auth": true}},
		{"multiple", "auth,storage", map[string]bool{"auth": true, "storage": true}},
		{"all", "all", map[string]bool{"all": true}},
		{"with spaces", " auth , storage ", map[string]bool{"auth": true, "storage": true}},
		{"uppercase normalized", "AUTH,Storage", map[string]bool{"auth": true, "storage": true}},
		{"empty segments", "auth,,storage", map[string]bool{"auth": true, "storage": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCategories(tt.input)
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("got[%q] = %v, want %v", k, got[k], v)
				}
			}
			if len(got) != len(tt.want) {
				t.Errorf("len(got) = %d, want %d", len(got), len(tt.want))
			}
		})
	}
}

func TestEnabled(t *testing.T) {
	orig := categories
	defer func() { categories = orig }()

	categories = parseCategories("auth,config")

	if !Enabled(CategoryAuth) {
		t.Error("auth should be enabled")
	}
	if !Enabled(CategoryConfig) {
		t.Error("config should be enabled")
	}
	if Enabled(CategoryStorage) {
		t.Error("storage should not be enabled")
	}

	categories = parseCategories("all")
	if !Enabled(CategoryTransport) {
		t.Error("all should enable every category")
	}
}

func TestCategoriesSorted(t *testing.T) {
	orig := categories
	defer func() { categories = orig }()

	categories = parseCategories("storage,auth,config")
	got := Categories()
	want := []string{"auth", "config", "storage"}
	if len(got) != len(want) {
		t.Fatalf("Categories() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Categories()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"TRACE", LevelTrace},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestRedact(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"abc", "***"},
		{"sk-secret-key", "sk-s..."},
	}
	for _, tt := range tests {
		if got := Redact(tt.in); got != tt.want {
			t.Errorf("Redact(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
