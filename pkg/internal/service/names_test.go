package service_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yeisme/certvault/pkg/internal/render"
	"github.com/yeisme/certvault/pkg/internal/service"
)

func TestParseNames(t *testing.T) {
	in := "# peserta\nAhmad Fauzi\n\n  Siti Nurhaliza  \n#skip\nAhmad Fauzi\n"

	got, err := service.ParseNames(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseNames: %v", err)
	}

	want := []string{"Ahmad Fauzi", "Siti Nurhaliza", "Ahmad Fauzi"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveNamesPrecedence(t *testing.T) {
	file := filepath.Join(t.TempDir(), "names.txt")
	if err := os.WriteFile(file, []byte("Dari File\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	configured := []string{"Dari Config"}

	cases := []struct {
		name string
		args []string
		file string
		want []string
	}{
		{"args win", []string{"Dari Args"}, file, []string{"Dari Args"}},
		{"file over config", nil, file, []string{"Dari File"}},
		{"config fallback", nil, "", configured},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := service.ResolveNames(c.args, c.file, configured)
			if err != nil {
				t.Fatalf("ResolveNames: %v", err)
			}

			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Fatalf("names mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := service.ResolveNames(nil, filepath.Join(t.TempDir(), "missing.txt"), nil); err == nil {
		t.Fatal("expected error for missing names file")
	}
}

func TestParseNamesRejectsUnstampable(t *testing.T) {
	cases := []struct {
		name, in, line string
	}{
		{"page placeholder", "Ahmad Fauzi\nRate 100%p done\n", "line 2"},
		{"escaped newline", "# header\n\nA\\nB\n", "line 3"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := service.ParseNames(strings.NewReader(c.in))
			if !errors.Is(err, render.ErrUnsupportedName) {
				t.Fatalf("expected ErrUnsupportedName, got %v", err)
			}

			if !strings.Contains(err.Error(), c.line) {
				t.Fatalf("error %q should mention %s", err, c.line)
			}
		})
	}
}

func TestResolveNamesRejectsUnstampable(t *testing.T) {
	if _, err := service.ResolveNames([]string{"Siti", "Total %P"}, "", nil); !errors.Is(err, render.ErrUnsupportedName) {
		t.Fatalf("args: expected ErrUnsupportedName, got %v", err)
	}

	if _, err := service.ResolveNames(nil, "", []string{`A\nB`}); !errors.Is(err, render.ErrUnsupportedName) {
		t.Fatalf("configured: expected ErrUnsupportedName, got %v", err)
	}
}
