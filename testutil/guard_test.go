package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

type captureFatal struct{ msg string }

func (c *captureFatal) Fatalf(format string, args ...any) { c.msg = fmt.Sprintf(format, args...) }

func writeFile(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestPredicates(t *testing.T) {
	cases := []struct {
		pred func(string) bool
		in   string
		want bool
	}{
		{InternalImportForbidden, "origamicore/internal/core", true},
		{InternalImportForbidden, "origamicore/pkg/domain", false},
		{InfraImportForbidden, "origamicore/internal/infra/blob/s3", true},
		{InfraImportForbidden, "origamicore/internal/blob/core", false},
		{AnyOf(InfraImportForbidden, func(p string) bool { return p == "os/exec" }), "os/exec", true},
		{AnyOf(), "fmt", false},
	}
	for _, tc := range cases {
		if got := tc.pred(tc.in); got != tc.want {
			t.Fatalf("predicate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package tmp\n\nimport (\n\t\"fmt\"\n\t\"origamicore/internal/infra/blob/fs\"\n)\n\nvar _ = fmt.Sprint\nvar _ = fs.New\n")
	writeFile(t, dir, "a_test.go", "package tmp\n\nimport \"origamicore/internal/infra/blob/s3\"\n")
	writeFile(t, dir, "notes.txt", "import \"origamicore/internal/infra\"")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	viols, err := directImportViolations(dir, InfraImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || viols[0] != "origamicore/internal/infra/blob/fs (in a.go)" {
		t.Fatalf("unexpected violations: %v", viols)
	}

	AssertNoDirectImports(t, dir, func(string) bool { return false }, "none")

	var fatal captureFatal
	failIfViolations(&fatal, "layering", viols)
	if fatal.msg == "" {
		t.Fatalf("expected failure message")
	}
}

func TestDirectImportViolationsErrors(t *testing.T) {
	if _, err := directImportViolations(filepath.Join(t.TempDir(), "missing"), InternalImportForbidden); err == nil {
		t.Fatalf("expected error for missing dir")
	}
	dir := t.TempDir()
	writeFile(t, dir, "bad.go", "package tmp\nimport (")
	if _, err := directImportViolations(dir, InternalImportForbidden); err == nil {
		t.Fatalf("expected parse error")
	}
}
