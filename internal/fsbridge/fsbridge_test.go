package fsbridge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dirtabase/dirtabase/internal/archdb"
	"github.com/dirtabase/dirtabase/internal/archive"
	"github.com/dirtabase/dirtabase/internal/digest"
)

// buildFixture lays out the canonical two-level fixture tree used across
// the scan/read/import test scenarios:
//
//	dir1/dir2/nested.txt
//	file_at_root.txt
func buildFixture(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, "dir1", "dir2"), 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(filepath.Join(base, "dir1", "dir2", "nested.txt"),
		[]byte("A file nested under multiple directories\n"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(filepath.Join(base, "file_at_root.txt"),
		[]byte("Here are some file contents, teehee!\n"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return base
}

func TestScanOrderAndShape(t *testing.T) {
	base := buildFixture(t)
	a, err := Scan(base)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	wantPaths := []string{"dir1/dir2/nested.txt", "file_at_root.txt", "dir1", "dir1/dir2"}
	gotPaths := a.Paths()
	if len(gotPaths) != len(wantPaths) {
		t.Fatalf("Paths len = %d, want %d: %v", len(gotPaths), len(wantPaths), gotPaths)
	}
	for i, want := range wantPaths {
		if gotPaths[i].String() != want {
			t.Errorf("Paths[%d] = %q, want %q", i, gotPaths[i], want)
		}
	}
	if a.NumFiles() != 2 || a.NumDirs() != 2 {
		t.Errorf("counts: files=%d dirs=%d, want 2, 2", a.NumFiles(), a.NumDirs())
	}
	for _, at := range a.AttrsAt() {
		if _, ok := at.Get(unixModeAttr); !ok {
			t.Errorf("missing UNIX_MODE attr on entry")
		}
	}
}

func TestScanRejectsSymlink(t *testing.T) {
	base := t.TempDir()
	if err := os.WriteFile(filepath.Join(base, "real.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.Symlink(filepath.Join(base, "real.txt"), filepath.Join(base, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported on this platform: %v", err)
	}
	if _, err := Scan(base); err == nil {
		t.Error("expected Scan to reject a symlink entry")
	}
}

func TestReadMatchesScanThenReadThenImport(t *testing.T) {
	base := buildFixture(t)
	db, err := archdb.OpenTemp()
	if err != nil {
		t.Fatalf("OpenTemp: %v", err)
	}
	defer db.Close()

	scanned, err := Scan(base)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	direct, err := ImportFiles(db, scanned)
	if err != nil {
		t.Fatalf("ImportFiles(direct): %v", err)
	}

	scanned2, err := Scan(base)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	read, err := Read(scanned2)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	viaRead, err := ImportFiles(db, read)
	if err != nil {
		t.Fatalf("ImportFiles(viaRead): %v", err)
	}

	if len(direct.ContentsAt()) != len(viaRead.ContentsAt()) {
		t.Fatalf("content length mismatch")
	}
	for i := range direct.ContentsAt() {
		if direct.ContentsAt()[i] != viaRead.ContentsAt()[i] {
			t.Errorf("digest[%d] mismatch: %v vs %v", i, direct.ContentsAt()[i], viaRead.ContentsAt()[i])
		}
	}
}

func TestImportWriteRoundTrip(t *testing.T) {
	base := buildFixture(t)
	db, err := archdb.OpenTemp()
	if err != nil {
		t.Fatalf("OpenTemp: %v", err)
	}
	defer db.Close()

	scanned, err := Scan(base)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	imported, err := ImportFiles(db, scanned)
	if err != nil {
		t.Fatalf("ImportFiles: %v", err)
	}
	if _, err := archive.Save(db, imported); err != nil {
		t.Fatalf("Save: %v", err)
	}

	dest := t.TempDir()
	if err := Write(db, imported, dest); err != nil {
		t.Fatalf("Write: %v", err)
	}
	nested, err := os.ReadFile(filepath.Join(dest, "dir1", "dir2", "nested.txt"))
	if err != nil {
		t.Fatalf("read back nested.txt: %v", err)
	}
	if string(nested) != "A file nested under multiple directories\n" {
		t.Errorf("round-tripped content mismatch: %q", nested)
	}
	if info, err := os.Stat(filepath.Join(dest, "dir1", "dir2")); err != nil || !info.IsDir() {
		t.Errorf("expected dir1/dir2 to exist as a directory")
	}
}

func TestImportFilesEmptyFile(t *testing.T) {
	base := t.TempDir()
	if err := os.WriteFile(filepath.Join(base, "empty.txt"), nil, 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	db, err := archdb.OpenTemp()
	if err != nil {
		t.Fatalf("OpenTemp: %v", err)
	}
	defer db.Close()

	scanned, err := Scan(base)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	imported, err := ImportFiles(db, scanned)
	if err != nil {
		t.Fatalf("ImportFiles: %v", err)
	}
	if imported.ContentsAt()[0] != digest.SumString("") {
		t.Errorf("empty file digest = %v, want digest of empty string", imported.ContentsAt()[0])
	}
}

func TestImportSavesArkAndReturnsStableDigest(t *testing.T) {
	base := buildFixture(t)
	db, err := archdb.OpenTemp()
	if err != nil {
		t.Fatalf("OpenTemp: %v", err)
	}
	defer db.Close()

	scanned, err := Scan(base)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	d1, err := Import(db, scanned)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	loaded, err := archive.Load(db, d1)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.NumFiles() != 2 {
		t.Errorf("loaded NumFiles = %d, want 2", loaded.NumFiles())
	}

	scanned2, err := Scan(base)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	d2, err := Import(db, scanned2)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if d1 != d2 {
		t.Errorf("re-importing identical fixture produced different digests: %v vs %v", d1, d2)
	}
}

func TestImportFilesSharesCASAcrossIdenticalContent(t *testing.T) {
	base := t.TempDir()
	if err := os.WriteFile(filepath.Join(base, "a.txt"), []byte("same"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(filepath.Join(base, "b.txt"), []byte("same"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	db, err := archdb.OpenTemp()
	if err != nil {
		t.Fatalf("OpenTemp: %v", err)
	}
	defer db.Close()

	scanned, err := Scan(base)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	imported, err := ImportFiles(db, scanned)
	if err != nil {
		t.Fatalf("ImportFiles: %v", err)
	}
	if imported.ContentsAt()[0] != imported.ContentsAt()[1] {
		t.Errorf("identical content should share a digest: %v vs %v", imported.ContentsAt()[0], imported.ContentsAt()[1])
	}
	if _, err := os.Stat(db.CASPath(imported.ContentsAt()[0])); err != nil {
		t.Errorf("expected CAS object to exist: %v", err)
	}
}
