package hexfile

import (
	"strings"
	"testing"
)

func TestLoadWritesDataRecordsAndStopsAtEOF(t *testing.T) {
	src := ":0400000001020304F2\n:00000001FF\n"
	flash := make([]byte, 16)

	high, err := Load(strings.NewReader(src), flash)
	if err != nil {
		t.Fatalf("Load returned %v", err)
	}
	if high != 4 {
		t.Fatalf("high water mark = %d, want 4", high)
	}
	want := []byte{0x01, 0x02, 0x03, 0x04}
	if got := flash[0:4]; string(got) != string(want) {
		t.Fatalf("flash[0:4] = %v, want %v", got, want)
	}
}

func TestLoadHonorsExtendedLinearAddressRecords(t *testing.T) {
	src := ":020000040001F9\n:02000000AABB99\n:00000001FF\n"
	flash := make([]byte, 0x10010)

	high, err := Load(strings.NewReader(src), flash)
	if err != nil {
		t.Fatalf("Load returned %v", err)
	}
	if high != 0x10002 {
		t.Fatalf("high water mark = %#x, want 0x10002", high)
	}
	if flash[0x10000] != 0xAA || flash[0x10001] != 0xBB {
		t.Fatalf("flash[0x10000:2] = %#x %#x, want 0xAA 0xBB", flash[0x10000], flash[0x10001])
	}
}

func TestLoadRejectsBadChecksum(t *testing.T) {
	src := ":0400000001020304FF\n" // correct checksum is 0xF2, not 0xFF
	flash := make([]byte, 16)

	if _, err := Load(strings.NewReader(src), flash); err == nil {
		t.Fatal("Load should reject a record with an invalid checksum")
	}
}

func TestLoadRejectsMissingColonMarker(t *testing.T) {
	src := "0400000001020304F2\n"
	flash := make([]byte, 16)

	if _, err := Load(strings.NewReader(src), flash); err == nil {
		t.Fatal("Load should reject a line that doesn't start with ':'")
	}
}

func TestLoadRejectsRecordOverflowingFlash(t *testing.T) {
	src := ":0400000001020304F2\n"
	flash := make([]byte, 2) // too small for a 4-byte record at address 0

	if _, err := Load(strings.NewReader(src), flash); err == nil {
		t.Fatal("Load should reject a record that overflows the flash buffer")
	}
}
