package bands

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultTable(t *testing.T) {
	tbl := Default()
	if tbl.Len() != len(builtin) {
		t.Fatalf("Expected %d bands, got %d", len(builtin), tbl.Len())
	}

	fm, err := tbl.Lookup("fm")
	if err != nil {
		t.Fatalf("Lookup is expected to ignore case: %v", err)
	}
	if fm.Start != 88e6 || fm.End != 108e6 || fm.Mode != ModeWFM || fm.Spacing != 200e3 {
		t.Fatalf("Unexpected FM band: %+v", fm)
	}

	if _, err := tbl.Lookup("NOPE"); !errors.Is(err, ErrUnknownBand) {
		t.Fatalf("Expected ErrUnknownBand, got %v", err)
	}
}

func TestInfoInsideBand(t *testing.T) {
	info := Default().Info(100e6)
	for _, want := range []string{
		"Band: FM",
		"Range: 88.000-108.000 MHz",
		"Mode: WFM",
		"Spacing: 200.0 kHz",
		"Use: FM Broadcasting",
		"Nearby: ",
		"AIR-L (108.0-118.0MHz)",
	} {
		if !strings.Contains(info, want) {
			t.Errorf("Band info %q missing %q", info, want)
		}
	}
	if strings.Contains(info, "VHF-TV (") {
		t.Errorf("VHF-TV edges are more than 10 MHz away: %q", info)
	}
}

func TestInfoOutsideBands(t *testing.T) {
	info := Default().Info(300e6)
	if !strings.HasPrefix(info, "No band at 300.000 MHz | Nearest: ") {
		t.Fatalf("Unexpected info %q", info)
	}
	if got := strings.Count(info, "MHz)"); got != 3 {
		t.Fatalf("Expected three nearest bands, got %d in %q", got, info)
	}
}

func TestSelection(t *testing.T) {
	tbl := Default()
	list := tbl.Selection()
	if len(list) != tbl.Len() {
		t.Fatalf("Selection should list every band once: %d vs %d", len(list), tbl.Len())
	}
	if list[0].Name != "AM" {
		t.Fatalf("Selection should start with the broadcast bands, got %s", list[0].Name)
	}

	b, err := tbl.Select("1")
	if err != nil || b.Name != "AM" {
		t.Fatalf("Select(1) = %v, %v", b.Name, err)
	}
	b, err = tbl.Select(" ham2m ")
	if err != nil || b.Name != "HAM2M" {
		t.Fatalf("Select by name = %v, %v", b.Name, err)
	}
	if _, err := tbl.Select("999"); !errors.Is(err, ErrUnknownBand) {
		t.Fatalf("Expected ErrUnknownBand for out of range number, got %v", err)
	}
	if lines := tbl.SelectionLines(); !strings.HasPrefix(lines[0], " 1 AM") {
		t.Fatalf("Unexpected selection line %q", lines[0])
	}
}

func TestModeParsing(t *testing.T) {
	for _, s := range []string{"am", "WFM", "nfm", "DIGITAL", "apt"} {
		if _, err := ModeFromString(s); err != nil {
			t.Errorf("ModeFromString(%q): %v", s, err)
		}
	}
	if _, err := ModeFromString("SSTV"); err == nil {
		t.Errorf("Expected error for unknown mode")
	}
}

func TestLoadOverrides(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "bands_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	path := filepath.Join(tempDir, "bands.yaml")
	content := `bands:
  - name: LORA
    start: 868.0e6
    end: 868.6e6
    category: ISM & IoT
    mode: NFM
    spacing: 125e3
    description: LoRa gateways
  - name: FM
    start: 87.5e6
    end: 108e6
    mode: WFM
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write band file: %v", err)
	}

	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load band overrides: %v", err)
	}
	lora, err := tbl.Lookup("LORA")
	if err != nil || lora.Spacing != 125e3 || lora.Mode != ModeNFM {
		t.Fatalf("Override band not loaded: %+v (%v)", lora, err)
	}
	fm, _ := tbl.Lookup("FM")
	if fm.Start != 87.5e6 || fm.Category != "Broadcast" {
		t.Fatalf("Existing band not replaced in place: %+v", fm)
	}

	bad := filepath.Join(tempDir, "bad.yaml")
	os.WriteFile(bad, []byte("bands:\n  - name: X\n    start: 2e6\n    end: 1e6\n"), 0644)
	if _, err := Load(bad); err == nil {
		t.Fatalf("Expected error for band with start above end")
	}

	badMode := filepath.Join(tempDir, "mode.yaml")
	os.WriteFile(badMode, []byte("bands:\n  - name: X\n    start: 1e6\n    end: 2e6\n    mode: SSTV\n"), 0644)
	if _, err := Load(badMode); err == nil {
		t.Fatalf("Expected error for unknown mode")
	}
}
