package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Sound != defaultSound {
		t.Fatalf("Sound = %q, want %q", p.Sound, defaultSound)
	}
	if p.Volume != defaultVolume {
		t.Fatalf("Volume = %d, want %d", p.Volume, defaultVolume)
	}
	if !p.Loop {
		t.Fatal("Loop should default to true")
	}
}

func TestLoad_ReadsExistingFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	prefsDir := filepath.Join(home, ".config", "lull")
	if err := os.MkdirAll(prefsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	prefsFile := filepath.Join(prefsDir, "prefs.toml")
	content := "sound = \"ocean\"\nvolume = 80\nloop = false\n"
	if err := os.WriteFile(prefsFile, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Sound != "ocean" {
		t.Fatalf("Sound = %q, want %q", p.Sound, "ocean")
	}
	if p.Volume != 80 {
		t.Fatalf("Volume = %d, want 80", p.Volume)
	}
	if p.Loop {
		t.Fatal("Loop = true, want false")
	}
}

func TestLoad_ClampsVolume(t *testing.T) {
	tmp := t.TempDir()
	prefsFile := filepath.Join(tmp, "prefs.toml")
	if err := os.WriteFile(prefsFile, []byte("sound = \"rain\"\nvolume = 400\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load(prefsFile)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Volume != 100 {
		t.Fatalf("Volume = %d, want clamped 100", p.Volume)
	}
}

func TestLoad_CorruptFileUsesDefaults(t *testing.T) {
	tmp := t.TempDir()
	prefsFile := filepath.Join(tmp, "prefs.toml")
	if err := os.WriteFile(prefsFile, []byte("{not toml"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load(prefsFile)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Sound != defaultSound {
		t.Fatalf("Sound = %q, want default %q", p.Sound, defaultSound)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	prefsFile := filepath.Join(tmp, "nested", "prefs.toml")

	in := Prefs{Sound: "thunder", Volume: 33, Loop: true}
	in.EQ[0] = -6
	in.EQ[9] = 4.5

	if err := Save(prefsFile, in); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	out, err := Load(prefsFile)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if out != in {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", out, in)
	}
}
