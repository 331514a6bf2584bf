package credential

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validKey = "0123456789abcdef0123456789abcdef"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid", validKey, false},
		{"empty", "", true},
		{"too short", "abc123", true},
		{"too long", validKey + "0", true},
		{"upper case", strings.ToUpper(validKey), true},
		{"non hex", "0123456789abcdef0123456789abcdeg", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("Validate() error = %v, want ErrInvalidFormat", err)
			}
		})
	}
}

// TestValidate_DoesNotLeakKey verifies error messages mask the rejected key.
func TestValidate_DoesNotLeakKey(t *testing.T) {
	bad := "0123456789abcdef0123456789abcdeZ"
	err := Validate(bad)
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	if strings.Contains(err.Error(), bad[:10]) {
		t.Errorf("error %q leaks key prefix", err)
	}
}

// TestResolve_Precedence verifies inline > env > file.
func TestResolve_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "key.txt")
	fileKey := strings.Repeat("a", 32)
	envKey := strings.Repeat("b", 32)
	inlineKey := strings.Repeat("c", 32)
	if err := os.WriteFile(path, []byte(fileKey+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvVar, "")
	key, src, err := Resolve("", path)
	if err != nil || key != fileKey || src != SourceFile {
		t.Errorf("file: Resolve() = %q, %q, %v", key, src, err)
	}

	t.Setenv(EnvVar, envKey)
	key, src, err = Resolve("", path)
	if err != nil || key != envKey || src != SourceEnv {
		t.Errorf("env: Resolve() = %q, %q, %v", key, src, err)
	}

	key, src, err = Resolve(inlineKey, path)
	if err != nil || key != inlineKey || src != SourceFlag {
		t.Errorf("flag: Resolve() = %q, %q, %v", key, src, err)
	}
}

func TestResolve_Missing(t *testing.T) {
	t.Setenv(EnvVar, "")
	_, _, err := Resolve("", filepath.Join(t.TempDir(), "absent.txt"))
	if !errors.Is(err, ErrMissing) {
		t.Errorf("Resolve() error = %v, want ErrMissing", err)
	}
}

func TestResolve_InvalidInline(t *testing.T) {
	t.Setenv(EnvVar, "")
	_, _, err := Resolve("not-a-key", "")
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Resolve() error = %v, want ErrInvalidFormat", err)
	}
}

// TestStore_WritesOwnerOnlyFile verifies the stored key round-trips and the
// file is not readable by others.
func TestStore_WritesOwnerOnlyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "key.txt")
	if err := Store(path, " "+validKey+"\n"); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != validKey {
		t.Errorf("Load() = %q, want %q", got, validKey)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := fi.Mode().Perm(); perm&0o077 != 0 {
		t.Errorf("key file mode = %v, want no group/other access", perm)
	}
}

func TestStore_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.txt")
	if err := Store(path, "short"); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("Store() error = %v, want ErrInvalidFormat", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Store() wrote a file for an invalid key")
	}
}

func TestPrompt_NonTerminal(t *testing.T) {
	var out strings.Builder
	got, err := Prompt(strings.NewReader(validKey+"\n"), &out, "key: ")
	if err != nil {
		t.Fatalf("Prompt() error = %v", err)
	}
	if got != validKey {
		t.Errorf("Prompt() = %q, want %q", got, validKey)
	}
	if out.String() != "key: " {
		t.Errorf("prompt output = %q", out.String())
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := ExpandHome("~/.weather.apikey.txt")
	if err != nil {
		t.Fatalf("ExpandHome() error = %v", err)
	}
	if want := filepath.Join(home, ".weather.apikey.txt"); got != want {
		t.Errorf("ExpandHome() = %q, want %q", got, want)
	}
	if got, _ := ExpandHome("/tmp/x"); got != "/tmp/x" {
		t.Errorf("ExpandHome(abs) = %q", got)
	}
}
