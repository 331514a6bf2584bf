package credential

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/natefinch/atomic"
	"golang.org/x/term"
)

// EnvVar is consulted when no key is given on the command line.
const EnvVar = "WEATHER_API_KEY"

// DefaultFile is the default location of the stored key.
const DefaultFile = "~/.weather.apikey.txt"

// ErrMissing is returned when no key is found in any source.
var ErrMissing = errors.New("no API key configured; run 'weather storeapi' or pass --api-key")

// ErrInvalidFormat is returned for keys that are not 32 lowercase hex characters.
var ErrInvalidFormat = errors.New("API key must be a 32-character hexadecimal string")

var keyPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// Source names where a resolved key came from. Used in logs; the key itself is never logged.
type Source string

const (
	SourceFlag Source = "flag"
	SourceEnv  Source = "env"
	SourceFile Source = "file"
)

// Validate checks the key format.
func Validate(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %s", ErrInvalidFormat, mask(key))
	}
	return nil
}

// Resolve picks the key from, in order, the inline value, the WEATHER_API_KEY
// environment variable and the key file at path. The chosen key must be valid.
func Resolve(inline, path string) (string, Source, error) {
	key, src := strings.TrimSpace(inline), SourceFlag
	if key == "" {
		key, src = strings.TrimSpace(os.Getenv(EnvVar)), SourceEnv
	}
	if key == "" {
		k, err := Load(path)
		if err != nil {
			return "", "", err
		}
		key, src = k, SourceFile
	}
	if key == "" {
		return "", "", ErrMissing
	}
	if err := Validate(key); err != nil {
		return "", "", fmt.Errorf("%s key: %w", src, err)
	}
	return key, src, nil
}

// Load reads the key file. A missing file yields an empty key and no error.
func Load(path string) (string, error) {
	path, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read API key file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Store validates key and writes it to path, readable only by the owner.
func Store(path, key string) error {
	key = strings.TrimSpace(key)
	if err := Validate(key); err != nil {
		return err
	}
	path, err := ExpandHome(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("API key dir: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader([]byte(key))); err != nil {
		return fmt.Errorf("write API key file: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("chmod API key file: %w", err)
	}
	return nil
}

// Prompt asks for the key on out and reads it from in. Echo is disabled when in
// is a terminal.
func Prompt(in io.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read API key: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read API key: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// mask keeps only the last four characters of a key for error messages.
func mask(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
