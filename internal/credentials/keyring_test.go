package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestKeychainSetGetDelete(t *testing.T) {
	keyring.MockInit()
	k := NewKeyringStore("survival-arcade-test", filepath.Join(t.TempDir(), "secrets.json"))

	if _, err := k.Get(SecretGeneratorKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := k.Set(SecretGeneratorKey, "key-123"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := k.Get(SecretGeneratorKey)
	if err != nil || got != "key-123" {
		t.Fatalf("Get: %q %v", got, err)
	}
	if err := k.Delete(SecretGeneratorKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := k.Get(SecretGeneratorKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := k.Set(" ", "x"); err == nil {
		t.Error("empty name should be rejected")
	}
}

func TestFallbackWhenKeychainUnavailable(t *testing.T) {
	keyring.MockInitWithError(errors.New("dbus: connection refused"))
	defer keyring.MockInit()

	path := filepath.Join(t.TempDir(), "nested", "secrets.json")
	k := NewKeyringStore("", path)
	if err := k.Set(SecretGeneratorKey, "fallback-key"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v", info.Mode().Perm())
	}
	got, err := k.Get(SecretGeneratorKey)
	if err != nil || got != "fallback-key" {
		t.Fatalf("Get: %q %v", got, err)
	}
	if err := k.Delete(SecretGeneratorKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := k.Get(SecretGeneratorKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFallbackRequiresPath(t *testing.T) {
	keyring.MockInitWithError(errors.New("secret service not running"))
	defer keyring.MockInit()

	k := NewKeyringStore("svc", "")
	if err := k.Set(SecretGeneratorKey, "x"); err == nil {
		t.Error("expected error without fallback path")
	}
	if _, err := k.Get(SecretGeneratorKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResolvePrefersOverride(t *testing.T) {
	keyring.MockInit()
	k := NewKeyringStore("svc", filepath.Join(t.TempDir(), "secrets.json"))
	if got := k.Resolve(SecretGeneratorKey, ""); got != "" {
		t.Errorf("got %q", got)
	}
	if err := k.Set(SecretGeneratorKey, "stored"); err != nil {
		t.Fatal(err)
	}
	if got := k.Resolve(SecretGeneratorKey, ""); got != "stored" {
		t.Errorf("got %q", got)
	}
	if got := k.Resolve(SecretGeneratorKey, " env "); got != "env" {
		t.Errorf("got %q", got)
	}
}

func TestCorruptFallbackFile(t *testing.T) {
	keyring.MockInitWithError(errors.New("dbus: no session"))
	defer keyring.MockInit()

	path := filepath.Join(t.TempDir(), "secrets.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	k := NewKeyringStore("svc", path)
	if _, err := k.Get(SecretGeneratorKey); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected decode error, got %v", err)
	}
}
