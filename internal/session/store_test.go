package session

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ruphautomations/ruphctl/internal/domain"
)

func testSession() *domain.Session {
	return &domain.Session{
		UserID:       1,
		Name:         "A",
		Email:        "a@b.com",
		AccessToken:  "T1",
		RefreshToken: "R1",
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "session.json"))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	want := testSession()
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *got != *want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestLoadAbsentReturnsErrNoSession(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestLoadCorruptReturnsErrNoSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	for name, content := range map[string]string{
		"garbage":    "{not json",
		"empty":      "",
		"wrong_type": `"just a string"`,
	} {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if _, err := NewStore(path).Load(); !errors.Is(err, ErrNoSession) {
			t.Fatalf("%s: expected ErrNoSession, got %v", name, err)
		}
	}
}

func TestLoadPartialRecordIsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	// email present but no tokens: must read as absent per the
	// all-or-nothing invariant.
	if err := os.WriteFile(path, []byte(`{"email":"a@b.com"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewStore(path).Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession for partial record, got %v", err)
	}
}

func TestSaveRejectsIncompleteSession(t *testing.T) {
	store := newTestStore(t)
	sess := testSession()
	sess.RefreshToken = ""
	if err := store.Save(sess); err == nil {
		t.Fatal("expected error saving incomplete session")
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatal("rejected save must not leave a record behind")
	}
}

func TestUpdateTokensReplacesExactlyThePair(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save(testSession()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.UpdateTokens(TokenPair{AccessToken: "T2", RefreshToken: "R2"}); err != nil {
		t.Fatalf("update tokens: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.AccessToken != "T2" || got.RefreshToken != "R2" {
		t.Fatalf("tokens not rotated: %+v", got)
	}
	if got.Email != "a@b.com" || got.Name != "A" || got.UserID != 1 {
		t.Fatalf("identity fields must survive rotation: %+v", got)
	}
}

func TestUpdateTokensWithoutSession(t *testing.T) {
	store := newTestStore(t)
	err := store.UpdateTokens(TokenPair{AccessToken: "T2", RefreshToken: "R2"})
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestUpdateTokensRejectsHalfPair(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save(testSession()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.UpdateTokens(TokenPair{AccessToken: "T2"}); err == nil {
		t.Fatal("expected error for half a token pair")
	}
	got, _ := store.Load()
	if got.AccessToken != "T1" || got.RefreshToken != "R1" {
		t.Fatalf("rejected update must not touch stored tokens: %+v", got)
	}
}

func TestClearThenLoad(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save(testSession()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after clear, got %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clearing an absent session must be a no-op: %v", err)
	}
}

func TestSaveFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	store := newTestStore(t)
	if err := store.Save(testSession()); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(store.path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("session file mode=%o want 600", perm)
	}
}

func FuzzLoadRobustness(f *testing.F) {
	f.Add([]byte(`{"id":1,"name":"A","email":"a@b.com","accessToken":"T","refreshToken":"R"}`))
	f.Add([]byte(`{"email":"a@b.com"}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`[]`))
	f.Add([]byte(`{"id":"not-a-number"}`))

	f.Fuzz(func(t *testing.T, content []byte) {
		path := filepath.Join(t.TempDir(), "session.json")
		if err := os.WriteFile(path, content, 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		sess, err := NewStore(path).Load()
		if err != nil && !errors.Is(err, ErrNoSession) {
			t.Fatalf("load must only fail with ErrNoSession, got %v", err)
		}
		if err == nil && !sess.Complete() {
			t.Fatalf("load returned an incomplete session: %+v", sess)
		}
	})
}
