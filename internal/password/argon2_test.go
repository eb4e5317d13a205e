package password

import (
	"strings"
	"testing"
)

func testHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := New(Params{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h
}

func TestHashVerifyRoundTrip(t *testing.T) {
	h := testHasher(t)

	encoded, err := h.Hash("Passw0rd!")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("unexpected hash format: %s", encoded)
	}

	ok, err := h.Verify("Passw0rd!", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("expected correct password to verify")
	}

	ok, err = h.Verify("wrong-password", encoded)
	if err != nil {
		t.Fatalf("Verify wrong: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password to fail")
	}
}

func TestHashUsesFreshSalt(t *testing.T) {
	h := testHasher(t)

	first, err := h.Hash("Passw0rd!")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	second, err := h.Hash("Passw0rd!")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestHashRejectsShortPassword(t *testing.T) {
	h := testHasher(t)

	if _, err := h.Hash("short"); err != ErrPasswordTooShort {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	h := testHasher(t)

	cases := []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=8192,t=1,p=1$short",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5",
	}
	for _, encoded := range cases {
		if _, err := h.Verify("whatever-pass", encoded); err == nil {
			t.Errorf("expected error for hash %q", encoded)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	weak := testHasher(t)

	encoded, err := weak.Hash("Passw0rd!")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	same, err := weak.NeedsRehash(encoded)
	if err != nil {
		t.Fatalf("NeedsRehash: %v", err)
	}
	if same {
		t.Fatal("hash from identical params should not need rehash")
	}

	strong, err := New(Params{
		Memory:      16 * 1024,
		Time:        2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	upgrade, err := strong.NeedsRehash(encoded)
	if err != nil {
		t.Fatalf("NeedsRehash: %v", err)
	}
	if !upgrade {
		t.Fatal("hash from weaker params should need rehash")
	}
}

func TestNewValidatesParams(t *testing.T) {
	bad := []Params{
		{Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16},
		{Memory: 8192, Time: 0, Parallelism: 1, SaltLength: 16, KeyLength: 16},
		{Memory: 8192, Time: 1, Parallelism: 0, SaltLength: 16, KeyLength: 16},
		{Memory: 8192, Time: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16},
		{Memory: 8192, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 8},
	}
	for i, p := range bad {
		if _, err := New(p); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
