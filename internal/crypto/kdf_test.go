package crypto

import "testing"

func TestDeriveKEKDeterministic(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	params := DefaultParams
	params.Salt = salt

	a, err := DeriveKEK("hunter2", params)
	if err != nil {
		t.Fatalf("DeriveKEK: %v", err)
	}
	b, err := DeriveKEK("hunter2", params)
	if err != nil {
		t.Fatalf("DeriveKEK: %v", err)
	}
	if a != b {
		t.Fatal("same password and params must derive the same KEK")
	}
}

func TestDeriveKEKDifferentPasswords(t *testing.T) {
	salt, _ := NewSalt()
	params := DefaultParams
	params.Salt = salt

	a, _ := DeriveKEK("correct horse", params)
	b, _ := DeriveKEK("battery staple", params)
	if a == b {
		t.Fatal("different passwords must derive different KEKs")
	}
}

func TestDeriveKEKRequiresSalt(t *testing.T) {
	params := DefaultParams
	params.Salt = nil

	if _, err := DeriveKEK("pw", params); err == nil {
		t.Fatal("expected error for empty salt")
	}
}

func TestPasswordRotationPreservesDataKey(t *testing.T) {
	// Mirrors §8 invariant 9: rotating the password re-seals the same data
	// key, so objects encrypted under it stay readable.
	dataKey, err := NewRandomKey()
	if err != nil {
		t.Fatalf("NewRandomKey: %v", err)
	}

	saltA, _ := NewSalt()
	paramsA := DefaultParams
	paramsA.Salt = saltA
	kekA, _ := DeriveKEK("old-password", paramsA)
	sealedA, err := kekA.Encrypt(dataKey[:])
	if err != nil {
		t.Fatalf("seal under old KEK: %v", err)
	}

	saltB, _ := NewSalt()
	paramsB := DefaultParams
	paramsB.Salt = saltB
	kekB, _ := DeriveKEK("new-password", paramsB)
	sealedB, err := kekB.Encrypt(dataKey[:])
	if err != nil {
		t.Fatalf("seal under new KEK: %v", err)
	}

	unsealedA, err := kekA.Decrypt(sealedA)
	if err != nil {
		t.Fatalf("unseal under old KEK: %v", err)
	}
	unsealedB, err := kekB.Decrypt(sealedB)
	if err != nil {
		t.Fatalf("unseal under new KEK: %v", err)
	}

	if string(unsealedA) != string(unsealedB) {
		t.Fatal("both keyfiles must unseal to the same data key")
	}
}
