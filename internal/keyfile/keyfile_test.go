package keyfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

// Cheap parameters keep the tests fast.
var testParams = Params{Time: 1, Memory: 8 << 10, Threads: 1}

func TestSealOpen(t *testing.T) {
	pt := []byte("Key: 0110100111\n")
	sealed, err := Seal([]byte("correct horse"), pt, testParams)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Contains(sealed, pt) {
		t.Errorf("sealed blob contains the plaintext")
	}
	got, err := Open([]byte("correct horse"), sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, pt) {
		t.Errorf("Open() = %q, want %q", got, pt)
	}
}

func TestSealIsRandomized(t *testing.T) {
	a, err := Seal([]byte("pw"), []byte("same"), testParams)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	b, err := Seal([]byte("pw"), []byte("same"), testParams)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Errorf("two seals of the same plaintext are identical")
	}
}

func TestOpenFailures(t *testing.T) {
	sealed, err := Seal([]byte("pw"), []byte("secret"), testParams)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := Open([]byte("not pw"), sealed); !errors.Is(err, ErrWrongPassphrase) {
		t.Errorf("Open with wrong passphrase = %v, want ErrWrongPassphrase", err)
	}

	var b blob
	if err := json.Unmarshal(sealed, &b); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	b.Cipher[0] ^= 1
	tampered, _ := json.Marshal(b)
	if _, err := Open([]byte("pw"), tampered); !errors.Is(err, ErrWrongPassphrase) {
		t.Errorf("Open of tampered blob = %v, want ErrWrongPassphrase", err)
	}

	b.Cipher[0] ^= 1
	b.V = formatVersion + 1
	future, _ := json.Marshal(b)
	if _, err := Open([]byte("pw"), future); err == nil {
		t.Errorf("Open of a future version succeeded")
	}

	b.V = formatVersion
	for _, tc := range []struct {
		desc string
		kdf  Params
	}{
		{"zero threads", Params{Time: 1, Memory: 8, Threads: 0}},
		{"zero time", Params{Time: 0, Memory: 8 << 10, Threads: 1}},
		{"huge time", Params{Time: 1 << 31, Memory: 8 << 10, Threads: 1}},
		{"huge memory", Params{Time: 1, Memory: 1 << 31, Threads: 1}},
		{"too many threads", Params{Time: 1, Memory: 8 << 10, Threads: 255}},
		{"memory below threads", Params{Time: 1, Memory: 8, Threads: 4}},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			crafted := b
			crafted.KDF = tc.kdf
			data, err := json.Marshal(crafted)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if _, err := Open([]byte("pw"), data); !errors.Is(err, ErrBadParams) {
				t.Errorf("Open with %+v = %v, want ErrBadParams", tc.kdf, err)
			}
		})
	}

	if _, err := Open([]byte("pw"), []byte("not json")); err == nil {
		t.Errorf("Open of garbage succeeded")
	}
}

func TestSealRejectsEmptyPassphrase(t *testing.T) {
	if _, err := Seal(nil, []byte("x"), testParams); !errors.Is(err, ErrEmptyPassphrase) {
		t.Errorf("Seal(nil) = %v, want ErrEmptyPassphrase", err)
	}
}

func TestSealRejectsBadParams(t *testing.T) {
	if _, err := Seal([]byte("pw"), []byte("x"), Params{Time: 1, Memory: 8 << 10}); !errors.Is(err, ErrBadParams) {
		t.Errorf("Seal with zero threads = %v, want ErrBadParams", err)
	}
	if err := DefaultParams.Validate(); err != nil {
		t.Errorf("DefaultParams.Validate() = %v", err)
	}
}

func TestPassphraseFromEnv(t *testing.T) {
	t.Setenv(PassphraseEnvVar, "from-env")
	got, err := Passphrase("unused: ", true)
	if err != nil {
		t.Fatalf("Passphrase: %v", err)
	}
	if string(got) != "from-env" {
		t.Errorf("Passphrase() = %q, want %q", got, "from-env")
	}
}
