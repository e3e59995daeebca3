package ablysig

import "testing"

const testKey = "appid.keyid:sekret"

func TestNew_MalformedKey(t *testing.T) {
	for _, k := range []string{"", "nameonly", ":secret", "name:"} {
		if _, err := New(k); err == nil {
			t.Fatalf("expected error for key %q", k)
		}
	}
}

func TestVerify_ValidSignature(t *testing.T) {
	v, err := New(testKey)
	if err != nil {
		t.Fatal(err)
	}

	body := []byte(`{"items":[]}`)
	sig := v.Sign(body)

	if err := v.Verify("appid.keyid", sig, body); err != nil {
		t.Fatalf("full key name should verify: %v", err)
	}
	if err := v.Verify("keyid", sig, body); err != nil {
		t.Fatalf("keyId suffix should verify: %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	v, _ := New(testKey)
	other, _ := New("appid.keyid:different")

	body := []byte(`{"items":[]}`)
	if err := v.Verify("keyid", other.Sign(body), body); err != ErrBadSignature {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerify_TamperedBody(t *testing.T) {
	v, _ := New(testKey)

	sig := v.Sign([]byte(`{"items":[1]}`))
	if err := v.Verify("keyid", sig, []byte(`{"items":[2]}`)); err != ErrBadSignature {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerify_MissingHeaders(t *testing.T) {
	v, _ := New(testKey)

	if err := v.Verify("", "sig", nil); err != ErrMissingHeader {
		t.Fatalf("expected ErrMissingHeader, got %v", err)
	}
	if err := v.Verify("keyid", "", nil); err != ErrMissingHeader {
		t.Fatalf("expected ErrMissingHeader, got %v", err)
	}
}

func TestVerify_KeyNameMismatch(t *testing.T) {
	v, _ := New(testKey)

	body := []byte(`x`)
	if err := v.Verify("otherkey", v.Sign(body), body); err != ErrKeyNameMismatch {
		t.Fatalf("expected ErrKeyNameMismatch, got %v", err)
	}
}

func TestVerify_BadBase64(t *testing.T) {
	v, _ := New(testKey)

	if err := v.Verify("keyid", "%%%not-base64%%%", []byte(`x`)); err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}
