// codec_test.go -- test suite for the Method dispatch

package compress

import "testing"

func TestDecodeDispatch(t *testing.T) {
	data := []byte("plain")
	out, err := Decode(Store, data, len(data))
	if err != nil {
		t.Fatalf("Decode(Store): %s", err)
	}
	if string(out) != "plain" {
		t.Fatalf("Decode(Store): got %q", out)
	}
}

func TestDecodeUnsupportedMethod(t *testing.T) {
	if _, err := Decode(Method(99), nil, 0); err == nil {
		t.Fatal("Decode: expected error for unsupported method")
	}
}

func TestMethodString(t *testing.T) {
	cases := map[Method]string{
		Store:      "store",
		LZOMini:    "lzo-mini",
		Deflate:    "deflate",
		Method(99): "method(99)",
	}
	for m, want := range cases {
		if got := m.String(); got != want {
			t.Fatalf("Method(%d).String() = %q, want %q", m, got, want)
		}
	}
}
