package statement

import "testing"

func TestDecodeLatin1(t *testing.T) {
	// "<MEMO>PAGAMENTO ÁGUA" with Á encoded as 0xC1
	raw := []byte{'<', 'M', 'E', 'M', 'O', '>', 'P', 'A', 'G', 'A', 'M', 'E', 'N', 'T', 'O', ' ', 0xC1, 'G', 'U', 'A'}

	text, err := DecodeLatin1(raw)
	if err != nil {
		t.Fatalf("DecodeLatin1() error = %v", err)
	}

	if got := extractTag(text, "MEMO"); got != "PAGAMENTO ÁGUA" {
		t.Errorf("MEMO = %q, want %q", got, "PAGAMENTO ÁGUA")
	}
}

func TestDecodeLatin1_Empty(t *testing.T) {
	text, err := DecodeLatin1(nil)
	if err != nil {
		t.Fatalf("DecodeLatin1(nil) error = %v", err)
	}
	if text != "" {
		t.Errorf("DecodeLatin1(nil) = %q, want empty", text)
	}
}
