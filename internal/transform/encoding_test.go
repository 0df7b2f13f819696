package transform

import (
	"errors"
	"strings"
	"testing"
)

func TestBase64(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple text", "Hello, World!", "SGVsbG8sIFdvcmxkIQ=="},
		{"empty string", "", ""},
		{"unicode", "Hello 世界", "SGVsbG8g5LiW55WM"},
		{"emoji", "fire 🔥", "ZmlyZSDwn5Sl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := Base64Encode(tt.input)
			if encoded != tt.expected {
				t.Errorf("encode: expected %q, got %q", tt.expected, encoded)
			}
			if decoded := Base64Decode(encoded); decoded != tt.input {
				t.Errorf("decode: expected %q, got %q", tt.input, decoded)
			}
		})
	}
}

func TestBase64DecodeInvalid(t *testing.T) {
	for _, input := range []string{"not base64!!", "abc", "////", "a==="} {
		if got := Base64Decode(input); got != InvalidBase64 {
			t.Errorf("Base64Decode(%q) = %q, want sentinel", input, got)
		}
		if _, err := DecodeBase64(input); !errors.Is(err, ErrInvalidBase64) {
			t.Errorf("DecodeBase64(%q) error = %v", input, err)
		}
	}
}

func TestBase64DecodeIgnoresWhitespace(t *testing.T) {
	if got := Base64Decode("SGVs\nbG8=\n"); got != "Hello" {
		t.Fatalf("got %q", got)
	}
}

func TestBase64DecodeDropsForeignCharacters(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"aGk=!!", "hi"},
		{"a G\tk=", "hi"},
		{"aG*k=", "hi"},
		{"@@@@", ""},
	}
	for _, tt := range tests {
		if got := Base64Decode(tt.input); got != tt.want {
			t.Errorf("Base64Decode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMorse(t *testing.T) {
	if got := MorseEncode("SOS"); got != "... --- ..." {
		t.Fatalf("encode SOS: %q", got)
	}
	if got := MorseEncode("hi you"); got != ".... .. / -.-- --- ..-" {
		t.Fatalf("encode lower: %q", got)
	}
	if got := MorseDecode(".... .. / -.-- --- ..-"); got != "HI YOU" {
		t.Fatalf("decode: %q", got)
	}
}

func TestMorseUnknownRunes(t *testing.T) {
	// unknown runes become empty tokens
	if got := MorseEncode("a!b"); got != ".-  -..." {
		t.Fatalf("encode: %q", got)
	}
	if got := MorseDecode(".-  -... ........"); got != "AB" {
		t.Fatalf("decode: %q", got)
	}
}

func TestMorseRoundTrip(t *testing.T) {
	texts := []string{"HELLO WORLD", "SOS, 911?", "THE END.", "0123456789", ""}
	for _, text := range texts {
		if got := MorseDecode(MorseEncode(strings.ToUpper(text))); got != text {
			t.Errorf("round trip %q gave %q", text, got)
		}
	}
}

func TestBinary(t *testing.T) {
	if got := BinaryEncode("Hi"); got != "01001000 01101001" {
		t.Fatalf("encode: %q", got)
	}
	if got := BinaryDecode("01001000 01101001"); got != "Hi" {
		t.Fatalf("decode: %q", got)
	}
	if got := BinaryEncode(""); got != "" {
		t.Fatalf("empty: %q", got)
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	texts := []string{"plain ascii", "café ÿ", "世界 🔥"}
	for _, text := range texts {
		if got := BinaryDecode(BinaryEncode(text)); got != text {
			t.Errorf("round trip %q gave %q", text, got)
		}
	}
}

func TestBinaryWideCodePoints(t *testing.T) {
	if got := BinaryEncode("世"); got != "100111000010110" {
		t.Fatalf("encode: %q", got)
	}
}

func TestBinaryDecodeIntegerForms(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0b1000001", "A"},
		{"0B1000001 +1101001", "Ai"},
		{"100_0001 0b_110_1001", "Ai"},
		{"0", "\x00"},
	}
	for _, tt := range tests {
		if got := BinaryDecode(tt.input); got != tt.want {
			t.Errorf("BinaryDecode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBinaryDecodeInvalid(t *testing.T) {
	for _, input := range []string{"not binary", "0102", "01000001 2", "111111111111111111111111", "0b", "-1000001", "_1000001", "1__0", "10_"} {
		if got := BinaryDecode(input); got != InvalidBinary {
			t.Errorf("BinaryDecode(%q) = %q, want sentinel", input, got)
		}
		if _, err := DecodeBinary(input); !errors.Is(err, ErrInvalidBinary) {
			t.Errorf("DecodeBinary(%q) error = %v", input, err)
		}
	}
}
