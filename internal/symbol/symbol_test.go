// internal/symbol/symbol_test.go
package symbol

import (
	"reflect"
	"testing"
)

func TestEncode_Uppercases(t *testing.T) {
	got := Encode("abc")
	want := []int{1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encode(\"abc\") = %v, want %v", got, want)
	}
}

func TestEncode_UnknownBecomesBlank(t *testing.T) {
	got := Encode("A~B")
	want := []int{1, 0, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encode(\"A~B\") = %v, want %v", got, want)
	}
}

func TestEncode_Digits(t *testing.T) {
	got := Encode("90")
	want := []int{35, 36}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encode(\"90\") = %v, want %v", got, want)
	}
}

func TestEncode_Degree(t *testing.T) {
	got := Encode("72°")
	want := []int{33, 28, 62}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encode(\"72°\") = %v, want %v", got, want)
	}
}

func TestEncode_Token(t *testing.T) {
	got := Encode("{RED}HI")
	want := []int{63, 8, 9}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encode(\"{RED}HI\") = %v, want %v", got, want)
	}
}

func TestEncode_TokenCaseInsensitive(t *testing.T) {
	got := Encode("{green}")
	want := []int{66}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encode(\"{green}\") = %v, want %v", got, want)
	}
}

func TestEncode_FilledToken(t *testing.T) {
	got := Encode("{FILLED}")
	want := []int{71}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encode(\"{FILLED}\") = %v, want %v", got, want)
	}
}

func TestEncode_UnmatchedBraceFallsThrough(t *testing.T) {
	// {XYZ} is not a token: braces are unmapped (blank), letters encode.
	got := Encode("{XYZ}")
	want := []int{0, 24, 25, 26, 0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encode(\"{XYZ}\") = %v, want %v", got, want)
	}
}

func TestEncode_UnterminatedBrace(t *testing.T) {
	got := Encode("{RED")
	want := []int{0, 18, 5, 4}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encode(\"{RED\") = %v, want %v", got, want)
	}
}

func TestEncode_TokenAfterBadBrace(t *testing.T) {
	// A failed match consumes only the brace; a later token still matches.
	got := Encode("{{RED}")
	want := []int{0, 63}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encode(\"{{RED}\") = %v, want %v", got, want)
	}
}

func TestDecode_Tokens(t *testing.T) {
	cases := map[int]string{
		0:  " ",
		1:  "A",
		63: "RED",
		70: "BLACK",
		71: "FILLED",
	}
	for code, want := range cases {
		if got := Decode(code); got != want {
			t.Errorf("Decode(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestDecode_UnknownCode(t *testing.T) {
	if got := Decode(99); got != "" {
		t.Errorf("Decode(99) = %q, want empty", got)
	}
}

func TestDisplayLength(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"HI", 2},
		{"{RED}HI", 3},
		{"{RED}{BLUE}", 2},
		{"A B", 3},
	}
	for _, tc := range cases {
		if got := DisplayLength(tc.text); got != tc.want {
			t.Errorf("DisplayLength(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}
