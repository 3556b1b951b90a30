package main

import "testing"

func TestReadUIMode(t *testing.T) {
	cases := map[string]uiMode{
		"":     uiModeAuto,
		"auto": uiModeAuto,
		"ON":   uiModeOn,
		"off":  uiModeOff,
	}
	for in, want := range cases {
		got, err := readUIMode(in)
		if err != nil {
			t.Fatalf("readUIMode(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("readUIMode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReadUIModeRejectsInvalid(t *testing.T) {
	if _, err := readUIMode("sideways"); err == nil {
		t.Fatalf("expected an error for an invalid --ui value")
	}
}
