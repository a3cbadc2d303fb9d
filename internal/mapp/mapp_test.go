package mapp

import (
	"os"
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	m := parseLine("7f3b2c000000-7f3b2c021000 rw-p 00001000 08:01 393228   /usr/lib/libc.so.6")
	if m == nil {
		t.Fatal("parseLine returned nil")
	}
	if m.Start != 0x7f3b2c000000 || m.End != 0x7f3b2c021000 {
		t.Errorf("range = %#x-%#x", m.Start, m.End)
	}
	if !m.R || !m.W || m.X || !m.P {
		t.Errorf("perms = %s", m.Perms())
	}
	if m.Offset != 0x1000 {
		t.Errorf("offset = %#x", m.Offset)
	}
	if m.Path != "/usr/lib/libc.so.6" {
		t.Errorf("path = %q", m.Path)
	}
}

func TestParseLineAnonymous(t *testing.T) {
	m := parseLine("7ffd1c000000-7ffd1c021000 r-xp 00000000 00:00 0")
	if m == nil {
		t.Fatal("parseLine returned nil")
	}
	if m.Path != "" {
		t.Errorf("path = %q, want empty", m.Path)
	}
	if m.Perms() != "r-xp" {
		t.Errorf("perms = %s", m.Perms())
	}
}

func TestParseLineJunk(t *testing.T) {
	for _, line := range []string{"", "junk", "a-b r--p zz", "12345 r--p 0 0 0"} {
		if m := parseLine(line); m != nil {
			t.Errorf("parseLine(%q) = %+v, want nil", line, m)
		}
	}
}

func TestParseAll(t *testing.T) {
	input := strings.Join([]string{
		"00400000-00452000 r-xp 00000000 08:02 173521 /usr/bin/dbus-daemon",
		"bad line",
		"7ffd1c000000-7ffd1c021000 rw-p 00000000 00:00 0 [stack]",
	}, "\n")
	maps := parseAll(strings.NewReader(input))
	if maps.Len() != 2 {
		t.Fatalf("maps = %d, want 2", maps.Len())
	}
	if m := maps.At(1); m.Path != "[stack]" {
		t.Errorf("path = %q", m.Path)
	}
}

func TestParseSelf(t *testing.T) {
	maps, err := Parse(os.Getpid())
	if err != nil {
		t.Fatal(err)
	}
	if maps.Len() == 0 {
		t.Fatal("no maps for self")
	}
	execSeen := false
	for _, m := range maps.All() {
		if m.End <= m.Start {
			t.Errorf("inverted range %#x-%#x", m.Start, m.End)
		}
		if m.X {
			execSeen = true
		}
	}
	if !execSeen {
		t.Error("no executable mapping in own process")
	}
}
