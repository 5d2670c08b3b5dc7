package clipboard

import (
	"strings"
	"testing"
)

func TestCopyFile_Windows(t *testing.T) {
	var gotName string
	var gotArgs []string
	c := New(nil)
	c.goos = "windows"
	c.run = func(name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	}

	if err := c.CopyFile("/clips/match export.mp4"); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}
	if gotName != "powershell" {
		t.Errorf("command = %q, want powershell", gotName)
	}
	cmd := strings.Join(gotArgs, " ")
	if !strings.Contains(cmd, "Set-Clipboard -LiteralPath '") {
		t.Errorf("args = %q, want quoted Set-Clipboard invocation", cmd)
	}
}

func TestCopyFile_Darwin(t *testing.T) {
	var gotName string
	var gotArgs []string
	c := New(nil)
	c.goos = "darwin"
	c.run = func(name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	}

	if err := c.CopyFile("/clips/match.mp4"); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}
	if gotName != "osascript" {
		t.Errorf("command = %q, want osascript", gotName)
	}
	if !strings.Contains(strings.Join(gotArgs, " "), "POSIX file") {
		t.Errorf("args = %v, want POSIX file reference", gotArgs)
	}
}

func TestPsQuote(t *testing.T) {
	if got := psQuote(`C:\clips\it's here.mp4`); got != `'C:\clips\it''s here.mp4'` {
		t.Errorf("psQuote() = %q", got)
	}
}

func TestAppleQuote(t *testing.T) {
	if got := appleQuote(`/clips/say "gg".mp4`); got != `"/clips/say \"gg\".mp4"` {
		t.Errorf("appleQuote() = %q", got)
	}
}
