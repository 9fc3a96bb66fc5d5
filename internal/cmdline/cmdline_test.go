package cmdline

import (
	"reflect"
	"testing"
)

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		in       string
		wantExe  string
		wantTail string
	}{
		{`"C:\Program Files\App\unins000.exe" /VERYSILENT`, `C:\Program Files\App\unins000.exe`, `/VERYSILENT`},
		{`uninstall.exe /S`, `uninstall.exe`, `/S`},
		{`  MsiExec.exe /X{1234-ABCD}  `, `MsiExec.exe`, `/X{1234-ABCD}`},
		{`"C:\App\remove.exe"`, `C:\App\remove.exe`, ``},
		{`C:\App\remove.exe`, `C:\App\remove.exe`, ``},
		{`"C:\Broken Path\x.exe /S`, `"C:\Broken`, `Path\x.exe /S`},
		{``, ``, ``},
	}

	for _, tt := range tests {
		exe, tail := SplitCommand(tt.in)
		if exe != tt.wantExe || tail != tt.wantTail {
			t.Errorf("SplitCommand(%q) = (%q, %q), want (%q, %q)", tt.in, exe, tail, tt.wantExe, tt.wantTail)
		}
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`/S "--flag value"`, []string{"/S", "--flag value"}},
		{`/VERYSILENT /NORESTART`, []string{"/VERYSILENT", "/NORESTART"}},
		{`  /qn   REBOOT=ReallySuppress `, []string{"/qn", "REBOOT=ReallySuppress"}},
		{`INSTALLDIR="C:\Program Files\App" /quiet`, []string{`INSTALLDIR=C:\Program Files\App`, "/quiet"}},
		{"/S\t/D", []string{"/S", "/D"}},
		{`""`, nil},
		{``, nil},
	}

	for _, tt := range tests {
		got := SplitArgs(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitArgs(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitCommandTailFeedsSplitArgs(t *testing.T) {
	exe, tail := SplitCommand(`"C:\Program Files\Zoom\uninstall.exe" /silent "/log C:\temp\z.log"`)
	if exe != `C:\Program Files\Zoom\uninstall.exe` {
		t.Fatalf("exe = %q", exe)
	}
	want := []string{"/silent", `/log C:\temp\z.log`}
	if got := SplitArgs(tail); !reflect.DeepEqual(got, want) {
		t.Errorf("SplitArgs(tail) = %q, want %q", got, want)
	}
}
