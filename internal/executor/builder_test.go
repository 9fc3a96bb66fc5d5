package executor

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/zldap/agent/internal/uninstall"
	"github.com/zldap/agent/pkg/models"
)

type fakeResolver struct {
	candidate *uninstall.Candidate
	err       error
	calls     int
}

func (f *fakeResolver) Resolve(string) (*uninstall.Candidate, error) {
	f.calls++
	return f.candidate, f.err
}

func TestBuildDecisionTable(t *testing.T) {
	dir := t.TempDir()
	msiPath := filepath.Join(dir, "Product.MSI")
	exePath := filepath.Join(dir, "BraveBrowserSetup.exe")

	resolver := &fakeResolver{candidate: &uninstall.Candidate{
		DisplayName: "Brave Browser",
		RawCommand:  `"C:\Program Files\BraveSoftware\Brave-Browser\Application\setup.exe" --uninstall --system-level`,
		Score:       2,
	}}
	b := NewBuilder(resolver, zaptest.NewLogger(t))

	tests := []struct {
		name     string
		task     models.Task
		artifact string
		want     *Command
	}{
		{
			name:     "uninstall package ignores silent args",
			task:     models.Task{ID: 1, Type: models.TaskTypeUninstall, SoftwareName: "Product", SilentArgs: "/S /norestart"},
			artifact: msiPath,
			want:     &Command{Executable: "msiexec", Args: []string{"/x", msiPath, "/qn"}},
		},
		{
			name:     "install package appends silent args",
			task:     models.Task{ID: 2, Type: models.TaskTypeInstall, SoftwareName: "Product", SilentArgs: `/qn INSTALLDIR="C:\Program Files\Product"`},
			artifact: msiPath,
			want:     &Command{Executable: "msiexec", Args: []string{"/i", msiPath, "/qn", `INSTALLDIR=C:\Program Files\Product`}},
		},
		{
			name:     "install executable runs artifact directly",
			task:     models.Task{ID: 3, Type: models.TaskTypeInstall, SoftwareName: "Brave", SilentArgs: `/silent "/install dir"`},
			artifact: exePath,
			want:     &Command{Executable: exePath, Args: []string{"/silent", "/install dir"}},
		},
		{
			name:     "install executable without args",
			task:     models.Task{ID: 4, Type: models.TaskTypeInstall, SoftwareName: "Brave"},
			artifact: exePath,
			want:     &Command{Executable: exePath},
		},
		{
			name:     "uninstall executable uses registry then silent args",
			task:     models.Task{ID: 5, Type: models.TaskTypeUninstall, SoftwareName: "BraveBrowserStandaloneSilentNightlySetup", SilentArgs: "--force-uninstall"},
			artifact: exePath,
			want: &Command{
				Executable: `C:\Program Files\BraveSoftware\Brave-Browser\Application\setup.exe`,
				Args:       []string{"--uninstall", "--system-level", "--force-uninstall"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Build(tt.task, tt.artifact)
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			if got.Executable != tt.want.Executable {
				t.Errorf("Executable = %q, want %q", got.Executable, tt.want.Executable)
			}
			if len(got.Args) != 0 || len(tt.want.Args) != 0 {
				if !reflect.DeepEqual(got.Args, tt.want.Args) {
					t.Errorf("Args = %q, want %q", got.Args, tt.want.Args)
				}
			}
		})
	}
}

func TestBuildPackageNeverConsultsResolver(t *testing.T) {
	resolver := &fakeResolver{err: uninstall.ErrNotFound}
	b := NewBuilder(resolver, zaptest.NewLogger(t))

	for _, typ := range []string{models.TaskTypeInstall, models.TaskTypeUninstall} {
		cmd, err := b.Build(models.Task{Type: typ, SoftwareName: "Anything"}, "/tmp/x/app.Msi")
		if err != nil {
			t.Fatalf("%s: Build failed: %v", typ, err)
		}
		if cmd.Executable != "msiexec" {
			t.Errorf("%s: Executable = %q, want msiexec", typ, cmd.Executable)
		}
	}
	if resolver.calls != 0 {
		t.Errorf("resolver called %d times for packages", resolver.calls)
	}
}

func TestBuildUninstallUnresolvable(t *testing.T) {
	for _, cause := range []error{uninstall.ErrNotFound, uninstall.ErrUnsupported} {
		b := NewBuilder(&fakeResolver{err: cause}, zaptest.NewLogger(t))

		cmd, err := b.Build(models.Task{Type: models.TaskTypeUninstall, SoftwareName: "Zoom"}, "/tmp/x/ZoomInstaller.exe")
		if cmd != nil {
			t.Errorf("expected no command, got %v", cmd)
		}
		if !errors.Is(err, ErrUnresolvable) {
			t.Errorf("error = %v, want ErrUnresolvable", err)
		}
		if !errors.Is(err, cause) {
			t.Errorf("error = %v, want wrapped %v", err, cause)
		}
	}
}

func TestBuildUnknownTaskType(t *testing.T) {
	b := NewBuilder(&fakeResolver{}, zaptest.NewLogger(t))
	_, err := b.Build(models.Task{Type: "upgrade"}, "/tmp/x/app.exe")
	if !errors.Is(err, ErrUnknownTaskType) {
		t.Errorf("error = %v, want ErrUnknownTaskType", err)
	}
}

func TestCommandString(t *testing.T) {
	cmd := &Command{Executable: "msiexec", Args: []string{"/x", "a.msi", "/qn"}}
	if got := cmd.String(); got != "msiexec /x a.msi /qn" {
		t.Errorf("String() = %q", got)
	}
}
