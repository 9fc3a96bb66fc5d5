package executor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/zldap/agent/internal/cmdline"
	"github.com/zldap/agent/internal/uninstall"
	"github.com/zldap/agent/pkg/models"
)

var (
	// ErrUnresolvable is returned when no uninstall command can be found
	// for a non-package artifact.
	ErrUnresolvable = errors.New("uninstall command unresolvable")
	// ErrUnknownTaskType is returned for task types other than install and uninstall.
	ErrUnknownTaskType = errors.New("unknown task type")
)

// Command is a resolved executable and its argument vector
type Command struct {
	Executable string
	Args       []string
}

func (c *Command) String() string {
	return strings.TrimSpace(c.Executable + " " + strings.Join(c.Args, " "))
}

// PackageInstaller describes the platform service for structured packages
type PackageInstaller struct {
	Executable  string
	Extension   string
	InstallFlag string
	RemoveFlag  string
	QuietFlag   string
}

// MSI is the Windows Installer service
var MSI = PackageInstaller{
	Executable:  "msiexec",
	Extension:   ".msi",
	InstallFlag: "/i",
	RemoveFlag:  "/x",
	QuietFlag:   "/qn",
}

// Handles reports whether filename is a package for this installer
func (p PackageInstaller) Handles(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), p.Extension)
}

// Builder turns a task and its downloaded artifact into a Command
type Builder struct {
	resolver  uninstall.Resolver
	installer PackageInstaller
	logger    *zap.Logger
}

// NewBuilder creates a Builder that routes packages through MSI
func NewBuilder(resolver uninstall.Resolver, logger *zap.Logger) *Builder {
	return &Builder{
		resolver:  resolver,
		installer: MSI,
		logger:    logger.Named("builder"),
	}
}

// Build decides the executable and arguments for task. Packages always go
// through the package installer. Uninstalling anything else requires a
// registry match; the downloaded artifact is never run as an uninstaller.
func (b *Builder) Build(task models.Task, artifactPath string) (*Command, error) {
	isPackage := b.installer.Handles(filepath.Base(artifactPath))

	switch task.Type {
	case models.TaskTypeUninstall:
		if isPackage {
			// the package format defines its own silent contract
			return &Command{
				Executable: b.installer.Executable,
				Args:       []string{b.installer.RemoveFlag, artifactPath, b.installer.QuietFlag},
			}, nil
		}
		return b.buildRegistryUninstall(task)

	case models.TaskTypeInstall:
		args := cmdline.SplitArgs(task.SilentArgs)
		if isPackage {
			return &Command{
				Executable: b.installer.Executable,
				Args:       append([]string{b.installer.InstallFlag, artifactPath}, args...),
			}, nil
		}
		return &Command{Executable: artifactPath, Args: args}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTaskType, task.Type)
	}
}

func (b *Builder) buildRegistryUninstall(task models.Task) (*Command, error) {
	candidate, err := b.resolver.Resolve(task.SoftwareName)
	if err != nil {
		return nil, fmt.Errorf("%w for %q: %w", ErrUnresolvable, task.SoftwareName, err)
	}

	b.logger.Info("using registry uninstall command",
		zap.Int("task_id", task.ID),
		zap.String("display_name", candidate.DisplayName),
		zap.String("command", candidate.RawCommand),
	)

	exe, tail := cmdline.SplitCommand(candidate.RawCommand)
	// registry arguments first, then the caller's silent args
	args := cmdline.SplitArgs(tail)
	args = append(args, cmdline.SplitArgs(task.SilentArgs)...)

	return &Command{Executable: exe, Args: args}, nil
}
