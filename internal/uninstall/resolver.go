// Package uninstall locates a system-registered uninstall command for a
// free-text software name. Only platforms with a searchable uninstall
// registry support it; elsewhere New returns a resolver that always reports
// ErrUnsupported.
package uninstall

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	// ErrUnsupported is returned on platforms without an uninstall registry.
	ErrUnsupported = errors.New("uninstall registry lookup is not supported on this platform")
	// ErrNotFound is returned when no registry entry qualifies.
	ErrNotFound = errors.New("no matching uninstall entry")
)

// Resolver finds the uninstall command for a software name
type Resolver interface {
	Resolve(softwareName string) (*Candidate, error)
}

// EntrySource enumerates uninstall entries in a fixed, deterministic order
type EntrySource func() ([]Entry, error)

// registryResolver scores every entry from source against the keywords of a name
type registryResolver struct {
	source EntrySource
	logger *zap.Logger
}

// NewWithSource creates a Resolver over an arbitrary entry source
func NewWithSource(source EntrySource, logger *zap.Logger) Resolver {
	return &registryResolver{source: source, logger: logger.Named("uninstall")}
}

func (r *registryResolver) Resolve(softwareName string) (*Candidate, error) {
	keywords := ExtractKeywords(softwareName)
	r.logger.Info("searching uninstall registry",
		zap.String("software", softwareName),
		zap.Strings("keywords", keywords),
	)
	if len(keywords) == 0 {
		return nil, fmt.Errorf("%w: no usable keywords in %q", ErrNotFound, softwareName)
	}

	entries, err := r.source()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate uninstall entries: %w", err)
	}

	best := Match(keywords, entries)
	if best == nil {
		return nil, fmt.Errorf("%w for %q (%d entries scanned)", ErrNotFound, softwareName, len(entries))
	}

	r.logger.Info("selected uninstall entry",
		zap.String("display_name", best.DisplayName),
		zap.Int("score", best.Score),
		zap.String("source", best.Source),
		zap.String("command", best.RawCommand),
	)
	return best, nil
}

type unsupportedResolver struct{}

func (unsupportedResolver) Resolve(string) (*Candidate, error) {
	return nil, ErrUnsupported
}
