//go:build !windows

package uninstall

import "go.uber.org/zap"

// New returns a resolver that always reports ErrUnsupported
func New(logger *zap.Logger) Resolver {
	logger.Named("uninstall").Debug("no uninstall registry on this platform")
	return unsupportedResolver{}
}
