//go:build windows

package uninstall

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sys/windows/registry"
)

// uninstallKeys are scanned in this order; a tie keeps the earliest entry.
var uninstallKeys = []struct {
	root registry.Key
	hive string
	path string
}{
	// system-wide, native and 32-bit on 64-bit Windows
	{registry.LOCAL_MACHINE, "HKLM", `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`},
	{registry.LOCAL_MACHINE, "HKLM", `SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`},
	// per-user
	{registry.CURRENT_USER, "HKCU", `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`},
	{registry.CURRENT_USER, "HKCU", `SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`},
}

// New returns the registry-backed resolver
func New(logger *zap.Logger) Resolver {
	log := logger.Named("registry")
	return NewWithSource(func() ([]Entry, error) {
		return readUninstallEntries(log), nil
	}, logger)
}

func readUninstallEntries(logger *zap.Logger) []Entry {
	var entries []Entry

	for _, k := range uninstallKeys {
		items, err := readUninstallKey(k.root, k.hive, k.path)
		if err != nil {
			// WOW6432Node is absent on 32-bit hosts, HKCU may be empty for services
			logger.Debug("skipping uninstall key",
				zap.String("key", k.hive+`\`+k.path),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, items...)
	}

	return entries
}

func readUninstallKey(root registry.Key, hive, path string) ([]Entry, error) {
	key, err := registry.OpenKey(root, path, registry.ENUMERATE_SUB_KEYS|registry.QUERY_VALUE)
	if err != nil {
		return nil, fmt.Errorf("failed to open key %s\\%s: %w", hive, path, err)
	}
	defer key.Close()

	names, err := key.ReadSubKeyNames(-1)
	if err != nil {
		return nil, fmt.Errorf("failed to read subkeys: %w", err)
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		sub, err := registry.OpenKey(key, name, registry.QUERY_VALUE)
		if err != nil {
			continue
		}

		entry := Entry{
			Source:               hive + `\` + path + `\` + name,
			DisplayName:          readString(sub, "DisplayName"),
			UninstallString:      readString(sub, "UninstallString"),
			QuietUninstallString: readString(sub, "QuietUninstallString"),
		}
		sub.Close()

		if entry.DisplayName == "" {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func readString(key registry.Key, name string) string {
	val, _, err := key.GetStringValue(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(val)
}
