// Package cmdline splits loosely quoted command strings, such as registry
// uninstall commands and backend-supplied silent arguments.
package cmdline

import (
	"strings"
	"unicode"
)

const quote = '"'

// SplitCommand separates an executable from its argument tail. A leading
// quoted path may contain spaces; otherwise the executable ends at the
// first space.
//
//	`"C:\Program Files\App\unins000.exe" /VERYSILENT` -> `C:\Program Files\App\unins000.exe`, `/VERYSILENT`
//	`uninstall.exe /S`                                -> `uninstall.exe`, `/S`
func SplitCommand(s string) (exe, tail string) {
	s = strings.TrimSpace(s)

	if len(s) > 0 && s[0] == quote {
		if end := strings.IndexByte(s[1:], quote); end >= 0 {
			return s[1 : end+1], strings.TrimLeft(s[end+2:], " ")
		}
	}

	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// SplitArgs tokenizes s on whitespace outside double quotes. Quote
// characters are dropped from the output.
func SplitArgs(s string) []string {
	var (
		args    []string
		current strings.Builder
		inQuote bool
	)

	for _, r := range s {
		switch {
		case r == quote:
			inQuote = !inQuote
		case unicode.IsSpace(r) && !inQuote:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}

	return args
}
