package infrastructure

import "strings"

// ShellQuote quotes s so it can be pasted into a POSIX shell.
// Only used to log spawned command lines; exec.Command never goes through a shell.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, needsQuoting) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ShellEscapeCommand renders binary and args as one copy-pasteable command line
func ShellEscapeCommand(binary string, args ...string) string {
	var b strings.Builder
	b.WriteString(ShellQuote(binary))
	for _, arg := range args {
		b.WriteByte(' ')
		b.WriteString(ShellQuote(arg))
	}
	return b.String()
}

// needsQuoting reports runes outside the set a shell leaves alone
func needsQuoting(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("_-./:,=+@", r)
}
