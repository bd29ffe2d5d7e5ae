package zap

import "strings"

// controlCharReplacer escapes control characters that can be used for log injection (CWE-117).
//
// The JSON encoder already escapes these inside string values, so this matters
// for the console encoder used in local environments.
var controlCharReplacer = strings.NewReplacer(
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// sanitizeString escapes control characters in a single string value.
func sanitizeString(s string) string {
	return controlCharReplacer.Replace(s)
}
