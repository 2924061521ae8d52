package policy

import "regexp"

var colorCode = regexp.MustCompile(`(?i)[§&][0-9a-fk-or]`)

// StripColor removes legacy chat formatting codes ("§a", "&l", ...).
func StripColor(s string) string {
	return colorCode.ReplaceAllString(s, "")
}
