package export

import "strings"

var replacer = strings.NewReplacer(
	"•", "*",
	"–", "-",
	"—", "-",
	"…", "...",
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"μ", "u",
	"µ", "u",
)

// SafeText maps text onto the Latin-1 bytes the core PDF fonts can draw. Common
// typographic characters get ASCII stand-ins and anything else outside Latin-1
// becomes '?'.
func SafeText(s string) string {
	s = replacer.Replace(s)
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r < 0x80:
			out = append(out, byte(r))
		case r >= 0xA0 && r <= 0xFF:
			out = append(out, byte(r))
		default:
			out = append(out, '?')
		}
	}
	return string(out)
}
