package format

import "strings"

// Telegram's legacy Markdown mode treats these as formatting
// delimiters, so user-supplied text has to escape them before it is
// interpolated into a reply.
var mdEscaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"[", `\[`,
	"`", "\\`",
)

// EscapeMD escapes text for safe inclusion in a Markdown reply.
func EscapeMD(text string) string {
	return mdEscaper.Replace(text)
}
