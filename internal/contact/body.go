package contact

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

// renderBody builds the inquiry email with plain string assembly. All
// submitted values are escaped before they reach the HTML.
func renderBody(sub Submission) string {
	var b strings.Builder
	b.WriteString("<h2>New event inquiry</h2>\n<table>\n")
	writeRow(&b, "Name", sub.Name)
	writeRow(&b, "Email", sub.Email)
	writeRow(&b, "Phone", sub.Phone)
	writeRow(&b, "Event type", sub.EventType)
	writeRow(&b, "Event date", sub.EventDate)
	if sub.GuestCount > 0 {
		writeRow(&b, "Guest count", strconv.Itoa(sub.GuestCount))
	}
	b.WriteString("</table>\n")
	b.WriteString("<h3>Message</h3>\n<p>")
	b.WriteString(strings.ReplaceAll(html.EscapeString(sub.Message), "\n", "<br>"))
	b.WriteString("</p>\n")
	return b.String()
}

func writeRow(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "<tr><td><strong>%s</strong></td><td>%s</td></tr>\n", label, html.EscapeString(value))
}
