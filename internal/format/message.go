// Package format builds the HTML-mode message bodies sent to Telegram.
// Every function here is pure and deterministic: identical input produces
// byte-identical output, which the orchestrator relies on for its
// skip-unchanged comparison.
package format

import (
	"fmt"
	"html"
	"strings"
)

// Listing is the formatter input for an ad or post announcement.
type Listing struct {
	Title        string
	Content      string
	Price        *int
	AuthorName   string // telegram username without @; may be empty
	AuthorID     int64
	Link         string
	BookingCount int
}

// ListingMessage renders the fixed announcement layout:
// title header, body, price line, author line, link line, optional booking
// suffix. All free-text fields are HTML-escaped before interpolation.
func ListingMessage(l Listing) string {
	var b strings.Builder

	b.WriteString("<b>")
	b.WriteString(html.EscapeString(l.Title))
	b.WriteString("</b>")

	if l.Content != "" {
		b.WriteString("\n\n")
		b.WriteString(html.EscapeString(l.Content))
	}

	b.WriteString("\n\n")
	if l.Price != nil {
		fmt.Fprintf(&b, "Price: %d", *l.Price)
	} else {
		b.WriteString("Price: not specified")
	}

	b.WriteString("\nAuthor: ")
	b.WriteString(authorDisplay(l.AuthorName, l.AuthorID))

	if l.Link != "" {
		b.WriteString("\n\n")
		fmt.Fprintf(&b, `<a href="%s">Open listing</a>`, html.EscapeString(l.Link))
	}

	if l.BookingCount > 0 {
		b.WriteString("\n\n")
		fmt.Fprintf(&b, "Bookings: %d", l.BookingCount)
	}

	return b.String()
}

// ReplyForward renders a reply received in a channel, forwarded to the
// entity owner.
func ReplyForward(from, text string) string {
	return fmt.Sprintf("Reply from %s:\n%s", html.EscapeString(from), html.EscapeString(text))
}

// authorDisplay prefers a reachable @mention; falls back to the opaque
// numeric id when the user has no username.
func authorDisplay(name string, id int64) string {
	if name != "" {
		return "@" + html.EscapeString(name)
	}
	return fmt.Sprintf("ID %d", id)
}
