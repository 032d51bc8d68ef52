package web

import (
	"fmt"
	"io"
	"net/http"
)

// ContentType is the media type of every page.
const ContentType = "text/html; charset=UTF-8"

// Page is a rendered response.
type Page struct {
	Status int
	Body   []byte
}

// StatusText is the reason phrase sent with Status.
func (p Page) StatusText() string {
	switch p.Status {
	case http.StatusOK:
		return "Success"
	default:
		return http.StatusText(p.Status)
	}
}

// WriteCGI writes the page as a CGI response: a content type header, a
// status header, a blank line and the body.
func (p Page) WriteCGI(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Content-Type: %s\nStatus: %d %s\n\n", ContentType, p.Status, p.StatusText()); err != nil {
		return fmt.Errorf("failed to write response headers: %w", err)
	}

	if _, err := w.Write(p.Body); err != nil {
		return fmt.Errorf("failed to write response body: %w", err)
	}

	return nil
}
