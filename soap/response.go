package soap

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
)

// Part is one attachment of a multipart response. Data holds the decoded
// bytes.
type Part struct {
	ContentID        string
	ContentType      string
	TransferEncoding string
	Header           textproto.MIMEHeader
	Data             []byte
}

// Response is a parsed reply: the envelope XML plus the attachments that
// travelled with it.
type Response struct {
	headers     []string
	body        []byte
	xml         []byte
	attachments []*Part
	multipart   bool

	// StatusCode is the HTTP status of the exchange, zero when unknown.
	StatusCode int
}

// NewResponse parses a raw reply. A body starting with "--" is read as a
// multipart/related message whose first part is the envelope; anything else
// is the envelope itself.
func NewResponse(headers []string, body []byte) (*Response, error) {
	r := &Response{headers: headers, body: body}
	if !bytes.HasPrefix(body, []byte("--")) {
		r.xml = body
		return r, nil
	}

	parts, err := parseMultipart(headers, body)
	if err != nil {
		return nil, err
	}
	r.multipart = true
	r.xml = parts[0].Data
	r.attachments = parts[1:]
	return r, nil
}

// XML returns the envelope.
func (r *Response) XML() []byte {
	return r.xml
}

// Attachments returns the parts that followed the envelope, in arrival order.
func (r *Response) Attachments() []*Part {
	return r.attachments
}

// Headers returns the captured response header lines. They are sorted by
// header name, not in wire order: net/http does not keep the arrival order.
func (r *Response) Headers() []string {
	return r.headers
}

// Body returns the raw response body.
func (r *Response) Body() []byte {
	return r.body
}

// IsMultipart reports whether the body was a multipart message.
func (r *Response) IsMultipart() bool {
	return r.multipart
}

func parseMultipart(headers []string, body []byte) ([]*Part, error) {
	var msg bytes.Buffer
	for _, h := range headers {
		msg.WriteString(h)
		if !strings.HasSuffix(h, "\n") {
			msg.WriteString(crlf)
		}
	}
	msg.WriteString(crlf)
	msg.Write(body)

	m, err := mail.ReadMessage(bufio.NewReader(&msg))
	if err != nil {
		return nil, &ParseError{Reason: "read message headers", Err: err}
	}

	boundary := messageBoundary(m.Header.Get("Content-Type"), body)
	if boundary == "" {
		return nil, &ParseError{Reason: "no boundary"}
	}

	var parts []*Part
	mr := multipart.NewReader(m.Body, boundary)
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Reason: fmt.Sprintf("part %d", len(parts)), Err: err}
		}

		part, err := readPart(p)
		p.Close()
		if err != nil {
			return nil, &ParseError{Reason: fmt.Sprintf("part %d", len(parts)), Err: err}
		}
		parts = append(parts, part)
	}

	if len(parts) == 0 {
		return nil, &ParseError{Reason: "no envelope part"}
	}
	return parts, nil
}

// messageBoundary prefers the boundary announced by the headers and falls
// back to the delimiter the body actually starts with.
func messageBoundary(contentType string, body []byte) string {
	if mediaType, params, err := mime.ParseMediaType(contentType); err == nil &&
		strings.HasPrefix(mediaType, "multipart/") && params["boundary"] != "" {
		if bytes.HasPrefix(body, []byte("--"+params["boundary"])) {
			return params["boundary"]
		}
	}

	line := body
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		line = body[:i]
	}
	return strings.TrimSpace(strings.TrimPrefix(string(line), "--"))
}

func readPart(p *multipart.Part) (*Part, error) {
	encoding := p.Header.Get("Content-Transfer-Encoding")
	data, err := io.ReadAll(p)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(encoding, "base64") {
		data, err = base64.StdEncoding.DecodeString(strings.Join(strings.Fields(string(data)), ""))
		if err != nil {
			return nil, fmt.Errorf("decode base64: %w", err)
		}
	}

	return &Part{
		ContentID:        normalizeContentID(p.Header.Get("Content-ID")),
		ContentType:      p.Header.Get("Content-Type"),
		TransferEncoding: encoding,
		Header:           p.Header,
		Data:             data,
	}, nil
}

func normalizeContentID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "cid:")
	id = strings.TrimPrefix(id, "<")
	return strings.TrimSuffix(id, ">")
}
