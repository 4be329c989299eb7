package soap

import (
	"bytes"
	"encoding/base64"
	"strconv"
)

const (
	// Boundary separates the parts of every multipart/related request.
	Boundary = "MimeBoundaryOkOiKi"
	// MainEnvelopeID is the content ID of the XML part.
	MainEnvelopeID = "<main_envelope>"

	// SOAPMIMEType is the content type of a plain request body.
	SOAPMIMEType = "text/xml"

	mmaContentType = `Multipart/Related; type="text/xml"; start="` + MainEnvelopeID + `"; boundary=` + Boundary

	crlf = "\r\n"
)

type basicAuth struct {
	Login    string
	Password string
}

// Request is the wire form of one pending call: the serialized envelope, the
// attachments to send along and the HTTP headers describing them.
type Request struct {
	xml         []byte
	action      *string
	auth        *basicAuth
	attachments []*Attachment
}

// NewRequest creates an empty request.
func NewRequest() *Request {
	return &Request{}
}

// AddAttachment appends a to the request and returns its content ID, which
// the caller embeds in the envelope to reference the part.
func (r *Request) AddAttachment(a *Attachment) string {
	r.attachments = append(r.attachments, a)
	return a.ContentID()
}

// Attachments returns the attachments in the order they were added.
func (r *Request) Attachments() []*Attachment {
	return r.attachments
}

// SetAction sets the SOAPAction header value.
func (r *Request) SetAction(action string) {
	r.action = &action
}

// SetHTTPAuthentication sets the credentials sent with basic authentication.
func (r *Request) SetHTTPAuthentication(login, password string) {
	r.auth = &basicAuth{Login: login, Password: password}
}

// SetXML sets the serialized envelope.
func (r *Request) SetXML(xml []byte) {
	r.xml = xml
}

// XML returns the serialized envelope.
func (r *Request) XML() []byte {
	return r.xml
}

// Reset clears the request so it can carry the next call.
func (r *Request) Reset() {
	*r = Request{}
}

// Headers returns the HTTP header lines for the current state of the request.
// They are computed on each call.
func (r *Request) Headers() ([]string, error) {
	contents, err := r.Contents()
	if err != nil {
		return nil, err
	}

	headers := make([]string, 0, 5)
	if len(r.attachments) > 0 {
		headers = append(headers,
			"MIME-Version: 1.0",
			"Content-Type: "+mmaContentType,
		)
	} else {
		headers = append(headers, "Content-type: "+SOAPMIMEType)
	}

	var action string
	if r.action != nil {
		action = *r.action
	}
	headers = append(headers,
		`SOAPAction: "`+action+`"`,
		"Content-length: "+strconv.Itoa(len(contents)),
	)

	if r.auth != nil {
		token := base64.StdEncoding.EncodeToString([]byte(r.auth.Login + ":" + r.auth.Password))
		headers = append(headers, "Authorization: Basic "+token)
	}

	return headers, nil
}

// Contents returns the request body: the envelope as is when there are no
// attachments, a multipart/related body otherwise.
func (r *Request) Contents() ([]byte, error) {
	if len(r.attachments) == 0 {
		return r.xml, nil
	}

	var buf bytes.Buffer
	writeLines(&buf,
		"--"+Boundary,
		"Content-Type: "+SOAPMIMEType,
		"Content-ID: "+MainEnvelopeID,
		"",
	)
	buf.Write(r.xml)
	buf.WriteString(crlf)

	for _, a := range r.attachments {
		data, err := a.Contents()
		if err != nil {
			return nil, err
		}
		writeLines(&buf,
			"--"+Boundary,
			"Content-Type: "+a.MimeType(),
			"Content-ID: "+a.ContentID(),
			"Content-Transfer-Encoding: base64",
			"",
			base64.StdEncoding.EncodeToString(data),
		)
	}
	buf.WriteString("--" + Boundary + "--")

	return buf.Bytes(), nil
}

func writeLines(buf *bytes.Buffer, lines ...string) {
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteString(crlf)
	}
}
