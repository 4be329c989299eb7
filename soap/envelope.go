package soap

import (
	"encoding/xml"
)

const (
	XmlNsSoapEnv   string = "http://schemas.xmlsoap.org/soap/envelope/"
	XmlNsSoap12Env string = "http://www.w3.org/2003/05/soap-envelope"
)

type SOAPEnvelope struct {
	XMLName xml.Name `xml:"SOAP-ENV:Envelope"`
	XmlNS   string   `xml:"xmlns:SOAP-ENV,attr"`

	Header *SOAPHeader
	Body   SOAPBody
}

type SOAPHeader struct {
	XMLName xml.Name `xml:"SOAP-ENV:Header"`

	Headers []interface{}
}

type SOAPBody struct {
	XMLName xml.Name `xml:"SOAP-ENV:Body"`

	// XMLNSEnv is only set while the body is canonicalized for signing: the
	// envelope prefix must be in scope of the digested element.
	XMLNSEnv string `xml:"xmlns:SOAP-ENV,attr,omitempty"`
	// XMLNSWsu is the SOAP WS-Security utility namespace.
	XMLNSWsu string `xml:"xmlns:wsu,attr,omitempty"`
	// ID is a body ID used during WS-Security signing.
	ID string `xml:"wsu:Id,attr,omitempty"`

	Content interface{} `xml:",omitempty"`
	// Inner is written verbatim, it carries RawXML arguments.
	Inner []byte `xml:",innerxml"`
}

// RawXML is an already serialized body element. Passed as call arguments it
// is written into the envelope body unchanged.
type RawXML []byte

// RawReply is the result of a call made without a reply target: the
// element found in the response body.
type RawReply struct {
	XMLName  xml.Name
	InnerXML string `xml:",innerxml"`
}

type SOAPEnvelopeResponse struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    SOAPBodyResponse
}

type SOAPBodyResponse struct {
	XMLName xml.Name `xml:"Body"`

	Content interface{} `xml:",omitempty"`

	// faultOccurred indicates whether the XML body included a fault;
	// we cannot simply store Fault as a pointer to indicate this, since
	// fault is initialized to non-nil with user-provided detail type.
	faultOccurred bool
	Fault         *Fault `xml:",omitempty"`
}

// soap12Fault is the SOAP 1.2 layout of a fault, folded into Fault.
type soap12Fault struct {
	Code struct {
		Value string `xml:"Value"`
	} `xml:"Code"`
	Reason struct {
		Text string `xml:"Text"`
	} `xml:"Reason"`
	Node string `xml:"Node"`
}

// UnmarshalXML unmarshals SOAPBody xml
func (b *SOAPBodyResponse) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	if b.Content == nil {
		return xml.UnmarshalError("Content must be a pointer to a struct")
	}

	var (
		token    xml.Token
		err      error
		consumed bool
	)

Loop:
	for {
		if token, err = d.Token(); err != nil {
			return err
		}

		if token == nil {
			break
		}

		switch se := token.(type) {
		case xml.StartElement:
			if consumed {
				return xml.UnmarshalError("Found multiple elements inside SOAP body; not wrapped-document/literal WS-I compliant")
			} else if se.Name.Space == XmlNsSoapEnv && se.Name.Local == "Fault" {
				b.Content = nil

				b.faultOccurred = true
				if err = d.DecodeElement(b.Fault, &se); err != nil {
					return err
				}

				consumed = true
			} else if se.Name.Space == XmlNsSoap12Env && se.Name.Local == "Fault" {
				b.Content = nil

				b.faultOccurred = true
				var f soap12Fault
				if err = d.DecodeElement(&f, &se); err != nil {
					return err
				}
				b.Fault.Code = f.Code.Value
				b.Fault.String = f.Reason.Text
				b.Fault.Actor = f.Node

				consumed = true
			} else {
				if err = d.DecodeElement(b.Content, &se); err != nil {
					return err
				}

				consumed = true
			}
		case xml.EndElement:
			break Loop
		}
	}

	return nil
}

func (b *SOAPBodyResponse) ErrorFromFault() error {
	if b.faultOccurred {
		return b.Fault
	}
	b.Fault = nil
	return nil
}
