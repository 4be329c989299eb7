package soap

import (
	"encoding/xml"
)

const (
	// Predefined WSS namespaces to be used in
	WssNsWSSE           string = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
	WssNsWSU            string = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd"
	WssNsType           string = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordText"
	WssEncodeTypeBase64        = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-soap-message-security-1.0#Base64Binary"
	WssValueTypeX509v3         = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-x509-token-profile-1.0#X509v3"
	NsXMLDSig                  = "http://www.w3.org/2000/09/xmldsig#"
	NsXMLExcC14N               = "http://www.w3.org/2001/10/xml-exc-c14n#"
)

// WSSSecurityHeader is a wsse:Security header carrying a UsernameToken.
type WSSSecurityHeader struct {
	XMLName   xml.Name `xml:"wsse:Security"`
	XmlNSWsse string   `xml:"xmlns:wsse,attr"`

	MustUnderstand string `xml:"SOAP-ENV:mustUnderstand,attr,omitempty"`

	Token *WSSUsernameToken `xml:",omitempty"`
}

type WSSUsernameToken struct {
	XMLName  xml.Name `xml:"wsse:UsernameToken"`
	XmlNSWsu string   `xml:"xmlns:wsu,attr,omitempty"`

	Id string `xml:"wsu:Id,attr,omitempty"`

	Username *WSSUsername `xml:",omitempty"`
	Password *WSSPassword `xml:",omitempty"`
}

type WSSUsername struct {
	XMLName xml.Name `xml:"wsse:Username"`

	Data string `xml:",chardata"`
}

type WSSPassword struct {
	XMLName   xml.Name `xml:"wsse:Password"`
	XmlNSType string   `xml:"Type,attr,omitempty"`

	Data string `xml:",chardata"`
}

// NewWSSSecurityHeader creates WSSSecurityHeader instance. An empty tokenID
// leaves the token without wsu:Id.
func NewWSSSecurityHeader(user, pass, tokenID, mustUnderstand string) *WSSSecurityHeader {
	hdr := &WSSSecurityHeader{XmlNSWsse: WssNsWSSE, MustUnderstand: mustUnderstand}
	hdr.Token = &WSSUsernameToken{Id: tokenID}
	if tokenID != "" {
		hdr.Token.XmlNSWsu = WssNsWSU
	}
	hdr.Token.Username = &WSSUsername{Data: user}
	hdr.Token.Password = &WSSPassword{XmlNSType: WssNsType, Data: pass}
	return hdr
}

// usernameTokenHeader is the header sent with every call of a client
// configured with SOAP credentials.
func usernameTokenHeader(auth *basicAuth) *WSSSecurityHeader {
	return NewWSSSecurityHeader(auth.Login, auth.Password, makeSecureID("UsernameToken-"), "1")
}
