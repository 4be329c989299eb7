package soap

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"
	"fmt"

	"github.com/ucarion/c14n"
)

const (
	algExcC14N    = "http://www.w3.org/2001/10/xml-exc-c14n#"
	algRSASHA256  = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	algDigestSHA2 = "http://www.w3.org/2001/04/xmlenc#sha256"
)

type algorithm struct {
	Algorithm string `xml:"Algorithm,attr"`
}

type inclusiveNamespaces struct {
	XMLName    xml.Name `xml:"http://www.w3.org/2001/10/xml-exc-c14n# InclusiveNamespaces"`
	PrefixList string   `xml:"PrefixList,attr"`
}

type canonicalizationMethod struct {
	XMLName             xml.Name `xml:"CanonicalizationMethod"`
	Algorithm           string   `xml:"Algorithm,attr"`
	InclusiveNamespaces inclusiveNamespaces
}

type signatureReference struct {
	XMLName    xml.Name `xml:"Reference"`
	URI        string   `xml:"URI,attr"`
	Transforms struct {
		Transform algorithm `xml:"Transform"`
	} `xml:"Transforms"`
	DigestMethod algorithm `xml:"DigestMethod"`
	DigestValue  string    `xml:"DigestValue"`
}

type signedInfo struct {
	XMLName xml.Name `xml:"SignedInfo"`
	XMLNS   string   `xml:"xmlns,attr"`

	CanonicalizationMethod canonicalizationMethod
	SignatureMethod        algorithm `xml:"SignatureMethod"`
	Reference              signatureReference
}

type binarySecurityToken struct {
	XMLName xml.Name `xml:"wsse:BinarySecurityToken"`
	XMLNS   string   `xml:"xmlns:wsu,attr"`

	WsuID        string `xml:"wsu:Id,attr"`
	EncodingType string `xml:"EncodingType,attr"`
	ValueType    string `xml:"ValueType,attr"`

	Value string `xml:",chardata"`
}

type securityTokenReference struct {
	XMLName xml.Name `xml:"wsse:SecurityTokenReference"`
	XMLNS   string   `xml:"xmlns:wsu,attr"`
	StrID   string   `xml:"wsu:Id,attr"`

	Reference struct {
		XMLName   xml.Name `xml:"wsse:Reference"`
		ValueType string   `xml:"ValueType,attr"`
		URI       string   `xml:"URI,attr"`
	}
}

type signature struct {
	XMLName xml.Name `xml:"Signature"`
	XMLNS   string   `xml:"xmlns,attr"`

	SignedInfo     signedInfo
	SignatureValue string `xml:"SignatureValue"`
	KeyInfo        struct {
		XMLName                xml.Name `xml:"KeyInfo"`
		KeyInfoID              string   `xml:"Id,attr"`
		SecurityTokenReference securityTokenReference
	}
}

// x509SecurityHeader is a wsse:Security header holding the signing
// certificate and an RSA-SHA256 signature over the envelope body.
type x509SecurityHeader struct {
	XMLName xml.Name `xml:"wsse:Security"`
	XMLNS   string   `xml:"xmlns:wsse,attr"`

	SOAPMustUnderstand int `xml:"SOAP-ENV:mustUnderstand,attr"`

	BinarySecurityToken binarySecurityToken
	Signature           signature
}

func canonicalize(v interface{}) ([]byte, error) {
	buf, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return c14n.Canonicalize(xml.NewDecoder(bytes.NewReader(buf)))
}

// signBody gives the envelope body a wsu:Id and returns the header signing
// it with key. certBlobB64 is the base64 DER certificate matching key.
func signBody(envelope *SOAPEnvelope, key *rsa.PrivateKey, certBlobB64 string) (*x509SecurityHeader, error) {
	bodyRefID := makeSecureID("B-")
	envelope.Body.XMLNSWsu = WssNsWSU
	envelope.Body.ID = bodyRefID

	envelope.Body.XMLNSEnv = envelope.XmlNS
	body, err := canonicalize(&envelope.Body)
	envelope.Body.XMLNSEnv = ""
	if err != nil {
		return nil, fmt.Errorf("canonicalize body: %w", err)
	}
	bodyDigest := sha256.Sum256(body)

	info := signedInfo{
		XMLNS: NsXMLDSig,
		CanonicalizationMethod: canonicalizationMethod{
			Algorithm: algExcC14N,
			InclusiveNamespaces: inclusiveNamespaces{
				PrefixList: "SOAP-ENV",
			},
		},
		SignatureMethod: algorithm{Algorithm: algRSASHA256},
		Reference: signatureReference{
			URI:          "#" + bodyRefID,
			DigestMethod: algorithm{Algorithm: algDigestSHA2},
			DigestValue:  base64.StdEncoding.EncodeToString(bodyDigest[:]),
		},
	}
	info.Reference.Transforms.Transform.Algorithm = algExcC14N

	canonInfo, err := canonicalize(info)
	if err != nil {
		return nil, fmt.Errorf("canonicalize signed info: %w", err)
	}
	infoDigest := sha256.Sum256(canonInfo)
	sigValue, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, infoDigest[:])
	if err != nil {
		return nil, fmt.Errorf("sign body: %w", err)
	}

	certRefID := makeSecureID("X509CERT-")
	hdr := &x509SecurityHeader{
		XMLNS:              WssNsWSSE,
		SOAPMustUnderstand: 1,
		BinarySecurityToken: binarySecurityToken{
			XMLNS:        WssNsWSU,
			WsuID:        certRefID,
			EncodingType: WssEncodeTypeBase64,
			ValueType:    WssValueTypeX509v3,
			Value:        certBlobB64,
		},
	}
	hdr.Signature.XMLNS = NsXMLDSig
	hdr.Signature.SignedInfo = info
	hdr.Signature.SignatureValue = base64.StdEncoding.EncodeToString(sigValue)
	hdr.Signature.KeyInfo.KeyInfoID = makeSecureID("KINF-")
	ref := &hdr.Signature.KeyInfo.SecurityTokenReference
	ref.XMLNS = WssNsWSU
	ref.StrID = makeSecureID("SECTOK-")
	ref.Reference.ValueType = WssValueTypeX509v3
	ref.Reference.URI = "#" + certRefID

	return hdr, nil
}
