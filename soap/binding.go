package soap

import (
	"context"
	"crypto/rsa"
	"encoding/xml"
	"errors"
	"fmt"
	"sync"

	"github.com/cheyinl/dependable-soap/wsdl"
)

// Version is the SOAP protocol version of a call.
type Version int

const (
	SOAP11 Version = iota + 1
	SOAP12
)

// EnvelopeNamespace returns the envelope namespace of v.
func (v Version) EnvelopeNamespace() string {
	if v == SOAP12 {
		return XmlNsSoap12Env
	}
	return XmlNsSoapEnv
}

func (v Version) String() string {
	if v == SOAP12 {
		return "1.2"
	}
	return "1.1"
}

// Invocation is one call as seen by a Binding.
type Invocation struct {
	Operation string
	Args      interface{}
	Headers   []interface{}

	// Location and Action are empty unless the caller set them; the binding
	// fills them from what it knows about the service.
	Location string
	Action   string
	Version  Version
	OneWay   bool

	// Reply, when set, is the pointer the reply element is decoded into.
	Reply interface{}
	// FaultDetail, when set, receives the detail of a remote fault.
	FaultDetail FaultError

	// Options are opaque binding options set with WithOption.
	Options map[string]interface{}
}

// SendFunc performs the raw exchange of one call. It returns a nil body and
// a nil error when the transport failed (the client has already logged the
// failure and flagged its status) and for one-way calls.
type SendFunc func(ctx context.Context, body []byte, location, action string, version Version, oneWay bool) ([]byte, error)

// Binding turns invocations into envelopes and replies into results. A
// binding returning a nil result and a nil error tells the client that no
// answer was produced.
type Binding interface {
	Invoke(ctx context.Context, inv *Invocation, send SendFunc) (interface{}, error)
}

// WSDLLoader is implemented by bindings that read the preloaded WSDL.
type WSDLLoader interface {
	LoadWSDL(path string) error
}

// ErrNoEndpoint is returned when a call has no location to be sent to.
var ErrNoEndpoint = errors.New("soap: no endpoint")

// EnvelopeBinding is the default Binding: call arguments are marshalled with
// encoding/xml as the single body element of the envelope and the reply
// element is unmarshalled into Invocation.Reply.
type EnvelopeBinding struct {
	mu       sync.RWMutex
	endpoint string
	actions  map[string]string

	wssPrivateKey  *rsa.PrivateKey
	wssCertBlobB64 string
}

// NewEnvelopeBinding creates a binding without service knowledge: calls need
// a location until LoadWSDL is called.
func NewEnvelopeBinding() *EnvelopeBinding {
	return &EnvelopeBinding{actions: map[string]string{}}
}

// SetWSSHeaderSigningKey makes the binding sign every envelope body.
func (b *EnvelopeBinding) SetWSSHeaderSigningKey(wssPrivateKey *rsa.PrivateKey, wssCertBlobBase64 string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wssPrivateKey = wssPrivateKey
	b.wssCertBlobB64 = wssCertBlobBase64
}

// LoadWSDL learns the service address and the SOAP action of each operation.
func (b *EnvelopeBinding) LoadWSDL(path string) error {
	summary, err := wsdl.SummarizeFile(path)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.endpoint = summary.Location()
	for _, op := range summary.Operations {
		b.actions[op.Name] = op.Action
	}
	return nil
}

// Endpoint returns the address learned from the WSDL.
func (b *EnvelopeBinding) Endpoint() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.endpoint
}

func (b *EnvelopeBinding) Invoke(ctx context.Context, inv *Invocation, send SendFunc) (interface{}, error) {
	b.mu.RLock()
	location, action := inv.Location, inv.Action
	if location == "" {
		location = b.endpoint
	}
	if action == "" {
		action = b.actions[inv.Operation]
	}
	key, cert := b.wssPrivateKey, b.wssCertBlobB64
	b.mu.RUnlock()

	if location == "" {
		return nil, fmt.Errorf("%w for %s", ErrNoEndpoint, inv.Operation)
	}

	reqBody, err := b.marshal(inv, key, cert)
	if err != nil {
		return nil, err
	}

	respBody, err := send(ctx, reqBody, location, action, inv.Version, inv.OneWay)
	if err != nil || respBody == nil {
		return nil, err
	}

	return b.unmarshal(inv, respBody)
}

func (b *EnvelopeBinding) marshal(inv *Invocation, key *rsa.PrivateKey, cert string) ([]byte, error) {
	version := inv.Version
	if version == 0 {
		version = SOAP11
	}
	envelope := SOAPEnvelope{
		XmlNS: version.EnvelopeNamespace(),
	}

	switch args := inv.Args.(type) {
	case RawXML:
		envelope.Body.Inner = args
	case nil:
		envelope.Body.Content = &struct{ XMLName xml.Name }{XMLName: xml.Name{Local: inv.Operation}}
	default:
		envelope.Body.Content = args
	}

	headers := inv.Headers
	if key != nil {
		secHeader, err := signBody(&envelope, key, cert)
		if err != nil {
			return nil, err
		}
		headers = append([]interface{}{secHeader}, headers...)
	}
	if len(headers) > 0 {
		envelope.Header = &SOAPHeader{Headers: headers}
	}

	reqBody, err := xml.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("marshal envelop failed: %w", err)
	}
	return reqBody, nil
}

func (b *EnvelopeBinding) unmarshal(inv *Invocation, respBody []byte) (interface{}, error) {
	var raw *RawReply
	content := inv.Reply
	if content == nil {
		raw = &RawReply{}
		content = raw
	}

	respEnvelope := new(SOAPEnvelopeResponse)
	respEnvelope.Body = SOAPBodyResponse{
		Content: content,
		Fault: &Fault{
			Detail: inv.FaultDetail,
		},
	}
	if err := xml.Unmarshal(respBody, respEnvelope); err != nil {
		return nil, fmt.Errorf("cannot decode: %w", err)
	}
	if err := respEnvelope.Body.ErrorFromFault(); err != nil {
		return nil, err
	}

	if raw != nil {
		return raw, nil
	}
	return inv.Reply, nil
}
