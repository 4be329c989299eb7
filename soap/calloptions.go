package soap

// CallOption sets an option of a single call.
type CallOption func(*callOptions)

type callOptions struct {
	debug       *DebugLevel
	location    string
	action      string
	headers     []interface{}
	oneWay      bool
	reply       interface{}
	faultDetail FaultError
	options     map[string]interface{}
}

// WithCallDebug overrides the client debug level for this call only.
func WithCallDebug(level DebugLevel) CallOption {
	return func(o *callOptions) {
		o.debug = &level
	}
}

// WithLocation sends this call to url instead of the client endpoint.
func WithLocation(url string) CallOption {
	return func(o *callOptions) {
		o.location = url
	}
}

// WithAction sets the SOAPAction of this call.
func WithAction(action string) CallOption {
	return func(o *callOptions) {
		o.action = action
	}
}

// WithHeaders adds envelope headers. Every header must marshal to an element,
// give it an XMLName field. They are dropped when the client sends a
// WS-Security UsernameToken.
func WithHeaders(headers ...interface{}) CallOption {
	return func(o *callOptions) {
		o.headers = append(o.headers, headers...)
	}
}

// WithOneWay sends the call without waiting for a reply envelope.
func WithOneWay() CallOption {
	return func(o *callOptions) {
		o.oneWay = true
	}
}

// WithReply sets the pointer the reply element is decoded into.
func WithReply(reply interface{}) CallOption {
	return func(o *callOptions) {
		o.reply = reply
	}
}

// WithFaultDetail sets the value a remote fault detail is decoded into.
func WithFaultDetail(detail FaultError) CallOption {
	return func(o *callOptions) {
		o.faultDetail = detail
	}
}

// WithOption passes an opaque option to the binding.
func WithOption(key string, value interface{}) CallOption {
	return func(o *callOptions) {
		if o.options == nil {
			o.options = map[string]interface{}{}
		}
		o.options[key] = value
	}
}
