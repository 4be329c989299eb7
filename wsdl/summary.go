package wsdl

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/beevik/etree"
)

// Operation is an operation of a port type with the SOAP action its binding
// declares.
type Operation struct {
	Name   string
	Action string
}

// Endpoint is a service port and its address.
type Endpoint struct {
	Service  string
	Port     string
	Location string
}

// Summary is the part of a WSDL document a client cares about.
type Summary struct {
	Name            string
	TargetNamespace string
	Operations      []Operation
	Types           []string
	Endpoints       []Endpoint
	SchemaLocations []string
}

// Summarize reads a WSDL document.
func Summarize(data []byte) (*Summary, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("wsdl: parse: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "definitions" {
		return nil, errors.New("wsdl: no definitions element")
	}

	s := &Summary{
		Name:            root.SelectAttrValue("name", ""),
		TargetNamespace: root.SelectAttrValue("targetNamespace", ""),
	}

	actions := map[string]string{}
	for _, op := range root.FindElements("binding/operation") {
		if soapOp := op.FindElement("operation"); soapOp != nil {
			actions[op.SelectAttrValue("name", "")] = soapOp.SelectAttrValue("soapAction", "")
		}
	}

	seen := map[string]bool{}
	for _, op := range root.FindElements("portType/operation") {
		name := op.SelectAttrValue("name", "")
		if seen[name] {
			continue
		}
		seen[name] = true
		s.Operations = append(s.Operations, Operation{Name: name, Action: actions[name]})
	}

	for _, t := range root.FindElements("types/schema/*") {
		if name := t.SelectAttrValue("name", ""); name != "" {
			s.Types = append(s.Types, t.Tag+" "+name)
		}
	}

	for _, svc := range root.FindElements("service") {
		for _, port := range svc.FindElements("port") {
			ep := Endpoint{
				Service: svc.SelectAttrValue("name", ""),
				Port:    port.SelectAttrValue("name", ""),
			}
			if addr := port.FindElement("address"); addr != nil {
				ep.Location = addr.SelectAttrValue("location", "")
			}
			s.Endpoints = append(s.Endpoints, ep)
		}
	}

	for _, imp := range root.FindElements("//*[@schemaLocation]") {
		s.SchemaLocations = append(s.SchemaLocations, imp.SelectAttrValue("schemaLocation", ""))
	}

	return s, nil
}

// SummarizeFile reads the WSDL document at path.
func SummarizeFile(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wsdl: %w", err)
	}
	return Summarize(data)
}

// Action returns the SOAP action of an operation, empty when unknown.
func (s *Summary) Action(operation string) string {
	for _, op := range s.Operations {
		if op.Name == operation {
			return op.Action
		}
	}
	return ""
}

// Location returns the address of the first port, empty when none is
// published.
func (s *Summary) Location() string {
	for _, ep := range s.Endpoints {
		if ep.Location != "" {
			return ep.Location
		}
	}
	return ""
}

func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Service %s (%s)\n", s.Name, s.TargetNamespace)
	b.WriteString("Functions:\n")
	for _, op := range s.Operations {
		fmt.Fprintf(&b, "  %s [%s]\n", op.Name, op.Action)
	}
	b.WriteString("Types:\n")
	for _, t := range s.Types {
		fmt.Fprintf(&b, "  %s\n", t)
	}
	return b.String()
}
