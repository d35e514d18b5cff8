package soap

import (
	_ "embed"
	"encoding/xml"
	"strings"
)

//go:embed trainBookingService.wsdl
var wsdl string

// WSDL returns the service description with its port bound to endpoint.
func WSDL(endpoint string) string {
	var escaped strings.Builder
	_ = xml.EscapeText(&escaped, []byte(endpoint))
	return strings.ReplaceAll(wsdl, "{{ENDPOINT}}", escaped.String())
}
