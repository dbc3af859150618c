package offline

import "net/http"

// Transport is an http.RoundTripper that routes requests through a
// Controller once it has been activated. Before activation requests go
// straight to Base.
type Transport struct {
	Controller *Controller

	// Base performs live requests. Nil means http.DefaultTransport.
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Controller == nil || !t.Controller.Active() {
		return base.RoundTrip(req)
	}
	return t.Controller.Respond(req, base.RoundTrip, t.Controller.Store)
}

// NewHTTPClient returns an http.Client whose transport is routed through c.
func NewHTTPClient(c *Controller, base http.RoundTripper) *http.Client {
	return &http.Client{Transport: &Transport{Controller: c, Base: base}}
}
