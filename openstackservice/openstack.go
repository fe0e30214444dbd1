// Mockstack composition root: one Openstack control-plane double made
// of the Keystone, Swift and Cinder doubles, bound to a single mux.

package openstackservice

import (
	"net/http"

	"github.com/juju/loggo"

	"github.com/go-mockstack/mockstack/cinderservice"
	"github.com/go-mockstack/mockstack/identityservice"
	"github.com/go-mockstack/mockstack/swiftservice"
)

var logger = loggo.GetLogger("mockstack.openstackservice")

// Openstack provides an Openstack control-plane double.
type Openstack struct {
	Identity *identityservice.IdentityModel
	Swift    *swiftservice.Swift
	Cinder   *cinderservice.Cinder
}

// identityProvider registers the identity service itself in its own
// catalog.
type identityProvider struct{}

func (identityProvider) Endpoints() []identityservice.EndpointTemplate {
	return []identityservice.EndpointTemplate{{
		Region:    "mock",
		VersionId: "2.0",
		Urls: map[string]string{
			"publicURL": "https://{0}/v2.0",
			"adminURL":  "https://{0}/v2.0",
		},
	}}
}

// New creates a full control-plane double. baseHost is substituted
// into every catalog URL template; empty means the default host.
func New(baseHost string) *Openstack {
	identity := identityservice.NewIdentityModel(baseHost)
	openstack := &Openstack{
		Identity: identity,
		Swift:    swiftservice.New(identity.BaseHost(), identity),
		Cinder:   cinderservice.New(identity),
	}
	identity.RegisterServiceProvider("identity", "identity", identityProvider{})
	identity.RegisterServiceProvider("swift", "object-store", openstack.Swift)
	identity.RegisterServiceProvider("volume", "volume", openstack.Cinder)
	logger.Debugf("control-plane double assembled for host %q", identity.BaseHost())
	return openstack
}

// SetupHTTP attaches all the needed handlers to provide the HTTP API
// for the Openstack double.
func (openstack *Openstack) SetupHTTP(mux *http.ServeMux) {
	openstack.Identity.SetupHTTP(mux)
	openstack.Swift.SetupHTTP(mux)
	openstack.Cinder.SetupHTTP(mux)
}
