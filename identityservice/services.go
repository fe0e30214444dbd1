package identityservice

import (
	"fmt"
	"strings"
)

// Service is one row of the service registry.
type Service struct {
	Id   int
	Name string
	Type string
}

// Endpoint is one regional endpoint of a service.
type Endpoint struct {
	Id          int
	ServiceId   int
	Region      string
	VersionInfo string
	VersionList string
	VersionId   string
}

// EndpointUrl is one named URL of an endpoint. Url is a template
// containing a single {0} placeholder for the base host.
type EndpointUrl struct {
	Id         int
	EndpointId int
	Name       string
	Url        string
}

// ServiceRegistry holds the three catalog tables: services, endpoints
// and endpoint URLs. A service with no endpoints and an endpoint with
// no URLs are both legal.
type ServiceRegistry struct {
	nextServiceId  int
	nextEndpointId int
	nextUrlId      int
	services       []Service
	endpoints      []Endpoint
	urls           []EndpointUrl
}

func newServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{}
}

// AddService creates a service row and returns its id.
func (s *ServiceRegistry) AddService(name, serviceType string) int {
	s.nextServiceId++
	s.services = append(s.services, Service{
		Id:   s.nextServiceId,
		Name: name,
		Type: serviceType,
	})
	return s.nextServiceId
}

// AddEndpoint creates an endpoint row under the given service.
func (s *ServiceRegistry) AddEndpoint(serviceId int, region, versionInfo, versionList, versionId string) (int, error) {
	if !s.hasService(serviceId) {
		return 0, fmt.Errorf("no service with id %d", serviceId)
	}
	s.nextEndpointId++
	s.endpoints = append(s.endpoints, Endpoint{
		Id:          s.nextEndpointId,
		ServiceId:   serviceId,
		Region:      region,
		VersionInfo: versionInfo,
		VersionList: versionList,
		VersionId:   versionId,
	})
	return s.nextEndpointId, nil
}

// AddEndpointUrl creates a named URL template under the given endpoint.
func (s *ServiceRegistry) AddEndpointUrl(endpointId int, name, url string) (int, error) {
	if !s.hasEndpoint(endpointId) {
		return 0, fmt.Errorf("no endpoint with id %d", endpointId)
	}
	s.nextUrlId++
	s.urls = append(s.urls, EndpointUrl{
		Id:         s.nextUrlId,
		EndpointId: endpointId,
		Name:       name,
		Url:        url,
	})
	return s.nextUrlId, nil
}

func (s *ServiceRegistry) hasService(serviceId int) bool {
	for i := range s.services {
		if s.services[i].Id == serviceId {
			return true
		}
	}
	return false
}

func (s *ServiceRegistry) hasEndpoint(endpointId int) bool {
	for i := range s.endpoints {
		if s.endpoints[i].Id == endpointId {
			return true
		}
	}
	return false
}

// Services returns all registered services in registration order.
func (s *ServiceRegistry) Services() []Service {
	all := make([]Service, len(s.services))
	copy(all, s.services)
	return all
}

// EndpointsFor returns the endpoints of the given service.
func (s *ServiceRegistry) EndpointsFor(serviceId int) []Endpoint {
	var all []Endpoint
	for i := range s.endpoints {
		if s.endpoints[i].ServiceId == serviceId {
			all = append(all, s.endpoints[i])
		}
	}
	return all
}

// UrlsFor returns the named URL templates of the given endpoint.
func (s *ServiceRegistry) UrlsFor(endpointId int) []EndpointUrl {
	var all []EndpointUrl
	for i := range s.urls {
		if s.urls[i].EndpointId == endpointId {
			all = append(all, s.urls[i])
		}
	}
	return all
}

// renderUrl substitutes the base host into a URL template's {0}
// placeholder.
func renderUrl(template, baseHost string) string {
	return strings.Replace(template, "{0}", baseHost, -1)
}
