package registry

import (
	consulapi "github.com/hashicorp/consul/api"
)

// ServiceRegistry defines service registration and discovery, so other
// internal services can locate this backend without hardcoded addresses.
type ServiceRegistry interface {
	// Register announces a service instance under a unique id with an
	// attached health check.
	Register(id, name, address string, port int, tags []string, check *consulapi.AgentServiceCheck) error

	// Deregister removes a service instance using its unique id.
	Deregister(id string) error

	// Discover finds healthy instances of a service by name and optional
	// tag, returned as "host:port" strings.
	Discover(name string, tag string) ([]string, error)
}
