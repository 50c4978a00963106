// Package consul resolves backend services through a Consul catalog.
package consul

import (
	"fmt"

	consulapi "github.com/hashicorp/consul/api"
)

// GetServiceAddress returns the address and port of a passing instance of
// the named service.
func GetServiceAddress(client *consulapi.Client, serviceName string) (string, int, error) {
	entries, _, err := client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return "", 0, fmt.Errorf("querying consul for %s: %w", serviceName, err)
	}
	if len(entries) == 0 {
		return "", 0, fmt.Errorf("no healthy instances of %s registered", serviceName)
	}
	svc := entries[0].Service
	address := svc.Address
	if address == "" {
		address = entries[0].Node.Address
	}
	return address, svc.Port, nil
}
