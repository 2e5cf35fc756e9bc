package consul

import (
	"errors"
	"fmt"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"
)

func NewClient(addr string) (*consulapi.Client, error) {
	cfg := consulapi.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return client, nil
}

// RegisterService registers the HTTP endpoint with an HTTP health check on /ping.
// It returns the id used for the registration.
func RegisterService(client *consulapi.Client, name, host string, port int) (string, error) {
	if client == nil {
		return "", errors.New("consul client is nil")
	}
	id := name + "-" + host + "-" + strconv.Itoa(port)
	reg := &consulapi.AgentServiceRegistration{
		ID:      id,
		Name:    name,
		Address: host,
		Port:    port,
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/ping", host, port),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	if err := client.Agent().ServiceRegister(reg); err != nil {
		return "", fmt.Errorf("failed to register %s: %w", name, err)
	}
	return id, nil
}

func DeregisterService(client *consulapi.Client, id string) error {
	if client == nil {
		return nil
	}
	if err := client.Agent().ServiceDeregister(id); err != nil {
		return fmt.Errorf("failed to deregister %s: %w", id, err)
	}
	return nil
}

// GetServiceAddress returns the address of the first healthy instance of service.
func GetServiceAddress(client *consulapi.Client, service string) (string, int, error) {
	entries, _, err := client.Health().Service(service, "", true, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to query %s: %w", service, err)
	}
	if len(entries) == 0 {
		return "", 0, fmt.Errorf("no healthy instance of %s", service)
	}
	svc := entries[0].Service
	return svc.Address, svc.Port, nil
}
