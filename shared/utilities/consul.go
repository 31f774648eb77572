package utilities

import (
	"fmt"

	capi "github.com/hashicorp/consul/api"
)

// RegisterWithConsul registers the service with the Consul agent at
// consulAddr using a gRPC health check against the given address and port.
func RegisterWithConsul(consulAddr, serviceID, serviceName, address string, grpcPort int) error {
	cfg := capi.DefaultConfig()
	if consulAddr != "" {
		cfg.Address = consulAddr
	}

	client, err := capi.NewClient(cfg)
	if err != nil {
		return err
	}

	registration := &capi.AgentServiceRegistration{
		ID:      serviceID,
		Name:    serviceName,
		Address: address,
		Port:    grpcPort,
		Check: &capi.AgentServiceCheck{
			GRPC:                           fmt.Sprintf("%s:%d", address, grpcPort),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	return client.Agent().ServiceRegister(registration)
}
