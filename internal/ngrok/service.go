package ngrok

import (
	"context"
	"fmt"
	"log"
	"os"

	"moodtune/internal/config"

	"github.com/joho/godotenv"
	"golang.ngrok.com/ngrok/v2"
)

// Service exposes the local server through an ngrok tunnel so the mobile
// client can reach it without port forwarding.
type Service struct {
	config *config.NgrokConfig
	agent  ngrok.Agent
	tunnel ngrok.EndpointForwarder
}

// NewService creates a new ngrok service instance. Returns nil when tunneling
// is disabled in the configuration.
func NewService(cfg *config.NgrokConfig) (*Service, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	// Load .env file if it exists (for auth token)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: Could not load .env file: %v", err)
		}
	}

	authToken := cfg.AuthToken
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTHTOKEN")
	}

	if authToken == "" {
		return nil, fmt.Errorf("ngrok auth token not found. Set NGROK_AUTHTOKEN in .env file or config")
	}

	agent, err := ngrok.NewAgent(ngrok.WithAuthtoken(authToken))
	if err != nil {
		return nil, fmt.Errorf("failed to create ngrok agent: %v", err)
	}

	return &Service{
		config: cfg,
		agent:  agent,
	}, nil
}

// StartTunnel starts forwarding public traffic to the local address.
func (s *Service) StartTunnel(ctx context.Context, localAddress string) error {
	if s == nil {
		return nil // Service is disabled
	}

	var endpointOpts []ngrok.EndpointOption
	if s.config.Domain != "" {
		endpointOpts = append(endpointOpts, ngrok.WithURL(s.config.Domain))
	}

	tunnel, err := s.agent.Forward(ctx, ngrok.WithUpstream(localAddress), endpointOpts...)
	if err != nil {
		return fmt.Errorf("failed to create ngrok tunnel: %v", err)
	}

	s.tunnel = tunnel

	log.Printf("Ngrok tunnel active: %s -> %s", tunnel.URL().String(), localAddress)
	return nil
}

// GetPublicURL returns the public URL of the tunnel.
func (s *Service) GetPublicURL() string {
	if s == nil || s.tunnel == nil {
		return ""
	}
	return s.tunnel.URL().String()
}

// Stop stops the ngrok tunnel.
func (s *Service) Stop() error {
	if s == nil || s.tunnel == nil {
		return nil
	}
	return s.tunnel.Close()
}

// Wait blocks until the tunnel closes.
func (s *Service) Wait() {
	if s == nil || s.tunnel == nil {
		return
	}
	<-s.tunnel.Done()
}
