package mockbackend

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"evalgo.org/adjvalet/pkg/adjvalet/client"
)

// DiscoveryFileName is the file name the backend publishes its address in.
const DiscoveryFileName = ".adj-valet-port"

// WriteDiscoveryFile publishes the running server's address at path so
// clients can find it.
func (s *Server) WriteDiscoveryFile(path string) error {
	if s.URL() == "" {
		return fmt.Errorf("server is not listening")
	}

	data, err := json.MarshalIndent(client.DiscoveryDocument{
		BackendPort: s.Port(),
		BackendURL:  s.URL(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode discovery document: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write discovery document: %w", err)
	}
	s.logger.Info("discovery document written", "path", path)
	return nil
}
