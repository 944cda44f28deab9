// Package adjvalet is a client and editor for ADJ configurations.
//
// # Overview
//
// An ADJ describes a pod deployment: global general info sections (ports,
// addresses, units, message ids) and a set of boards, each with its
// measurements and packets. The ADJ backend assembles an ADJ directory into
// one JSON document and writes an edited document back.
//
// ADJ Valet locates the backend, loads the assembled document, applies
// structural edits locally with consistency checks, validates the result
// and saves it.
//
// # Architecture
//
//	┌─────────────────┐
//	│   adjvalet CLI  │
//	│  (Cobra/Viper)  │
//	└────────┬────────┘
//	         │
//	┌────────▼────────┐       ┌─────────────────┐
//	│  Config Store   │◄──────┤  Edit Reducers  │
//	│ (session state) │       │  (pure, copy)   │
//	└────────┬────────┘       └─────────────────┘
//	         │
//	┌────────▼────────┐       ┌─────────────────┐
//	│ Backend Client  │──────►│  ADJ Backend    │
//	│  (discovery)    │       │  (or mock, Echo)│
//	└─────────────────┘       └─────────────────┘
//
// # Core Features
//
// Backend client:
//   - Discovery through a published discovery document, a port scan, or a
//     default address
//   - One retry after rediscovery when the connection fails
//   - Typed connection, timeout and HTTP errors
//
// Config store:
//   - Single source of truth for the loaded document and session status
//   - Load and save run one at a time; reset discards requests in flight
//   - Missing packet ids are assigned and the document validated before save
//   - Path and document snapshot survive restarts
//
// Editing:
//   - Boards, measurements, packets and general info fields
//   - Renaming a measurement rewrites the packet variables that use it
//   - Duplicate names and ids are rejected before anything changes
//
// # Usage
//
// Start the in-memory backend:
//
//	adjvalet mock-backend
//
// Load, edit and save:
//
//	adjvalet load demo
//	adjvalet board add BMSL --ip 192.168.1.7
//	adjvalet measurement add BMSL voltage --pod-units V --display-units V
//	adjvalet packet add BMSL --name bmsl_data --vars voltage
//	adjvalet save
//
// # Configuration
//
// Configuration can be provided via:
//   - YAML file (adjvalet.yaml)
//   - Environment variables (ADJ_ prefix)
//   - .env file
//   - Command line flags
//
// Example configuration:
//
//	backend:
//	  discovery_url: .adj-valet-port
//	  port_start: 8000
//	  port_count: 20
//	cache:
//	  snapshot: true
//	logging:
//	  level: info
//
// # Backend API
//
//   - GET  /health     - Liveness probe
//   - POST /path       - Set the active ADJ directory
//   - GET  /assemble   - Fetch the assembled document
//   - POST /update     - Replace the document, returns the stored copy
//
// # Development
//
// Run tests:
//
//	go test ./...
//
// Build the binary:
//
//	go build -o adjvalet ./cmd/adjvalet
//
// # Technology Stack
//
//   - Go 1.25+
//   - Cobra and Viper (CLI and configuration)
//   - Echo v4 (mock backend)
//   - go-playground/validator (document validation)
//   - log/slog (structured logging)
package adjvalet
