// Package app holds the composition of the Hero Apps gateway.
//
// # Package Structure
//
//	internal/app/
//	├── domain/apps/        # App record, listing parameters, sentinel errors
//	├── storage/            # Storage interfaces
//	│   ├── interfaces.go   # AppStore, Pinger, Store
//	│   ├── memory/         # In-memory implementation for tests and local runs
//	│   └── mongodb/        # MongoDB implementation for production
//	├── services/apps/      # Listing and lookup over an AppStore
//	├── httpapi/            # gorilla/mux routes and handlers
//	├── monitor/            # Cron-scheduled storage health checks
//	├── metrics/            # Prometheus collectors and HTTP instrumentation
//	├── system/             # Service lifecycle manager and process stats
//	└── runtime/            # Application wiring and HTTP server lifecycle
//
// # Dependency Direction
//
//	cmd/heroapps/
//	      │
//	      ▼
//	internal/app/runtime (composition)
//	      │
//	      ├──► internal/app/httpapi ──► internal/app/services/apps
//	      │                                    │
//	      │                                    ▼
//	      ├──► internal/app/monitor ──► internal/app/storage
//	      │                                    │
//	      │                                    ▼
//	      └──► internal/middleware        internal/app/domain/apps
//
// Handlers never talk to storage directly. Domain types carry no storage or
// transport concerns beyond their bson and json tags.
package app
