// Package app composes the Sedifex backend into a running application.
//
// # Architecture Role
//
// The app package wires storage, domain services, background jobs and
// the realtime hub together. It carries no business rules itself;
// those live in the per-domain services underneath it.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct, service wiring, lifecycle
//	├── domain/             # Domain models (pure data structures)
//	│   ├── user/           # Accounts and sessions
//	│   ├── store/          # Stores, memberships, roles
//	│   ├── product/        # Catalog items
//	│   ├── sale/           # Sales, lines, payments
//	│   └── ...             # Stock, customers, expenses, billing, sync
//	├── storage/            # Storage interfaces and implementations
//	│   ├── interfaces.go   # Store interfaces (UserStore, SaleStore, ...)
//	│   ├── memory/         # In-memory implementation for tests and demos
//	│   └── sqlstore/       # sqlx implementation for Postgres and SQLite
//	├── services/           # Business logic, one package per domain
//	├── httpapi/            # HTTP handlers, routing, middleware
//	├── auth/               # Password hashing and session tokens
//	├── realtime/           # Websocket event hub
//	├── receipt/            # Plain-text receipt rendering
//	├── metrics/            # Prometheus registry and HTTP instrumentation
//	└── system/             # Background service lifecycle manager
//
// # Responsibilities
//
//   - Composing services from services/ with their storage dependencies
//   - Falling back to the in-memory store when no database is configured
//   - Registering background services (summary scheduler, op-log
//     janitor, realtime hub) with the lifecycle manager
//   - Exposing the assembled services to httpapi and the admin CLI
//
// # Dependency Direction
//
//	cmd/sedifexd, cmd/sedifex-admin
//	      │
//	      ▼
//	internal/app/runtime (config, database, HTTP server)
//	      │
//	      ▼
//	internal/app (composition)
//	      │
//	      ├──► internal/app/services/ (business logic)
//	      │           │
//	      │           └──► internal/app/storage/ (interfaces)
//	      │
//	      └──► internal/app/httpapi/ (transport)
//
// # Example: Adding a New Domain
//
// When adding a new domain (e.g. "suppliers"):
//
//  1. Create domain models in internal/app/domain/supplier/
//  2. Add a store interface to internal/app/storage/interfaces.go
//  3. Implement it in storage/memory/ and storage/sqlstore/
//  4. Create the service in internal/app/services/suppliers/
//  5. Wire the service in internal/app/application.go
//  6. Add HTTP handlers in internal/app/httpapi/handlers_suppliers.go
package app
