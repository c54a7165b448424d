// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage provides the storage abstraction layer for dartos.
//
// This package defines repository interfaces that decouple storage
// implementation from business logic. It allows for different storage
// backends (BadgerDB, in-memory, etc.) to be used interchangeably.
//
// # Constructor Return Type Pattern
//
// This package follows a strict "return interface" pattern for all public
// constructors to enforce abstraction and enable multiple storage backend
// implementations:
//
//	docs, vectors, err := badger.NewRepositories(path)  // returns interfaces
//
// This design decision prioritizes:
//   - Abstraction: Prevents accidental coupling to BadgerDB specifics
//   - Swappability: Easy to add alternative backends
//   - Testing: Consumers can use in-memory implementations without change
//
// Internal package constructors (newDocumentRepository, newBackend, etc.)
// may return concrete types since they're only used within the
// implementation package.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - DocumentRepository: Operations for document metadata and status
//   - VectorRepository: Operations for embedded chunks and similarity search
//   - BlobStore: Raw upload bytes, kept for re-extraction and re-indexing
//
// # Usage
//
// Create repositories backed by a BadgerDB instance:
//
//	docs, vectors, err := badger.NewRepositories("/path/to/db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer docs.Close()
//
// Use in tests with in-memory storage:
//
//	docs, vectors := badger.NewMemoryRepositories(t)
package storage
