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


// Package storage provides the storage abstraction layer for knowit.
//
// It defines the ChunkRepository interface that decouples the retrieval core
// from the storage implementation. Public constructors in backend packages
// return this interface so alternative backends can be swapped in without
// touching retrieval logic.
//
//	repo, err := badger.NewChunkRepository(backend) // returns storage.ChunkRepository
//
// Use the in-memory variant in tests:
//
//	repo, backend, err := badger.NewMemoryRepository()
//
// # Thread Safety
//
// Repository implementations must be safe for concurrent reads. Writes occur
// only during ingestion, which is an exclusive phase: ingestion and serving
// are never interleaved.
package storage
