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


package core

import (
	"fmt"
	"strings"
)

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty after trimming
//   - Source must not be empty
//   - Ordinal must not be negative
//
// NOT validated (populated later in the pipeline):
//   - Vector (can be empty until the index embeds the chunk)
//   - Id (0 is valid until the content ID is assigned)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkText)
	}

	if chunk.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkSource)
	}

	if chunk.Ordinal < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativeOrdinal)
	}

	return nil
}
