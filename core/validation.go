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

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Id must not be empty
//   - Filename must not be empty
//   - Status must be one of the defined states
//   - ErrorMessage is set if and only if Status == StatusFailed
//
// NOT validated (populated by the pipeline):
//   - Content (empty until extraction succeeds)
//   - Checksum, BlobRef (populated on upload)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Id == "" {
		return fmt.Errorf("%w: id is empty", ErrInvalidDocument)
	}

	if doc.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyFilename)
	}

	if err := ValidateStatus(doc.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	failed := doc.Status == StatusFailed
	hasMessage := doc.ErrorMessage != ""
	if failed != hasMessage {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInconsistentError)
	}

	return nil
}

// ValidateStatus validates that a Status has a defined value.
func ValidateStatus(s Status) error {
	switch s {
	case StatusUploaded, StatusProcessing, StatusIndexed, StatusProcessed, StatusFailed:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, s)
	}
}
