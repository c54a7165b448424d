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

import "errors"

// Pipeline error kinds. Callers classify with errors.Is.
var (
	// ErrMalformedInput indicates an unreadable, corrupt, or password-protected source.
	ErrMalformedInput = errors.New("malformed input")

	// ErrNoExtractableText indicates that direct extraction and OCR both
	// produced less text than the absolute minimum.
	ErrNoExtractableText = errors.New("no extractable text")

	// ErrIndexing indicates an embedding or storage failure that persisted
	// through the configured retries.
	ErrIndexing = errors.New("indexing failed")

	// ErrEmptyCollection indicates a query against an index with no content.
	// It is a valid empty-result signal, not a failure.
	ErrEmptyCollection = errors.New("no indexed documents")

	// ErrModelUnavailable indicates the language model call failed or timed out.
	ErrModelUnavailable = errors.New("language model unavailable")
)

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidStatus indicates an unknown Status value.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrEmptyFilename indicates the Filename field is empty.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrInconsistentError indicates ErrorMessage was set without StatusFailed,
	// or StatusFailed was set without an ErrorMessage.
	ErrInconsistentError = errors.New("error message inconsistent with status")
)
