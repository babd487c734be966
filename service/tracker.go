package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/internal/constants"
)

// hashKey is the memoization key for identity hashes
type hashKey struct {
	file    string
	line    int
	rule    string
	message string
}

// validationKey is the memoization key for validation results
type validationKey struct {
	file    string
	line    int
	message string
}

// validationOutcome is a cached validation result
type validationOutcome struct {
	errs     []string
	warnings []string
}

// ViolationTrackerImpl implements the ViolationTracker interface.
//
// The tracker is the persistence boundary of the analysis pipeline: it
// collapses a batch by identity hash, excludes malformed records, sanitizes
// the survivors and hands them to storage in one call. Hash and validation
// results are memoized so repeated watch cycles over a stable codebase do
// not recompute them.
type ViolationTrackerImpl struct {
	storage      domain.Storage
	knownSources map[string]bool

	mu              sync.Mutex
	hashCache       map[hashKey]string
	validationCache map[validationKey]validationOutcome
}

// NewViolationTracker creates a tracker backed by the given storage.
// knownSources lists the engine names whose violations are expected; a
// violation from any other source is accepted with a warning.
func NewViolationTracker(storage domain.Storage, knownSources []string) *ViolationTrackerImpl {
	known := make(map[string]bool, len(knownSources))
	for _, s := range knownSources {
		known[s] = true
	}
	return &ViolationTrackerImpl{
		storage:         storage,
		knownSources:    known,
		hashCache:       make(map[hashKey]string),
		validationCache: make(map[validationKey]validationOutcome),
	}
}

// ProcessViolations runs the full tracking pipeline on one batch:
// identity-hash dedup, validation, sanitization, one batch storage call.
// Malformed records are excluded and reported in the result's Errors, never
// returned as an error.
func (t *ViolationTrackerImpl) ProcessViolations(ctx context.Context, violations []domain.Violation) (*domain.ProcessingResult, error) {
	result := &domain.ProcessingResult{Processed: len(violations)}

	// Identity-hash dedup: first occurrence of a hash wins. This is the
	// cross-cycle identity, distinct from the orchestrator's key-based
	// intra-cycle dedup.
	seen := make(map[string]bool, len(violations))
	unique := make([]domain.Violation, 0, len(violations))
	for _, v := range violations {
		hash := t.GenerateHash(v)
		if seen[hash] {
			result.Deduplicated++
			continue
		}
		seen[hash] = true
		unique = append(unique, v)
	}

	valid := make([]domain.Violation, 0, len(unique))
	for _, v := range unique {
		outcome := t.validate(v)
		result.Warnings = append(result.Warnings, outcome.warnings...)
		if len(outcome.errs) > 0 {
			result.Errors = append(result.Errors, outcome.errs...)
			continue
		}
		valid = append(valid, sanitizeViolation(v))
	}

	if len(valid) == 0 || t.storage == nil {
		return result, nil
	}

	stored, err := t.storage.StoreViolations(ctx, valid)
	if err != nil {
		return result, domain.NewPersistenceFaultError(err)
	}
	result.Inserted = stored.Inserted
	result.Updated = stored.Updated
	result.Errors = append(result.Errors, stored.Errors...)
	return result, nil
}

// GenerateHash returns the memoized identity hash for a violation. Equal
// (file, line, rule, message) tuples always yield the same hash.
func (t *ViolationTrackerImpl) GenerateHash(v domain.Violation) string {
	key := hashKey{file: v.File, line: v.Line, rule: v.Rule, message: v.Message}

	t.mu.Lock()
	if hash, ok := t.hashCache[key]; ok {
		t.mu.Unlock()
		return hash
	}
	t.mu.Unlock()

	hash := domain.IdentityHash(v)

	t.mu.Lock()
	t.hashCache[key] = hash
	t.mu.Unlock()
	return hash
}

// ClearCaches empties the hash and validation caches
func (t *ViolationTrackerImpl) ClearCaches() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hashCache = make(map[hashKey]string)
	t.validationCache = make(map[validationKey]validationOutcome)
}

// GetCacheStats reports the current cache sizes
func (t *ViolationTrackerImpl) GetCacheStats() domain.CacheStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return domain.CacheStats{
		HashEntries:       len(t.hashCache),
		ValidationEntries: len(t.validationCache),
	}
}

// validate checks one violation against the structural rules, memoized per
// (file, line, message)
func (t *ViolationTrackerImpl) validate(v domain.Violation) validationOutcome {
	key := validationKey{file: v.File, line: v.Line, message: v.Message}

	t.mu.Lock()
	if outcome, ok := t.validationCache[key]; ok {
		t.mu.Unlock()
		return outcome
	}
	t.mu.Unlock()

	outcome := t.validateUncached(v)

	t.mu.Lock()
	t.validationCache[key] = outcome
	t.mu.Unlock()
	return outcome
}

// validateUncached applies the structural validation rules. Missing required
// fields and out-of-range numbers are errors; an unknown source or an
// unexpected file extension is only a warning.
func (t *ViolationTrackerImpl) validateUncached(v domain.Violation) validationOutcome {
	var outcome validationOutcome

	at := v.Location()
	if strings.TrimSpace(v.File) == "" {
		outcome.errs = append(outcome.errs, "violation is missing a file path")
		at = "(no file)"
	}
	if v.Line < 0 {
		outcome.errs = append(outcome.errs, fmt.Sprintf("%s: invalid line number %d", at, v.Line))
	}
	if v.Column < 0 {
		outcome.errs = append(outcome.errs, fmt.Sprintf("%s: invalid column number %d", at, v.Column))
	}
	if strings.TrimSpace(v.Message) == "" {
		outcome.errs = append(outcome.errs, fmt.Sprintf("%s: violation is missing a message", at))
	}
	if strings.TrimSpace(string(v.Category)) == "" {
		outcome.errs = append(outcome.errs, fmt.Sprintf("%s: violation is missing a category", at))
	}
	if strings.TrimSpace(v.Source) == "" {
		outcome.errs = append(outcome.errs, fmt.Sprintf("%s: violation is missing a source", at))
	}
	if !v.Severity.IsValid() {
		outcome.errs = append(outcome.errs, fmt.Sprintf("%s: invalid severity %q", at, v.Severity))
	}

	if v.Source != "" && !t.knownSources[v.Source] {
		outcome.warnings = append(outcome.warnings, fmt.Sprintf("%s: unknown source %q", at, v.Source))
	}
	if v.File != "" && !hasSupportedExtension(v.File) {
		outcome.warnings = append(outcome.warnings,
			fmt.Sprintf("%s: unexpected file extension for source %q", at, v.Source))
	}
	return outcome
}

// sanitizeViolation returns a trimmed copy with defaulted optional fields.
// The original record is never modified.
func sanitizeViolation(v domain.Violation) domain.Violation {
	out := v
	out.File = strings.TrimSpace(v.File)
	out.Code = strings.TrimSpace(v.Code)
	out.Category = domain.ViolationCategory(strings.TrimSpace(string(v.Category)))
	out.Source = strings.TrimSpace(v.Source)
	out.Rule = strings.TrimSpace(v.Rule)
	out.Message = strings.TrimSpace(v.Message)
	out.FixSuggestion = strings.TrimSpace(v.FixSuggestion)
	if out.Category == "" {
		out.Category = domain.CategoryOther
	}
	return out
}

// hasSupportedExtension reports whether the path ends in one of the
// supported source file extensions
func hasSupportedExtension(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range constants.SupportedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
