// Package document builds indexable documents from storage events.
//
// It reshapes free-form object metadata into a flat, index-safe form,
// extracts body text for the allow-listed text-bearing formats, and applies
// the byte-limit truncation policy.
package document
