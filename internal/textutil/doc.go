// Package textutil provides filename sanitization for uploaded recordings.
//
// Upload names arrive from browsers and API clients in arbitrary Unicode
// normalization forms; SanitizeFileName folds them to NFC and strips
// characters that are unsafe on disk or in log output.
package textutil
