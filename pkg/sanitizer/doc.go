// Package sanitizer normalizes appointment input before validation and storage.
//
// All normalization functions are idempotent. Invalid input is handled by
// returning an empty string rather than an error, leaving the rejection to the
// validator.
//
// Normalization includes:
//   - Phone numbers: E.164 format (+[country][number])
//   - Emails: trimmed and lowercased
//   - Names and notes: whitespace collapsed, control characters dropped
//   - Appointment types: lowercased labels
package sanitizer
