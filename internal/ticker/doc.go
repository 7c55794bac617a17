// Package ticker provides the HTTP client and wire types for the ticker
// server API.
//
// # Overview
//
// The package is split into four files:
//
//   - client.go: HTTP client, request/response handling, status mapping
//   - types.go: settings, device, and directory types mirroring the API
//   - decode.go: tolerant per-field decoding of state snapshots
//   - errors.go: the error taxonomy the sync engine branches on
//
// # Error taxonomy
//
// Callers distinguish three failure classes:
//
//   - transport failure: the request never produced a response; the
//     wrapped error comes straight from net/http
//   - *DecodeError: the server answered but the payload was not a valid
//     envelope; connectivity is intact, held state must be preserved
//   - ErrForbidden: the server explicitly rejected the client identity;
//     the pairing recovery path runs instead of a retry
//
// Any other non-2xx status surfaces as *StatusError and is treated as a
// validation rejection: logged, no rollback, reconciled by the next
// scheduled fetch.
//
// # Tolerant decoding
//
// A state snapshot decodes per field: an absent or type-mismatched field
// resolves to its named default rather than failing the object. Only a
// structurally unparseable envelope reports a *DecodeError.
package ticker
