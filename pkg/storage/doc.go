// Package storage provides utilities shared across API key store
// implementations, including sentinel errors, the key metadata type and
// tenant context helpers.
//
// Key stores (memory, postgres) satisfy apikey.KeyStore. This package
// holds only shared types and helpers, not the interface itself.
package storage
