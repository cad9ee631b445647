// Package password hashes and verifies user passwords with argon2id.
//
// Hashes are self-describing PHC strings, so parameters can be raised
// without invalidating stored hashes; [Argon2.NeedsRehash] reports when a
// stored hash was produced with weaker settings.
//
// The package owns hashing only. Password policy beyond the minimum length
// lives in package credential, and plaintext is never stored or logged.
package password
