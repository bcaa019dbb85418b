// Package crypt encrypts checkpoint content with a per-project symmetric key.
//
// Tokens are URL-safe base64 of a version byte, a 24-byte nonce and an
// XChaCha20-Poly1305 sealed box. With more than one iteration each pass
// encrypts the previous token, so decryption must use the same count. The
// count is not recorded in the token: decrypting with fewer passes returns an
// intermediate token and decrypting with more fails authentication.
package crypt
