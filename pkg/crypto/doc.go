/*
Package crypto provides authenticated symmetric encryption for secrets
that travel through the controller's store and into a worker's
environment.

A single 32-byte master key, supplied at process start, encrypts every
secret value with AES-256-GCM. The nonce is prepended to the ciphertext
so a Secret's Ciphertext field is self-describing: no side channel is
needed to carry it alongside the encrypted blob.

	Encrypt: plaintext --AES-256-GCM--> [nonce || ciphertext || tag]
	Decrypt: [nonce || ciphertext || tag] --AES-256-GCM--> plaintext (or DecryptError)

Wrong key, truncated input, and tampering all surface as DecryptError so
callers never confuse "not found" with "corrupt".
*/
package crypto
