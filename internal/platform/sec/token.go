// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
)

// # Secure Token Generation

/*
GenerateSecureToken produces an opaque, unguessable bearer token.

Description: Reads byteLength bytes from the kernel CSPRNG and encodes them as
unpadded URL-safe base64. 32 bytes yields 256 bits of entropy, comfortably
above the 128-bit floor required for session and refresh tokens.

Parameters:
  - byteLength: int (number of random bytes before encoding)

Returns:
  - string: Encoded token
  - error: Entropy source failures
*/
func GenerateSecureToken(byteLength int) (string, error) {
	buffer := make([]byte, byteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

/*
GenerateNumericCode produces a fixed-length numeric one-time passcode.

Description: Each digit is drawn independently from crypto/rand — never from a
general-purpose PRNG — so a leaked code reveals nothing about the next one.
Leading zeros are preserved ("012345" is a valid 6-digit code).

Parameters:
  - digits: int (code length)

Returns:
  - string: Numeric code of exactly `digits` characters
  - error: Entropy source failures
*/
func GenerateNumericCode(digits int) (string, error) {
	var builder strings.Builder
	builder.Grow(digits)

	ten := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("sec: failed to generate passcode digit: %w", err)
		}
		builder.WriteByte(byte('0' + n.Int64()))
	}

	return builder.String(), nil
}
