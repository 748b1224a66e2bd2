// SPDX-License-Identifier: Apache-2.0

package config

import "fmt"

// validate checks the merged configuration for the few invariants the rest
// of the application relies on. It runs after every source has been merged,
// so missing values here mean the operator really did not provide them.
func (c *StructuredConfig) validate() error {
	if c.App.SecretPath == "" {
		return ErrSecretPathNotSet
	}

	sx := c.App.SpiderX
	if sx.MinLength <= 0 || sx.MaxLength < sx.MinLength {
		return fmt.Errorf("%w: min=%d max=%d", ErrBadSpiderXLengths, sx.MinLength, sx.MaxLength)
	}

	return nil
}
