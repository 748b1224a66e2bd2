// SPDX-License-Identifier: Apache-2.0

package config

import "errors"

var (
	ErrSecretPathNotSet    = errors.New("SECRET_PATH is required and not set")
	ErrBadSpiderXLengths   = errors.New("spiderx length bounds are invalid")
	ErrInvalidCustomHeader = errors.New("invalid custom header definition")
)
