// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import "errors"

// ErrNotAuthenticated is returned when an operation requires a signed-in
// session and none is present.
var ErrNotAuthenticated = errors.New("not authenticated")
