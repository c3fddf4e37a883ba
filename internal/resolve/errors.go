// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package resolve

import "fmt"

// NotFoundError reports that a fuzzy query matched no upstream entity
// after all fallbacks were exhausted.
type NotFoundError struct {
	Kind   string
	Detail string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Detail)
}

// BadInputError reports a query component that could not be interpreted
// at all, as opposed to one that simply matched nothing.
type BadInputError struct {
	Detail string
}

func (e *BadInputError) Error() string {
	return "invalid query: " + e.Detail
}
