// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl

import (
	"context"

	"github.com/hashicorp/hcl/v2"

	"github.com/specialistvlad/energiago/internal/ctxlog"
)

// isExprDefined reports whether an expression was written in the source.
// The decoder fills omitted optional expression fields with zero-width
// placeholders, so a nil check is not enough.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	defined := r.End.Byte > r.Start.Byte
	if !defined {
		ctxlog.FromContext(ctx).Debug("Attribute not defined.", "attribute", attrName, "hcl_range", r.String())
	}
	return defined
}
