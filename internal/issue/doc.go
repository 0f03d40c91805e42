// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing diagnostics: a catalog of known
// failure classes rendered as markdown, and an ActionableError type
// carrying operation context and fix suggestions.
package issue
