// Package restrict implements the restricted-visibility filter: the rule
// that a resource tagged "restricted" is invisible to any user who is
// neither an administrator nor named in the application's
// unrestricted-users set, plus the transitive tagging that propagates
// restriction from a Form to its Files and from either to the
// Collections that reference them.
//
// The shape follows a typical permission-checker: resolve the caller's
// privilege once, then test each resource's tags against it, simplified
// here from role/scope matching down to a single boolean.
package restrict
