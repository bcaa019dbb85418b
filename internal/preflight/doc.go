// Package preflight provides readiness checks for the filesystem paths a
// checkpoint operation depends on.
//
// These checks run in two contexts:
//   - The checkpoint manager calls RunAll before mutating a project so an
//     unwritable root fails before any file is touched.
//   - The CLI "status" command renders the individual results.
package preflight
