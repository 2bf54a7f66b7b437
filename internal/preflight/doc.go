// Package preflight checks that a build has usable inputs and that the
// environment it runs in is ready.
//
// Two groups of checks live here:
//   - Input validation (Validate, CheckVideo, CheckSubtitle, CheckOutput)
//     runs before a build touches the filesystem. Every failure is tagged
//     services.ErrValidation so the CLI can map it to its own exit status.
//     The output directory is only created by PrepareOutput, after all
//     inputs passed.
//   - Environment checks (RunAll, CheckDirectoryAccess, CheckSystemDeps)
//     back the "webvid check" command.
package preflight
