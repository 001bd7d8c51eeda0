// Package output provides structured output handling for the ciassemble CLI.
//
// Every command writes through a Printer, which switches between
// human-readable text and JSON based on the --json flag:
//
//	printer := output.NewPrinter(cmd.OutOrStdout(), jsonMode, colorEnabled)
//
//	printer.Progress("Importing file: %s\n", name) // human mode only
//	printer.Success(map[string]any{"message": "Finished."})
//	printer.Error(err)
//
// # JSON Mode
//
// In JSON mode progress lines are suppressed and each command emits a single
// object:
//
//	// Success: {"target": "...", "digest": "...", ...}
//	// Error:   {"error": "message", "code": N}
//
// # Exit Codes
//
//	output.ExitSuccess     // 0: assembled, or target up to date
//	output.ExitUserError   // 1: bad import name, import too deep, bad config
//	output.ExitSystemError // 2: unreadable template, write failure
//	output.ExitConflict    // 3: target differs from the templates (check)
//
// Errors built with NewUserError, NewSystemError and NewConflictError carry
// their code to both the JSON error object and the process exit status.
package output
