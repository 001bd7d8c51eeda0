// Package assemble expands import directives in line-oriented text files.
//
// An import directive is a line that holds nothing but a file name in
// braces, optionally surrounded by spaces or tabs:
//
//	stages:
//	  - build
//	{jobs-build.yml}
//	  {jobs-deploy.yml}
//
// Each directive line is replaced by the fully expanded content of the named
// file. Expansion recurses into imported files until the configured depth
// budget is spent, at which point assembly fails with ErrMaxDepthExceeded
// (usually a circular import).
//
// # Import Names
//
// In strict mode (the default) an import name must be a bare file name: it
// may not contain "/", "\" or a run of two or more dots. Names are resolved
// through an fs.FS, so even in relaxed mode an import can never leave the
// root of that file system.
//
// # Errors
//
// All failures are fatal and surface as one of three typed errors, each
// matching a sentinel through errors.Is:
//
//	*InvalidImportNameError  ErrInvalidImportName
//	*MaxDepthExceededError   ErrMaxDepthExceeded
//	*UnreadableFileError     ErrUnreadableFile
package assemble
