// Caplc compiles CAPL decision trees into flat, self-contained conditional
// access policies.
//
// CAPL sources express access rules as nested IF/ELSE trees over user, app,
// platform, device, location, client, and risk conditions. The compiler
// enumerates every root-to-leaf path and emits one policy record per path,
// shaped for the Microsoft Graph conditional access schema.
//
// Usage:
//
//	# Compile a single source to stdout
//	caplc compile policies.capl
//
//	# Compile a directory tree, writing one output file per source
//	caplc compile --output out/ policies/
//
//	# Merge paths with identical outcomes before emitting
//	caplc compile --optimize policies.capl
//
//	# Parse and resolve without emitting
//	caplc lint policies.capl
//
//	# Recompile on every source change
//	caplc watch policies/
//
//	# Report which access scenarios the compiled policies cover
//	caplc coverage policies.capl
//
//	# Inspect recorded compile runs
//	caplc history list
package main

func main() {
	Execute()
}
