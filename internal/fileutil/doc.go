// Package fileutil discovers importable notes under a content root.
//
// # Main Components
//
// Matcher - glob evaluation over root-relative "/" paths:
//   - DoublestarMatcher: case-insensitive, "**" spans directories
//   - MatchesAny: true when any pattern in a list matches
//
// Scanner - depth-first walk of the content root:
//   - Hidden entries and the .obsidian directory are skipped
//   - Subdirectories are entered only when Recursive is set and they are not excluded
//   - Files are filtered by extension, ExcludeFiles, exclude and include patterns
//   - Exclusion always wins over inclusion
//
// ScanResult - results of a scan:
//   - Files: discovered notes in lexical depth-first order
//   - Errors: non-fatal errors encountered during the walk
//
// # Usage
//
//	result, err := fileutil.Scan(cfg.Importer)
//	if err != nil {
//	    return err // *ScanError: root missing or unreadable
//	}
//	for _, f := range result.Files {
//	    fmt.Println(f.RelativePath)
//	}
//
// # Error Tolerance
//
// Unreadable subdirectories are recorded in ScanResult.Errors and the walk
// continues. Only a missing or unreadable root fails the scan.
package fileutil
