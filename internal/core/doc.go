// Package core provides the data cleaning pipeline.
//
// It holds all domain logic independent of any transport. The web handlers
// and the CLI both drive it through [Service].
//
// # Pipeline
//
// Each uploaded file runs through the same fixed sequence of steps:
//
//  1. [Ingest] parses CSV or XLSX content into a typed [Dataset]
//  2. [RemoveDuplicates] drops repeated rows (optional)
//  3. [FillMissingValues] imputes numeric gaps with the column mean (optional)
//  4. [SelectColumns] projects onto the chosen columns
//  5. [BuildChart] plots the first two numeric columns (optional)
//  6. [Export] serializes the result as CSV or XLSX
//
// The order never changes, whichever steps are switched on. A [Preview] of
// the data is taken after every step that ran. Files in a batch are
// independent: one file failing does not stop the others.
//
// # Uploads
//
// Every upload gets a random [FileID]. Its bytes are kept in a
// [SessionStore] for a limited time so the same file can be processed again
// with different options. Nothing is written to disk.
//
// # Error Handling
//
// Domain failures are typed ([DecodingError], [ColumnSelectionError],
// [SerializationError], [ErrUnsupportedFormat], ...). [MapError] turns any
// error into a [UserMessage] with a support code.
package core
