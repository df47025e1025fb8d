// Package picker implements the per-file upload item of the file picker.
//
// # Overview
//
// An Item owns one FileItem and its preview state (icon, progress, file-type
// label, display URL, error flag, last response). It drives at most one
// upload attempt at a time through an injected Adapter and reports coarse
// lifecycle events to a Listener:
//
//	Idle → Uploading → Succeeded
//	                 → Failed → (Retry) → Uploading
//	any  → Removed
//
// # Adapters
//
// An Adapter turns a FileItem into a stream of Update values delivered on a
// channel. InProgress updates may arrive any number of times; an Uploaded
// or Error status, or an Update carrying Err, ends the attempt. Adapters
// must stop and close the channel when their context is cancelled.
//
// # Events
//
// Exactly one of UploadSuccess or UploadFail is emitted per completed
// attempt. Remove emits RemoveFile and nothing is emitted afterwards.
// Listener methods run on the emitting goroutine, one at a time per Item,
// and must not call back into the same Item synchronously.
//
// # Helpers
//
// FormatBytes renders sizes for the tile caption; FileType derives the
// preview label from a media type.
package picker
