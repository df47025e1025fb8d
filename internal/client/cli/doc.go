// Package cli is the command-line front end of filepicker.
//
// Files named on the command line become picker Items collected in a Tray.
// The Tray prints each Item's events as they arrive and, on a terminal, keeps
// a progress line updated in place. With -w the CLI also adds files created
// in a watched directory; with -i it reads commands from stdin:
//
//	help             show available commands
//	l, list          list files with their state
//	add <path>...    add files
//	upload <n>       start the upload of file n
//	retry <n>        retry file n
//	remove <n>       remove file n, cancelling its upload
//	open <n>         show where file n can be previewed
//	icon <n>         toggle the tile icon of file n
//	exit | quit      stop reading commands
//
// The process exits with status 1 if any upload failed or a file could not
// be added.
package cli
