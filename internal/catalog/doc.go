// Package catalog reconciles the input and output trees.
//
// The Scanner walks the input root (following symlinked directories, with
// cycle protection), recognizes source videos by extension, mirrors each path
// into the output root with the container extension forced to .mp4, and
// decides which files need conversion purely from filesystem mtimes. Listing
// walks the output root to produce the reporting endpoint's newest-first
// catalog. Neither side keeps state between calls; the filesystem is the
// only record.
package catalog
