// Package toc reads the leveled outline format used for document bookmarks
// and renders it through format-specific entry writers.
//
// The first line of an outline file names its text encoding. Every following
// non-blank line is an entry:
//
//	utf8
//	1 Chapter 1
//	* 2 Section 1.1
//	** 3 Detail
//	10 Chapter 2
//
// The number of leading '*' is the nesting level, followed by the page number
// and the description. A line may be at most one level deeper than the line
// before it.
package toc
