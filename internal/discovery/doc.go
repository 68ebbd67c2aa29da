// Package discovery defines how candidate items enter a run: the source
// interface that enumerates candidates, metadata generation for publishable
// items, and duplicate suppression keyed on normalized title and uploader.
package discovery
