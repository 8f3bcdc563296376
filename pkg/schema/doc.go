// Package schema defines the FormSchema document shared by the requirement
// parser, the test and mock API generators, and the renderers.
//
// A FormSchema is produced in one piece by the parser and replaced in one
// piece on regeneration. Field names are stable machine keys; labels are the
// captions shown to users. The Kind tag records which domain template the
// parser selected so consumers never branch on the title string.
package schema
