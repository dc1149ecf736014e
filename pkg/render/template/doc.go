// Package template defines the template rendering contract used to emit Go
// source, plus a go-template backed implementation in the gotemplate subpackage.
package template
