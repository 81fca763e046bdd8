// Package validator validates request structs and reports failures as a
// snake_case field to message map.
package validator
