// Package shared holds helpers used by several packages.
//
// The testutil subpackage provides a buffered slog handler for asserting on
// log output and canonical flight fixtures shared by storage, analytics and
// service tests.
package shared
