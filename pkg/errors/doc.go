/*
Package errors provides structured error handling for the library.

It defines a standard AppError type that includes:
  - Error Code (standardized strings like INVALID_ARGUMENT, INTERNAL)
  - Message (human-readable description)
  - Underlying Error (chaining)

Domain packages layer their own codes and constructors on top of it in
per-package errors.go files.
*/
package errors
