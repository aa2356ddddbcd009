/*
Package concurrency provides concurrency primitives shared across the library.

Features:
  - SafeGo: panic-isolated goroutine spawning
  - Tracker: supervised goroutine set with graceful await on shutdown
*/
package concurrency
