// Package idgen wraps the UUID generator used for trace identifiers so that
// it can be stubbed in tests. Callers must treat identifiers as opaque
// strings.
package idgen
