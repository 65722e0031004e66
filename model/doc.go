// Package model contains the data exchanged between pipeline stages: the
// immutable routing request, the gate verdict, the pipeline stage trail and
// the response returned to the transport layer.
package model
