// File: internal/chat/doc.go
// Package chat implements the broadcast chat used by the example programs.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Hub owns every server-side connection and is driven by repeated calls
// to Step from a single goroutine. A Client drives one dialed connection
// the same way.
package chat
