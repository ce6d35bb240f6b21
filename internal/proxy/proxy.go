// Package proxy implements the rotating egress proxy pool.
package proxy

import (
	"fmt"
	"math/rand"
)

// Rotator draws a random egress port, with replacement, for every
// outbound attempt. The pool is read-only configuration, so no
// coordination is needed between callers.
type Rotator struct {
	host    string
	minPort int
	maxPort int
}

// NewRotator returns a rotator over host:[minPort..maxPort]. An empty
// host disables proxying entirely.
func NewRotator(host string, minPort, maxPort int) *Rotator {
	if maxPort < minPort {
		minPort, maxPort = maxPort, minPort
	}
	return &Rotator{host: host, minPort: minPort, maxPort: maxPort}
}

// Enabled reports whether an egress proxy is configured.
func (r *Rotator) Enabled() bool {
	return r != nil && r.host != ""
}

// Next returns a proxy URL on a freshly drawn port. Ports are chosen
// independently per call so retries of the same logical request exit
// through different egress points.
func (r *Rotator) Next() string {
	if !r.Enabled() {
		return ""
	}
	port := r.minPort + rand.Intn(r.maxPort-r.minPort+1)
	return fmt.Sprintf("http://%s:%d", r.host, port)
}
