package httpclient

import "fmt"

// StatusError carries the upstream HTTP status code and body back to a
// driver caller. The gateway handlers do not inspect it: they answer a
// driver error with 500, or with 502 when chat backend selection or the
// start of a chat stream fails.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d: %s", e.StatusCode, e.Body)
}
