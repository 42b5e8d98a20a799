package supervisor

import (
	"fmt"
	"strings"
)

// TimeoutError means a connect/list call did not complete within the
// bounded window. The caller must treat the supervisor as unreachable
// for this call, not as a process failure.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("supervisor: %s: timed out", e.Op)
}

// isIPCFailure recognizes the class of error the reference process
// manager reports when its control socket is gone or wedged -- these
// must be logged and swallowed rather than allowed to propagate into a
// panic or a crash of the controller.
func isIPCFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"sock", "econnrefused", "broken pipe", "epipe", "connection reset"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
