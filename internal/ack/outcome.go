package ack

import "fmt"

// Outcome is the message shown to the operator after a broadcast.
type Outcome struct {
	Level   string `json:"level"` // success or warning
	Message string `json:"message"`
}

func Summarize(r Result) Outcome {
	switch {
	case r.Success && !r.TimedOut:
		return Outcome{Level: "success", Message: fmt.Sprintf("%d client(s) refreshed.", len(r.Responses))}
	case r.Success:
		return Outcome{Level: "success", Message: fmt.Sprintf("%d client(s) responded before timeout.", len(r.Responses))}
	default:
		wait := "the timeout"
		if r.Timeout > 0 {
			wait = r.Timeout.String()
		}
		return Outcome{Level: "warning", Message: fmt.Sprintf("No clients responded within %s.", wait)}
	}
}
