package cargo

// exitCodes maps cargo exit statuses to their descriptions.
var exitCodes = map[int]string{
	0:   "Success",
	1:   "Cargo reported an error",
	101: "Compilation failed or internal compiler error",
}

// IsSuccess returns true if the exit code indicates a successful invocation.
func IsSuccess(code int) bool {
	return code == 0
}

// Describe returns the description for a cargo exit status, or a generic
// message if unknown. Negative codes indicate termination by signal.
func Describe(code int) string {
	if code < 0 {
		return "Terminated by signal"
	}

	if msg, ok := exitCodes[code]; ok {
		return msg
	}

	return "Unknown error"
}
