package check

// Contains checks whether actual is contained in expected, returning an error with the
// provided message if the check fails.
func Contains(actual interface{}, expected []interface{}, msgAndArgs ...interface{}) error {
	for _, value := range expected {
		if value == actual {
			return nil
		}
	}
	return check(false, msgAndArgs, "%s not in %s", actual, expected)
}

// In checks whether actual is one of the given strings.
func In(actual string, expected []string) error {
	boxed := make([]interface{}, 0, len(expected))
	for _, v := range expected {
		boxed = append(boxed, v)
	}
	return Contains(actual, boxed, "%s not in %s", actual, expected)
}
