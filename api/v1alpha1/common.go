package v1alpha1

// IsTerminal reports whether the service will not change the status anymore.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}
