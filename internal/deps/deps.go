package deps

// Status reports the availability of an external dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Available   bool
	Detail      string
}
