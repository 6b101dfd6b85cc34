package domain

import "strings"

// Environment selects an inventory partition and its credential pair.
// There are exactly two partitions and nothing is shared between them.
type Environment string

const (
	Production    Environment = "production"
	NonProduction Environment = "non-production"
)

// ParseEnvironment is case-insensitive; anything that is not "production"
// falls back to non-production.
func ParseEnvironment(s string) Environment {
	if strings.EqualFold(strings.TrimSpace(s), string(Production)) {
		return Production
	}
	return NonProduction
}

// Environments lists every partition in a stable order.
func Environments() []Environment {
	return []Environment{Production, NonProduction}
}

func (e Environment) String() string { return string(e) }

// FileStem is the basename used for the partition's inventory file.
func (e Environment) FileStem() string {
	if e == Production {
		return "production"
	}
	return "nonproduction"
}
