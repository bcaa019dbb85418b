package sequence

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"checkpoint/internal/services"
)

// Policy selects the direction steps are executed in.
type Policy string

const (
	// DecreasingOrder runs the highest order first. It is the default.
	DecreasingOrder Policy = "decreasing_order"
	// IncreasingOrder runs the lowest order first.
	IncreasingOrder Policy = "increasing_order"
)

// ParsePolicy maps a policy name to a Policy. The empty string selects
// DecreasingOrder.
func ParsePolicy(name string) (Policy, error) {
	switch Policy(strings.TrimSpace(name)) {
	case "", DecreasingOrder:
		return DecreasingOrder, nil
	case IncreasingOrder:
		return IncreasingOrder, nil
	default:
		return "", services.Wrap(services.ErrConfiguration, "sequence", "parse policy",
			fmt.Sprintf("%q is an invalid execution policy", name), nil)
	}
}

// DisplayName turns a step name into a human-readable label:
// "seq_walk_directories" becomes "Walk Directories".
func DisplayName(step string) string {
	trimmed := strings.TrimPrefix(step, StepPrefix)
	trimmed = strings.ReplaceAll(trimmed, "_", " ")
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return step
	}
	return cases.Title(language.English).String(strings.Join(fields, " "))
}
