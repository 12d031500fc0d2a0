package cli

import (
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// ArgsBetween accepts between min and max positional arguments inclusive.
func ArgsBetween(min, max int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < min || len(args) > max {
			if min == max {
				return Usagef("expected %d arguments, got %d", min, len(args))
			}
			return Usagef("expected %d to %d arguments, got %d", min, max, len(args))
		}
		return nil
	}
}

// ArgsAtLeast accepts min or more positional arguments.
func ArgsAtLeast(min int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < min {
			return Usagef("expected at least %d arguments, got %d", min, len(args))
		}
		return nil
	}
}

// ArgsOdd accepts an odd number of arguments, at least min.
func ArgsOdd(min int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < min || len(args)%2 == 0 {
			return Usagef("expected an odd number of arguments (at least %d), got %d", min, len(args))
		}
		return nil
	}
}

// ArgsEven accepts an even number of arguments, at least min.
func ArgsEven(min int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < min || len(args)%2 != 0 {
			return Usagef("expected an even number of arguments (at least %d), got %d", min, len(args))
		}
		return nil
	}
}

// Arg returns args[i], or "" when the optional argument was not given.
func Arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// ParseIntList parses a colon-separated list such as "1:2:5" into a sorted
// slice. Duplicates are a usage error.
func ParseIntList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ":")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, Usagef("bad integer %q in list %q", p, s)
		}
		out = append(out, v)
	}
	sort.Ints(out)
	for i := 1; i < len(out); i++ {
		if out[i] == out[i-1] {
			return nil, Usagef("list %q has duplicate %d", s, out[i])
		}
	}
	return out, nil
}
