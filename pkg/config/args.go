package config

import (
	"strings"

	"github.com/urfave/cli/v2"
)

// Reorder moves options found after the positional arguments in front of
// them, so "start i-123 -t 30" parses like "-t 30 start i-123". args[0] is the
// program name. Values of flags that take one travel with their flag, and
// everything after "--" stays positional.
func Reorder(args []string, flags []cli.Flag) []string {
	if len(args) < 2 {
		return args
	}
	takesValue := make(map[string]bool)
	for _, f := range flags {
		_, boolean := f.(*cli.BoolFlag)
		for _, name := range f.Names() {
			takesValue[name] = !boolean
		}
	}

	var (
		options    []string
		positional []string
		terminated bool
	)
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		switch {
		case arg == "--":
			terminated = true
			positional = append(positional, rest[i+1:]...)
			i = len(rest)
		case len(arg) > 1 && arg[0] == '-':
			options = append(options, arg)
			name := strings.TrimLeft(arg, "-")
			if strings.Contains(name, "=") {
				continue
			}
			if takesValue[name] && i+1 < len(rest) {
				i++
				options = append(options, rest[i])
			}
		default:
			positional = append(positional, arg)
		}
	}

	out := make([]string, 0, len(args)+1)
	out = append(out, args[0])
	out = append(out, options...)
	if terminated {
		out = append(out, "--")
	}
	return append(out, positional...)
}
