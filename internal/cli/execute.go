package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Execute runs root with args and returns the process exit status. Errors not
// already shown on stdout are printed to stderr as one line.
func Execute(ctx context.Context, root *cobra.Command, args []string, stderr io.Writer) int {
	// A nil slice makes cobra fall back to os.Args.
	args = append([]string{}, audioPathArgs(root, args)...)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	if !Reported(err) {
		fmt.Fprintln(stderr, "Error:", err)
	}
	if needsUsageHint(err) {
		fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", helpHintTarget(root, args))
	}
	return ExitCode(err)
}

func helpHintTarget(root *cobra.Command, args []string) string {
	if root == nil {
		return "voskscribe"
	}

	target := root.CommandPath()
	if len(args) == 0 {
		return target
	}

	if strings.HasPrefix(args[0], "-") {
		return target
	}

	found, _, err := root.Find(args)
	if err == nil && found != nil {
		return found.CommandPath()
	}

	return target
}

// audioPathArgs rewrites a lone positional argument that names both a
// subcommand and an existing file to "./<name>", so cobra routes it to the
// root command as the audio path.
func audioPathArgs(root *cobra.Command, args []string) []string {
	pos := positionals(root.Flags(), args)
	if len(pos) != 1 {
		return args
	}

	name := args[pos[0]]
	if !isSubcommandName(root, name) {
		return args
	}
	info, err := os.Stat(name)
	if err != nil || !info.Mode().IsRegular() {
		return args
	}

	out := slices.Clone(args)
	out[pos[0]] = "./" + name
	return out
}

func isSubcommandName(root *cobra.Command, name string) bool {
	// help and completion are added lazily by cobra on execute.
	if name == "help" || name == "completion" {
		return true
	}
	for _, c := range root.Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return true
		}
	}
	return false
}

// positionals returns the indexes of args that are not flags or flag values.
func positionals(flags *pflag.FlagSet, args []string) []int {
	var idx []int
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			for j := i + 1; j < len(args); j++ {
				idx = append(idx, j)
			}
			return idx
		case strings.HasPrefix(arg, "--"):
			name := strings.TrimPrefix(arg, "--")
			if strings.Contains(name, "=") {
				continue
			}
			if f := flags.Lookup(name); f != nil && f.NoOptDefVal == "" {
				i++
			}
		case strings.HasPrefix(arg, "-") && len(arg) > 1:
			// Shorthands are all boolean.
		default:
			idx = append(idx, i)
		}
	}
	return idx
}
