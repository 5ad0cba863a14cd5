package command

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

// PatternPrefix marks option keys that are rendered mechanically as long
// flags: "__column_statistics" becomes "--column-statistics".
const PatternPrefix = "__"

// Build renders executable plus the merge of base and overrides into an
// argument list. knownFlags maps option names to their flag spelling.
//
// Known flags render as "flag=value" when the value is truthy and as the bare
// flag otherwise. Pattern keys render as "--dashed-key=value", or bare when the
// value is a Flag. Any other key is positional: its value is flattened and
// every leaf appended as its own token, empty strings included. A Flag has
// no leaf, so a positional Flag renders nothing; use Scalar("") for an
// explicit empty argument.
func Build(executable string, knownFlags map[string]string, base, overrides *Options) []string {
	merged := base.Merge(overrides)

	args := make([]string, 0, 1+merged.Len())
	args = append(args, executable)

	for _, e := range merged.Entries() {
		if flag, ok := knownFlags[e.Key]; ok {
			if e.Value.Truthy() {
				args = append(args, flag+"="+e.Value.String())
			} else {
				args = append(args, flag)
			}
			continue
		}

		if strings.HasPrefix(e.Key, PatternPrefix) {
			flag := strings.ReplaceAll(e.Key, "_", "-")
			if e.Value.Kind() != KindFlag {
				args = append(args, flag+"="+e.Value.String())
			} else {
				args = append(args, flag)
			}
			continue
		}

		args = append(args, e.Value.Leaves()...)
	}

	return args
}

// Join renders args as a single POSIX shell-escaped string.
func Join(args []string) string {
	return shellquote.Join(args...)
}
