// Package interpolation expands ${VAR} and ${VAR:default} references in
// configuration values.
package interpolation

import (
	"errors"
	"fmt"
	"os"
	"regexp"
)

// LookupFunc resolves a variable name. os.LookupEnv satisfies it.
type LookupFunc func(name string) (string, bool)

// ${NAME}, ${NAME:} and ${NAME:default}. The colon is captured separately so an
// empty default can be told apart from no default.
var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:)?([^}]*)\}`)

// ErrUndefined is wrapped by every error for a variable that is neither set nor
// given a default.
var ErrUndefined = errors.New("environment variable not defined")

// Expand replaces variable references in input using lookup. A reference with
// no default whose variable is unset is left in place and reported; all such
// references are collected into one joined error.
func Expand(input string, lookup LookupFunc) (string, error) {
	if input == "" {
		return "", nil
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var missing []error
	out := varPattern.ReplaceAllStringFunc(input, func(match string) string {
		sub := varPattern.FindStringSubmatch(match)
		name, hasDefault, def := sub[1], sub[2] == ":", sub[3]

		if value, ok := lookup(name); ok {
			return value
		}
		if hasDefault {
			return def
		}
		missing = append(missing, fmt.Errorf("%w: %s", ErrUndefined, name))
		return match
	})

	return out, errors.Join(missing...)
}

// ExpandEnv is Expand against the process environment.
func ExpandEnv(input string) (string, error) {
	return Expand(input, os.LookupEnv)
}
