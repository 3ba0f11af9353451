package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	domainconfig "github.com/YagmurCemGul/boltinsight-production-sub002/domain/config"
)

// envReference matches ${VAR}, ${VAR:-default}, ${VAR:?message} and $VAR.
var envReference = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::([-?])([^}]*))?\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnv replaces environment references in input. A ${VAR:?message}
// reference always fails when VAR is unset or empty; with strict set, any
// reference to an unset variable without a default fails too. Unset
// variables otherwise expand to the empty string.
func expandEnv(input string, strict bool) (string, error) {
	var missing []string

	out := envReference.ReplaceAllStringFunc(input, func(ref string) string {
		m := envReference.FindStringSubmatch(ref)
		name, op, arg := m[1], m[2], m[3]
		if name == "" {
			name = m[4]
		}

		value, set := os.LookupEnv(name)
		switch op {
		case "-":
			if value == "" {
				return arg
			}
			return value
		case "?":
			if value == "" {
				missing = append(missing, name+": "+arg)
				return ref
			}
			return value
		}

		if !set && strict {
			missing = append(missing, name)
		}
		return value
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", domainconfig.ErrMissingEnvVar, strings.Join(missing, ", "))
	}
	return out, nil
}

// ExpandEnv expands environment references, leaving unset variables empty.
func ExpandEnv(input string) string {
	out, _ := expandEnv(input, false)
	return out
}

// ExpandEnvStrict expands environment references and fails on unset variables.
func ExpandEnvStrict(input string) (string, error) {
	return expandEnv(input, true)
}
