package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	toggleFlagTypeName           = "bool"
	toggleFlagAcceptedLiterals   = "true, false, yes, no, on, off, 1, 0"
	errorToggleFlagInvalidValue  = "invalid boolean value %q for --%s; accepted values: %s"
	errorToggleFlagUnboundTarget = "no flag target bound for value %q"
	flagPrefix                   = "--"
	flagValueSeparator           = "="
	flagArgumentTerminator       = "--"
	negatedTogglePrefix          = "no-"
	toggleAssignmentFormat       = "--%s=%s"
)

var toggleLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// parseToggleLiteral reads a toggle literal; an empty input enables the toggle.
func parseToggleLiteral(input string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return true, true
	}
	value, known := toggleLiterals[normalized]
	return value, known
}

// toggleDefinition binds one on/off feature of a command to its target.
type toggleDefinition struct {
	name         string
	target       *bool
	defaultValue bool
	usage        string
}

// toggleFlag is a boolean flag accepting yes/no style literals, so that
// "--icons no" disables a default-on feature.
type toggleFlag struct {
	definition toggleDefinition
}

func (flag *toggleFlag) Set(input string) error {
	if flag == nil || flag.definition.target == nil {
		return fmt.Errorf(errorToggleFlagUnboundTarget, input)
	}
	value, known := parseToggleLiteral(input)
	if !known {
		return fmt.Errorf(errorToggleFlagInvalidValue, input, flag.definition.name, toggleFlagAcceptedLiterals)
	}
	*flag.definition.target = value
	return nil
}

func (flag *toggleFlag) String() string {
	if flag == nil || flag.definition.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*flag.definition.target)
}

func (flag *toggleFlag) Type() string {
	return toggleFlagTypeName
}

// registerToggles adds every definition to flagSet with its default applied.
func registerToggles(flagSet *pflag.FlagSet, definitions ...toggleDefinition) {
	for _, definition := range definitions {
		*definition.target = definition.defaultValue
		flagSet.Var(&toggleFlag{definition: definition}, definition.name, definition.usage)
		registered := flagSet.Lookup(definition.name)
		registered.DefValue = strconv.FormatBool(definition.defaultValue)
		registered.NoOptDefVal = strconv.FormatBool(true)
	}
}

// normalizeToggleArguments rewrites toggle arguments into the "--name=value"
// form pflag binds: "--icons no" becomes "--icons=no" and "--no-icons"
// becomes "--icons=false" unless "no-icons" is itself a flag.
func normalizeToggleArguments(command *cobra.Command, arguments []string) []string {
	flagNames := map[string]bool{}
	collectFlagNames(command, flagNames)

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		argument := arguments[index]
		if argument == flagArgumentTerminator {
			return append(normalized, arguments[index:]...)
		}
		name, hasFlagPrefix := strings.CutPrefix(argument, flagPrefix)
		if !hasFlagPrefix || strings.Contains(name, flagValueSeparator) {
			normalized = append(normalized, argument)
			continue
		}
		isToggle, known := flagNames[name]
		if !known {
			if positiveName, negated := strings.CutPrefix(name, negatedTogglePrefix); negated && flagNames[positiveName] {
				normalized = append(normalized, fmt.Sprintf(toggleAssignmentFormat, positiveName, strconv.FormatBool(false)))
				continue
			}
		}
		if isToggle && index+1 < len(arguments) {
			if _, isLiteral := parseToggleLiteral(arguments[index+1]); isLiteral && strings.TrimSpace(arguments[index+1]) != "" {
				normalized = append(normalized, fmt.Sprintf(toggleAssignmentFormat, name, arguments[index+1]))
				index++
				continue
			}
		}
		normalized = append(normalized, argument)
	}
	return normalized
}

// collectFlagNames records every flag of the command tree, true for toggles.
func collectFlagNames(command *cobra.Command, target map[string]bool) {
	visit := func(flag *pflag.Flag) {
		_, isToggle := flag.Value.(*toggleFlag)
		target[flag.Name] = target[flag.Name] || isToggle
	}
	command.PersistentFlags().VisitAll(visit)
	command.Flags().VisitAll(visit)
	for _, child := range command.Commands() {
		collectFlagNames(child, target)
	}
}
