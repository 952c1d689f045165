// Package security classifies shell commands before orby runs them.
//
// Every shell execution path goes through this package: hard-blocked
// commands are never started, and risky ones produce a ConfirmationRequest
// that the caller may show to a human. Classification is plain substring
// matching on the command text; it is not shell-aware and errs on the
// side of blocking.
package security

import (
	"fmt"
	"strings"
)

// Verdict is the outcome of classifying a command.
type Verdict int

const (
	Permitted Verdict = iota
	RequiresConfirmation
	Forbidden
)

func (v Verdict) String() string {
	switch v {
	case Permitted:
		return "permitted"
	case RequiresConfirmation:
		return "requires-confirmation"
	case Forbidden:
		return "forbidden"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// ConfirmationRequest describes a command that should be confirmed by a
// human before it runs.
type ConfirmationRequest struct {
	Kind    string `json:"type"`
	Title   string `json:"title"`
	Command string `json:"command"`
	Message string `json:"message"`
}

// blockedPatterns are matched against the lower-cased command.
var blockedPatterns = []string{
	// recursive delete of root or home
	"rm -rf /",
	"rm -fr /",
	"rm -r /",
	"rm -rf ~",
	"rm -fr ~",
	"rm -rf $home",
	"rm -rf *",
	"rm --no-preserve-root",
	// raw disk writes
	"dd if=",
	"mkfs",
	"> /dev/sd",
	">/dev/sd",
	"> /dev/nvme",
	">/dev/nvme",
	"> /dev/hd",
	">/dev/hd",
	"> /dev/disk",
	">/dev/disk",
	// permission and ownership recursion on root
	"chmod -r 777 /",
	"chmod -r /",
	"chown -r root",
	"chown -r /",
	// fork bombs
	":(){:&};:",
	":(){ :|:& };:",
	":(){ :|: & };:",
	// moving home away
	"mv ~",
	"format c:",
}

// riskWords trigger a confirmation when they appear anywhere in the
// lower-cased command, so "rmdir" and "deletefiles.sh" ask too.
var riskWords = []string{"rm", "delete", "chmod", "chown", "format", "mkfs"}

// BlockedPattern returns the first deny-list pattern found in command, or "".
func BlockedPattern(command string) string {
	lower := strings.ToLower(command)
	for _, pattern := range blockedPatterns {
		if strings.Contains(lower, pattern) {
			return pattern
		}
	}
	return ""
}

// IsSafe reports whether command is free of every hard-blocked pattern.
func IsSafe(command string) bool {
	return BlockedPattern(command) == ""
}

// NeedsConfirmation returns a confirmation request when command contains a
// risk word and is not already hard-blocked. It returns nil otherwise.
func NeedsConfirmation(command string) *ConfirmationRequest {
	if !IsSafe(command) {
		return nil
	}
	word := riskWord(command)
	if word == "" {
		return nil
	}
	return &ConfirmationRequest{
		Kind:    "exec",
		Title:   "Confirm Shell Command",
		Command: command,
		Message: fmt.Sprintf("This command may be destructive (%s). Are you sure you want to execute: %s?", word, command),
	}
}

// Classify folds IsSafe and NeedsConfirmation into a single verdict.
func Classify(command string) Verdict {
	if !IsSafe(command) {
		return Forbidden
	}
	if NeedsConfirmation(command) != nil {
		return RequiresConfirmation
	}
	return Permitted
}

func riskWord(command string) string {
	lower := strings.ToLower(command)
	for _, w := range riskWords {
		if strings.Contains(lower, w) {
			return w
		}
	}
	return ""
}
