// Package ui prints progress and the outcome of a run for humans.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/vladvasiliu/aws-start-stop/pkg/lifecycle"
	"github.com/vladvasiliu/aws-start-stop/pkg/transition"
)

// None stands in for an address the instance does not have.
const None = "None"

// Progress returns a notifier printing each message to w.
func Progress(w io.Writer) transition.Notifier {
	return func(msg string) {
		fmt.Fprintln(w, InfoMsg("%s", msg))
	}
}

// Render writes the outcome of res to w.
func Render(w io.Writer, res transition.Result) error {
	var sb strings.Builder
	switch {
	case res.TimedOut():
		sb.WriteString(ErrorMsg("Failed to %s instance: timeout", res.Action) + "\n")
	case !res.OK():
		sb.WriteString(ErrorMsg("Failed to %s instance: %v", res.Action, res.Err) + "\n")
	default:
		sb.WriteString(SuccessMsg("%s instance %s", capitalize(res.Action.Past()), Bold(res.InstanceID)) + "\n")
		if res.Action == lifecycle.Start {
			sb.WriteString(Addresses(res.Instance))
		}
		if res.AgentErr != nil {
			sb.WriteString(WarnMsg("SSM agent check failed: %v", res.AgentErr) + "\n")
		} else if res.AgentChecked {
			sb.WriteString(SuccessMsg("SSM agent connected") + "\n")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Addresses lists the network addresses of inst.
func Addresses(inst lifecycle.Instance) string {
	return KeyValues("  ",
		KV("Public IPv4", orNone(inst.PublicIPv4)),
		KV("Private IPv4", orNone(inst.PrivateIPv4)),
		KV("IPv6", orNone(inst.IPv6)),
	)
}

func orNone(s string) string {
	if s == "" {
		return Muted(None)
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
