package mqtt

import "strings"

// DefaultTopicPrefix is the root of every topic when the configuration
// leaves topic_prefix empty.
const DefaultTopicPrefix = "xgparam"

// Topics builds the topic hierarchy for one xgparamd instance:
//
//	{prefix}/state/{category}/{address}   retained parameter state
//	{prefix}/reset/{category}             table or device reset notices
//	{prefix}/command/{category}           inbound parameter writes
//	{prefix}/command/error                rejected commands
//	{prefix}/system/status                online/offline (LWT)
//
// The zero value uses DefaultTopicPrefix.
type Topics struct {
	Prefix string
}

func (t Topics) root() string {
	p := strings.Trim(t.Prefix, "/")
	if p == "" {
		return DefaultTopicPrefix
	}
	return p
}

func (t Topics) join(parts ...string) string {
	return t.root() + "/" + strings.Join(parts, "/")
}

// State returns the retained state topic for one parameter.
//
// Example: xgparam/state/multipart/08000B
func (t Topics) State(category, address string) string {
	return t.join("state", category, address)
}

// Reset returns the topic announcing that every parameter in a category
// changed at once.
//
// Example: xgparam/reset/reverb
func (t Topics) Reset(category string) string {
	return t.join("reset", category)
}

// Command returns the inbound command topic for a category.
//
// Example: xgparam/command/system
func (t Topics) Command(category string) string {
	return t.join("command", category)
}

// AllCommands matches every inbound command topic.
//
// Pattern: xgparam/command/+
func (t Topics) AllCommands() string {
	return t.join("command", "+")
}

// CommandError returns the topic rejected commands are reported on.
//
// Example: xgparam/command/error
func (t Topics) CommandError() string {
	return t.join("command", "error")
}

// SystemStatus returns the retained online/offline status topic, which
// doubles as the Last Will topic.
//
// Example: xgparam/system/status
func (t Topics) SystemStatus() string {
	return t.join("system", "status")
}

// AllStates matches every retained state topic.
//
// Pattern: xgparam/state/#
func (t Topics) AllStates() string {
	return t.join("state", "#")
}

// CommandCategory extracts the category segment from a command topic, or
// returns false when the topic is not a command topic of this prefix.
// The error topic shares the command wildcard and is never a command.
func (t Topics) CommandCategory(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, t.root()+"/command/")
	if !ok || rest == "" || rest == "error" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}
