package mqtt

import "strings"

// DefaultPrefix is the topic root used when Topics.Prefix is empty.
const DefaultPrefix = "hap"

// Topics builds the MQTT topics of one engine:
//
//	<prefix>/<engine>/status            retained online/offline status (and LWT)
//	<prefix>/<engine>/heartbeat         periodic heartbeat
//	<prefix>/<engine>/command           commands addressed to the engine
//	<prefix>/<engine>/module/<id>       lifecycle events of module id
type Topics struct {
	Prefix string
	Engine string
}

func (t Topics) base() string {
	prefix := t.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + "/" + sanitise(t.Engine)
}

// Status returns the retained status topic.
func (t Topics) Status() string { return t.base() + "/status" }

// Heartbeat returns the heartbeat topic.
func (t Topics) Heartbeat() string { return t.base() + "/heartbeat" }

// Command returns the command topic.
func (t Topics) Command() string { return t.base() + "/command" }

// Module returns the lifecycle event topic for module id.
func (t Topics) Module(id string) string { return t.base() + "/module/" + sanitise(id) }

// AllModules returns a wildcard matching every module event topic.
func (t Topics) AllModules() string { return t.base() + "/module/+" }

// sanitise replaces characters with special meaning in MQTT topics.
func sanitise(level string) string {
	if level == "" {
		return "_"
	}
	return strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(level)
}
