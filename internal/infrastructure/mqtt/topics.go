package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "holocron"

// Topics builds topic names under a prefix.
//
//	topics := mqtt.NewTopics("holocron")
//	topics.Event("human_created") // "holocron/events/human_created"
type Topics struct {
	prefix string
}

// NewTopics returns a topic builder rooted at prefix. Surrounding slashes are
// trimmed.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the root of every topic.
func (t Topics) Prefix() string {
	return t.prefix
}

// Status returns the retained online/offline status topic.
func (t Topics) Status() string {
	return t.prefix + "/status"
}

// Event returns the topic for a named domain event.
func (t Topics) Event(name string) string {
	return fmt.Sprintf("%s/events/%s", t.prefix, name)
}
