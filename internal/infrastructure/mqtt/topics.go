package mqtt

import (
	"fmt"
	"strings"
)

// TopicRoot is the first level of every topic.
const TopicRoot = "acre"

// Topics builds topics for one site.
//
//	topics := mqtt.Topics{Site: "site-001"}
//	topics.AreaSet("1") // "acre/site-001/area/1/set"
type Topics struct {
	Site string
}

func (t Topics) prefix() string {
	return TopicRoot + "/" + t.Site
}

// SystemStatus is the retained online/offline topic of the core.
func (t Topics) SystemStatus() string {
	return t.prefix() + "/system/status"
}

// AreaState is where the gateway publishes an area's retained state.
func (t Topics) AreaState(areaID string) string {
	return fmt.Sprintf("%s/area/%s/state", t.prefix(), areaID)
}

// AreaSet is where the core publishes mode changes for an area.
func (t Topics) AreaSet(areaID string) string {
	return fmt.Sprintf("%s/area/%s/set", t.prefix(), areaID)
}

// AllAreaStates matches the state topic of every area.
func (t Topics) AllAreaStates() string {
	return t.prefix() + "/area/+/state"
}

// ParseAreaState extracts the area ID from a concrete state topic.
func (t Topics) ParseAreaState(topic string) (string, error) {
	rest, ok := strings.CutPrefix(topic, t.prefix()+"/area/")
	if !ok {
		return "", fmt.Errorf("%w: %q is not an area topic", ErrInvalidTopic, topic)
	}
	id, ok := strings.CutSuffix(rest, "/state")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("%w: %q is not an area state topic", ErrInvalidTopic, topic)
	}
	return id, nil
}
