package models

import (
	"fmt"
	"strings"
)

// Collection names one independently reconciled tree.
type Collection string

const (
	CollectionHome      Collection = "home"
	CollectionSeasonal  Collection = "seasonal"
	CollectionDiscovery Collection = "discovery"
	CollectionCustom    Collection = "custom"
)

// Collections lists every collection in display order.
var Collections = []Collection{CollectionHome, CollectionSeasonal, CollectionDiscovery, CollectionCustom}

// ParseCollection accepts a collection name in any case.
func ParseCollection(s string) (Collection, error) {
	c := Collection(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Collections {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown collection %q", s)
}
