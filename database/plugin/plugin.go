// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plugin

import (
	"slices"
	"sync"
)

type PluginType int

const (
	PluginTypeBlob PluginType = iota + 1
	PluginTypeMetadata
)

func PluginTypeName(pluginType PluginType) string {
	switch pluginType {
	case PluginTypeBlob:
		return "blob"
	case PluginTypeMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// PluginEntry describes a storage backend available to the database
type PluginEntry struct {
	Type        PluginType
	Name        string
	Description string
}

var (
	pluginEntries []PluginEntry
	pluginMutex   sync.RWMutex
)

// Register adds a plugin entry. Registering the same type and name again
// replaces the earlier entry.
func Register(entry PluginEntry) {
	pluginMutex.Lock()
	defer pluginMutex.Unlock()
	for i, p := range pluginEntries {
		if p.Type == entry.Type && p.Name == entry.Name {
			pluginEntries[i] = entry
			return
		}
	}
	pluginEntries = append(pluginEntries, entry)
}

// GetPlugins returns the registered plugins of the given type sorted by name
func GetPlugins(pluginType PluginType) []PluginEntry {
	pluginMutex.RLock()
	defer pluginMutex.RUnlock()
	ret := []PluginEntry{}
	for _, p := range pluginEntries {
		if p.Type == pluginType {
			ret = append(ret, p)
		}
	}
	slices.SortFunc(ret, func(a, b PluginEntry) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		default:
			return 0
		}
	})
	return ret
}

// GetPlugin returns the named plugin entry, if registered
func GetPlugin(pluginType PluginType, name string) (PluginEntry, bool) {
	pluginMutex.RLock()
	defer pluginMutex.RUnlock()
	for _, p := range pluginEntries {
		if p.Type == pluginType && p.Name == name {
			return p, true
		}
	}
	return PluginEntry{}, false
}
