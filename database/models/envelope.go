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

package models

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

var ErrUnknownSchemaVersion = errors.New("unknown schema version")

// RecordKind identifies a family of persisted records sharing a schema history
type RecordKind string

const (
	RecordKindState    RecordKind = "state"
	RecordKindAccount  RecordKind = "account"
	RecordKindVote     RecordKind = "vote"
	RecordKindProposal RecordKind = "proposal"
	RecordKindBucket   RecordKind = "bucket"
	RecordKindTransfer RecordKind = "transfer"
)

// UpgradeFunc converts the CBOR body of a record from one schema version to
// the next
type UpgradeFunc func(cbor.RawMessage) (cbor.RawMessage, error)

type envelope struct {
	_       struct{} `cbor:",toarray"`
	Version uint16
	Body    cbor.RawMessage
}

var (
	schemaMutex    sync.RWMutex
	schemaVersions = map[RecordKind]uint16{
		RecordKindState:    1,
		RecordKindAccount:  1,
		RecordKindVote:     1,
		RecordKindProposal: 1,
		RecordKindBucket:   1,
		RecordKindTransfer: 1,
	}
	schemaUpgrades = map[RecordKind]map[uint16]UpgradeFunc{}
)

// RegisterSchema sets the current version for a record kind
func RegisterSchema(kind RecordKind, version uint16) {
	schemaMutex.Lock()
	defer schemaMutex.Unlock()
	schemaVersions[kind] = version
}

// RegisterUpgrade registers the conversion from version from to from+1
func RegisterUpgrade(kind RecordKind, from uint16, fn UpgradeFunc) {
	schemaMutex.Lock()
	defer schemaMutex.Unlock()
	if _, ok := schemaUpgrades[kind]; !ok {
		schemaUpgrades[kind] = make(map[uint16]UpgradeFunc)
	}
	schemaUpgrades[kind][from] = fn
}

func SchemaVersion(kind RecordKind) uint16 {
	schemaMutex.RLock()
	defer schemaMutex.RUnlock()
	return schemaVersions[kind]
}

// Encode wraps the CBOR encoding of v in a versioned envelope
func Encode(kind RecordKind, v any) ([]byte, error) {
	version := SchemaVersion(kind)
	if version == 0 {
		return nil, fmt.Errorf("%w: no schema for %s", ErrUnknownSchemaVersion, kind)
	}
	body, err := cbor.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	return cbor.Marshal(envelope{Version: version, Body: body})
}

// Decode unwraps a versioned envelope, upgrades the body to the current
// schema version, and decodes it into dst
func Decode(kind RecordKind, data []byte, dst any) error {
	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode %s envelope: %w", kind, err)
	}
	schemaMutex.RLock()
	current := schemaVersions[kind]
	upgrades := schemaUpgrades[kind]
	schemaMutex.RUnlock()
	if env.Version == 0 || env.Version > current {
		return fmt.Errorf(
			"%w: %s version %d (current %d)",
			ErrUnknownSchemaVersion,
			kind,
			env.Version,
			current,
		)
	}
	body := env.Body
	for version := env.Version; version < current; version++ {
		fn, ok := upgrades[version]
		if !ok {
			return fmt.Errorf(
				"%w: no upgrade for %s from version %d",
				ErrUnknownSchemaVersion,
				kind,
				version,
			)
		}
		var err error
		body, err = fn(body)
		if err != nil {
			return fmt.Errorf("upgrade %s from version %d: %w", kind, version, err)
		}
	}
	if err := cbor.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode %s: %w", kind, err)
	}
	return nil
}
