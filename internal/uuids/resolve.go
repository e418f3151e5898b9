package uuids

import (
	"regexp"
	"strings"
)

// Source values for a resolved Record.
const (
	// SourceSIG marks entries from the Bluetooth SIG assigned-numbers tables.
	SourceSIG = "gss"

	// SourceCustom marks synthetic records for UUIDs not in any table.
	SourceCustom = "custom"
)

// Category identifies which assigned-numbers table an entry belongs to.
type Category string

const (
	CategoryService        Category = "Service"
	CategoryCharacteristic Category = "Characteristic"
	CategoryDescriptor     Category = "Descriptor"
)

// Record describes a resolved UUID.
type Record struct {
	// Name is the human-readable name, e.g. "Temperature".
	Name string

	// Identifier is the SIG identifier, e.g.
	// "org.bluetooth.characteristic.temperature". Empty for custom UUIDs.
	Identifier string

	// UUID is the normalized UUID the record was matched under: the 16-bit
	// short form for base-UUID matches, otherwise the input as given.
	UUID string

	// Source is SourceSIG for table hits or SourceCustom for the fallback.
	Source string
}

// baseUUIDPattern matches 128-bit UUIDs built on the Bluetooth base UUID
// (0000xxxx-0000-1000-8000-00805F9B34FB) and captures the 16-bit short form.
var baseUUIDPattern = regexp.MustCompile(`0{4}([0-9A-F]{4})-0{4}-10{3}-80{3}-00805F9B34FB`)

// Normalize reduces a 128-bit UUID to its 16-bit Bluetooth SIG short form
// when it matches the standard base-UUID pattern, case-insensitively.
// UUIDs outside the base range are returned unchanged apart from upper-casing.
func Normalize(uuid string) string {
	upper := strings.ToUpper(uuid)
	if m := baseUUIDPattern.FindStringSubmatch(upper); m != nil {
		return m[1]
	}
	return upper
}

// Resolve looks up a UUID across all assigned-numbers tables in fixed
// priority order: services, then characteristics, then descriptors.
//
// Unknown UUIDs produce a synthetic "Custom UUID" record rather than an
// error; Resolve never fails. Safe for concurrent use — the tables are
// immutable after package initialization.
func Resolve(uuid string) Record {
	normalized := Normalize(uuid)

	for _, table := range []map[string]entry{services, characteristics, descriptors} {
		if e, ok := table[normalized]; ok {
			return Record{
				Name:       e.name,
				Identifier: e.identifier,
				UUID:       normalized,
				Source:     SourceSIG,
			}
		}
	}

	return Record{
		Name:   "Custom UUID",
		UUID:   normalized,
		Source: SourceCustom,
	}
}

// ResolveCategory looks up a UUID in a single category table. The fallback
// record names the category ("Custom Service", "Custom Characteristic",
// "Custom Descriptor") so callers can label unknown entries precisely.
func ResolveCategory(uuid string, category Category) Record {
	normalized := Normalize(uuid)

	var table map[string]entry
	switch category {
	case CategoryService:
		table = services
	case CategoryCharacteristic:
		table = characteristics
	case CategoryDescriptor:
		table = descriptors
	}

	if e, ok := table[normalized]; ok {
		return Record{
			Name:       e.name,
			Identifier: e.identifier,
			UUID:       normalized,
			Source:     SourceSIG,
		}
	}

	return Record{
		Name:   "Custom " + string(category),
		UUID:   normalized,
		Source: SourceCustom,
	}
}
