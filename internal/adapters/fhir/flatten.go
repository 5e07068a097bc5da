// internal/adapters/fhir/flatten.go
package fhir

import (
	"strings"

	"sante-search/internal/search"
)

// The gateway returns full FHIR resources; downstream stages only understand
// the flat item vocabulary. Each flattener pulls the handful of fields its
// resource type contributes and drops the rest of the resource.

// Directory-specific markers inside PractitionerRole resources: the nominal
// extension carrying the practitioner's name, and the profession code system.
const (
	roleNameExtensionURL = "PractitionerRole-Name"
	professionSystem     = "TRE-G15-ProfessionSante"
)

func organizationItems(b *Bundle) []search.Item {
	items := make([]search.Item, 0, len(b.Entry))
	for _, r := range b.Resources() {
		item := search.Item{search.ItemKeyID: str(r, "id")}
		if name := str(r, "name"); name != "" {
			item[search.ItemKeyName] = name
		}
		if addr, ok := firstMap(r, "address"); ok {
			if postal := str(addr, "postalCode"); postal != "" {
				item[search.ItemKeyPostalCode] = postal
			}
			if city := str(addr, "city"); city != "" {
				item[search.ItemKeyCity] = city
			}
		}
		items = append(items, item)
	}
	return items
}

func practitionerRoleItems(b *Bundle) []search.Item {
	items := make([]search.Item, 0, len(b.Entry))
	for _, r := range b.Resources() {
		item := search.Item{search.ItemKeyID: str(r, "id")}

		if humanName, ok := roleHumanName(r); ok {
			if family := str(humanName, "family"); family != "" {
				item[search.ItemKeyFamily] = family
			}
			if given := firstString(sliceField(humanName, "given")); given != "" {
				item[search.ItemKeyGiven] = given
			}
			if prefix := firstString(sliceField(humanName, "prefix")); prefix != "" {
				item[search.ItemKeyPrefix] = prefix
			}
		}
		if code := professionCode(r); code != "" {
			item[search.ItemKeyProfession] = code
		}
		if org, ok := mapField(r, "organization"); ok {
			if ref := str(org, "reference"); ref != "" {
				item[search.ItemKeyOrgRef] = referenceID(ref)
			}
		}
		items = append(items, item)
	}
	return items
}

func practitionerItems(b *Bundle) []search.Item {
	items := make([]search.Item, 0, len(b.Entry))
	for _, r := range b.Resources() {
		item := search.Item{search.ItemKeyID: str(r, "id")}
		if name, ok := firstMap(r, "name"); ok {
			if family := str(name, "family"); family != "" {
				item[search.ItemKeyFamily] = family
			}
			if given := firstString(sliceField(name, "given")); given != "" {
				item[search.ItemKeyGiven] = given
			}
			if prefix := firstString(sliceField(name, "prefix")); prefix != "" {
				item[search.ItemKeyPrefix] = prefix
			}
		}
		items = append(items, item)
	}
	return items
}

func healthcareServiceItems(b *Bundle) []search.Item {
	items := make([]search.Item, 0, len(b.Entry))
	for _, r := range b.Resources() {
		item := search.Item{search.ItemKeyID: str(r, "id")}
		if name := str(r, "name"); name != "" {
			item[search.ItemKeyName] = name
		}
		if concept, ok := firstMap(r, "type"); ok {
			if label := conceptLabel(concept); label != "" {
				item[search.ItemKeyServiceType] = label
			}
		}
		if provider, ok := mapField(r, "providedBy"); ok {
			if ref := str(provider, "reference"); ref != "" {
				item[search.ItemKeyOrgRef] = referenceID(ref)
			}
		}
		items = append(items, item)
	}
	return items
}

func deviceItems(b *Bundle) []search.Item {
	items := make([]search.Item, 0, len(b.Entry))
	for _, r := range b.Resources() {
		item := search.Item{search.ItemKeyID: str(r, "id")}
		if concept, ok := mapField(r, "type"); ok {
			if label := conceptLabel(concept); label != "" {
				item[search.ItemKeyDeviceType] = label
			}
		}
		if owner, ok := mapField(r, "owner"); ok {
			if ref := str(owner, "reference"); ref != "" {
				item[search.ItemKeyOrgRef] = referenceID(ref)
			}
		}
		items = append(items, item)
	}
	return items
}

// roleHumanName finds the nominal extension on a PractitionerRole and returns
// its valueHumanName. The directory publishes the practitioner's name there
// rather than on a contained Practitioner.
func roleHumanName(r map[string]interface{}) (map[string]interface{}, bool) {
	for _, e := range sliceField(r, "extension") {
		ext, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		if !strings.Contains(str(ext, "url"), roleNameExtensionURL) {
			continue
		}
		if name, ok := mapField(ext, "valueHumanName"); ok {
			return name, true
		}
	}
	return nil, false
}

// professionCode scans code[].coding[] for the national profession code
// system and returns its code.
func professionCode(r map[string]interface{}) string {
	for _, c := range sliceField(r, "code") {
		concept, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		for _, cd := range sliceField(concept, "coding") {
			coding, ok := cd.(map[string]interface{})
			if !ok {
				continue
			}
			if strings.Contains(str(coding, "system"), professionSystem) {
				if code := str(coding, "code"); code != "" {
					return code
				}
			}
		}
	}
	return ""
}

// conceptLabel returns a human label for a CodeableConcept: the first coding
// display, falling back to the concept text.
func conceptLabel(concept map[string]interface{}) string {
	if coding, ok := firstMap(concept, "coding"); ok {
		if display := str(coding, "display"); display != "" {
			return display
		}
	}
	return str(concept, "text")
}

// referenceID strips the resource-type prefix from a FHIR reference:
// "Organization/org-9" becomes the bare "org-9" the rest of the pipeline
// keys on.
func referenceID(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func str(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func mapField(m map[string]interface{}, key string) (map[string]interface{}, bool) {
	v, ok := m[key].(map[string]interface{})
	return v, ok
}

func sliceField(m map[string]interface{}, key string) []interface{} {
	v, _ := m[key].([]interface{})
	return v
}

func firstMap(m map[string]interface{}, key string) (map[string]interface{}, bool) {
	for _, v := range sliceField(m, key) {
		if mv, ok := v.(map[string]interface{}); ok {
			return mv, true
		}
	}
	return nil, false
}

func firstString(v []interface{}) string {
	for _, e := range v {
		if s, ok := e.(string); ok && s != "" {
			return s
		}
	}
	return ""
}
