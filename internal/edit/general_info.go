package edit

import (
	"fmt"
	"maps"

	"evalgo.org/adjvalet/models"
)

// UpdateGeneralInfoField renames oldKey to newKey inside section and sets
// its value in one step. A missing section is created. Renaming onto
// another existing key is rejected.
func UpdateGeneralInfoField(cfg *models.ADJConfig, section, oldKey, newKey string, value any) (*models.ADJConfig, error) {
	if blank(section) {
		return nil, invalid("section name is required")
	}
	if blank(newKey) {
		return nil, invalid("key is required")
	}
	if !models.IsScalar(value) {
		return nil, invalid("value for %s.%s must be a string or a number, got %T", section, newKey, value)
	}

	current := cfg.Section(section)
	if _, exists := current[newKey]; exists && newKey != oldKey {
		return nil, duplicate("key %q already exists in section %q", newKey, section)
	}

	next := maps.Clone(current)
	if next == nil {
		next = models.Section{}
	}
	if oldKey != newKey {
		delete(next, oldKey)
	}
	next[newKey] = value
	return withSection(cfg, section, next), nil
}

// AddGeneralInfoField inserts a placeholder key with an empty value and
// returns the key: new_key, or new_key_1, new_key_2, ... on collision.
func AddGeneralInfoField(cfg *models.ADJConfig, section string) (*models.ADJConfig, string, error) {
	if blank(section) {
		return nil, "", invalid("section name is required")
	}

	current := cfg.Section(section)
	key := "new_key"
	for i := 1; ; i++ {
		if _, exists := current[key]; !exists {
			break
		}
		key = fmt.Sprintf("new_key_%d", i)
	}

	next := maps.Clone(current)
	if next == nil {
		next = models.Section{}
	}
	next[key] = ""
	return withSection(cfg, section, next), key, nil
}

// RemoveGeneralInfoField deletes a key. Missing sections or keys are a
// no-op.
func RemoveGeneralInfoField(cfg *models.ADJConfig, section, key string) *models.ADJConfig {
	current := cfg.Section(section)
	if _, exists := current[key]; !exists {
		return cfg
	}
	next := maps.Clone(current)
	delete(next, key)
	return withSection(cfg, section, next)
}

func withSection(cfg *models.ADJConfig, name string, section models.Section) *models.ADJConfig {
	var info models.GeneralInfo
	if cfg != nil {
		info = cfg.GeneralInfo.Clone()
	} else {
		info = models.GeneralInfo{}
	}
	info[name] = section
	return cfg.WithGeneralInfo(info)
}
