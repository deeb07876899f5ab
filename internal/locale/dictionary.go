package locale

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localesFS embed.FS

// Dictionary maps flat translation keys ("chat.welcome") to localized text.
type Dictionary map[string]string

// LoadDictionaries parses the embedded dictionary of every supported tag.
func LoadDictionaries() (map[Tag]Dictionary, error) {
	dicts := make(map[Tag]Dictionary, len(supported))
	for _, tag := range supported {
		data, err := localesFS.ReadFile("locales/" + string(tag) + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("read %s dictionary: %w", tag, err)
		}
		dict, err := ParseDictionary(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s dictionary: %w", tag, err)
		}
		dicts[tag] = dict
	}
	return dicts, nil
}

// ParseDictionary decodes a flat YAML mapping of keys to strings.
func ParseDictionary(data []byte) (Dictionary, error) {
	dict := Dictionary{}
	if err := yaml.Unmarshal(data, &dict); err != nil {
		return nil, err
	}
	return dict, nil
}
