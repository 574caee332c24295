package preset

// yamlPreset is the on-disk form of types.Preset.
type yamlPreset struct {
	Name             string   `yaml:"name"`
	ID               string   `yaml:"id"`
	Pattern          string   `yaml:"pattern"`
	Description      string   `yaml:"description,omitempty"`
	Examples         []string `yaml:"examples,omitempty"`
	NegativeExamples []string `yaml:"negative_examples,omitempty"`
	References       []string `yaml:"references,omitempty"`
	Categories       []string `yaml:"categories,omitempty"`
	Keywords         []string `yaml:"keywords,omitempty"`
}

// yamlPresetsFile is the top level of a presets file: a "presets" array.
type yamlPresetsFile struct {
	Presets []yamlPreset `yaml:"presets"`
}

type yamlPresetSet struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	PresetIDs   []string `yaml:"include_preset_ids"`
}

type yamlPresetSetsFile struct {
	Sets []yamlPresetSet `yaml:"sets"`
}
