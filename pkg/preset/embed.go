package preset

import "embed"

// builtinPresetsFS embeds the built-in preset catalogue.
//
//go:embed presets/*.yml
var builtinPresetsFS embed.FS

// builtinSetsFS embeds the built-in preset sets.
//
//go:embed sets/*.yml
var builtinSetsFS embed.FS
