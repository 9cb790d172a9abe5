package style

import (
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Profile is a named bundle of visual conventions injected into generation
// prompts. Profiles are static configuration, immutable at runtime.
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Fragment string `json:"-"`
	Palette  string `json:"palette"`
}

var profiles = map[string]Profile{
	"minimal-mono": {
		ID:      "minimal-mono",
		Name:    "minimal mono",
		Palette: "Black and white, generous whitespace, grotesque sans type",
		Fragment: "Visual style: strictly monochrome palette, white backgrounds, black text, " +
			"a single grotesque sans-serif family, generous spacing, no drop shadows, " +
			"subtle fade-in animations only.",
	},
	"warm-editorial": {
		ID:      "warm-editorial",
		Name:    "warm editorial",
		Palette: "Cream backgrounds, terracotta accents, serif headlines",
		Fragment: "Visual style: cream and terracotta palette, large serif display headlines " +
			"paired with a humanist sans for body text, editorial column layouts, " +
			"soft 300ms ease transitions.",
	},
	"neon-dark": {
		ID:      "neon-dark",
		Name:    "neon dark",
		Palette: "Near-black backgrounds, electric accent gradients",
		Fragment: "Visual style: near-black backgrounds, neon gradient accents on calls to action, " +
			"tight letter spacing, glassmorphism cards, springy hover animations.",
	},
	"soft-pastel": {
		ID:      "soft-pastel",
		Name:    "soft pastel",
		Palette: "Pastel blues and pinks, rounded corners, airy spacing",
		Fragment: "Visual style: pastel blue and pink palette, large border radii, airy spacing, " +
			"rounded friendly sans-serif type, gentle floating animations.",
	},
}

// Apply concatenates the named profile's prompt fragment onto the prompt.
// Unknown ids return the prompt unchanged: an invalid style must never block
// generation.
func Apply(prompt, profileID string) string {
	p, ok := profiles[profileID]
	if !ok {
		return prompt
	}
	return prompt + "\n\n" + p.Fragment
}

// Lookup returns the profile for id.
func Lookup(profileID string) (Profile, bool) {
	p, ok := profiles[profileID]
	return p, ok
}

// Catalog lists all profiles with display-cased names, sorted by id for a
// stable UI order.
func Catalog() []Profile {
	caser := cases.Title(language.English)
	out := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		p.Name = caser.String(p.Name)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
