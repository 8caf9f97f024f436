package view

import "strings"

// LinkIconOption describes a selectable icon option for link buttons.
type LinkIconOption struct {
	Key   string `json:"key"`
	Emoji string `json:"emoji"`
	Label string `json:"label"`
}

var (
	linkIconDefinitions = []LinkIconOption{
		{Key: "pricelist", Emoji: "📋", Label: "Pricelist"},
		{Key: "cart", Emoji: "🛒", Label: "Order"},
		{Key: "reseller", Emoji: "🤝", Label: "Reseller"},
		{Key: "testimonials", Emoji: "💬", Label: "Testimonials"},
		{Key: "about", Emoji: "ℹ️", Label: "About"},
		{Key: "calendar", Emoji: "📅", Label: "Booking"},
		{Key: "location", Emoji: "📍", Label: "Location"},
		{Key: "sparkles", Emoji: "✨", Label: "Highlight"},
		{Key: "instagram", Emoji: "📸", Label: "Instagram"},
		{Key: "phone", Emoji: "📞", Label: "Call"},
		{Key: "email", Emoji: "✉️", Label: "Email"},
		{Key: "website", Emoji: "🌐", Label: "Website"},
	}
	linkIconLookup = func() map[string]string {
		lookup := make(map[string]string, len(linkIconDefinitions))
		for _, icon := range linkIconDefinitions {
			lookup[icon.Key] = icon.Emoji
		}
		return lookup
	}()
)

// LinkIconOptions exposes the suggested icons for the admin form.
func LinkIconOptions() []LinkIconOption {
	options := make([]LinkIconOption, len(linkIconDefinitions))
	copy(options, linkIconDefinitions)
	return options
}

// ResolveLinkIcon maps a known keyword such as "cart" to its emoji.
// Anything else is returned trimmed, so free-form emoji pass through.
func ResolveLinkIcon(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if emoji, ok := linkIconLookup[strings.ToLower(trimmed)]; ok {
		return emoji
	}
	return trimmed
}
