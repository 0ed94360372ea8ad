package color

// palette lists the selectable personal color categories in menu order.
// Index 0 is a placeholder so menu positions 1-10 map directly.
var palette = []string{
	"",
	"spring light",
	"spring bright",
	"summer light",
	"summer bright",
	"summer muted",
	"autumn muted",
	"autumn strong",
	"autumn deep",
	"winter bright",
	"winter deep",
}

// PaletteLabel resolves a 1-based menu selection to its category label.
func PaletteLabel(selection int) (string, bool) {
	if selection < 1 || selection >= len(palette) {
		return "", false
	}
	return palette[selection], true
}

// PaletteLabels returns the selectable labels in menu order.
func PaletteLabels() []string {
	labels := make([]string, 0, len(palette)-1)
	for _, label := range palette[1:] {
		labels = append(labels, label)
	}
	return labels
}
