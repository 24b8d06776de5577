package ports

// FontResolver maps a human-readable font family name to an on-disk font file.
type FontResolver interface {
	// Resolve returns the path of the font file for family.
	// It returns an error wrapping pipeline.ErrFontNotFound when nothing matches.
	Resolve(family string) (string, error)

	// Families lists the family names the resolver can find, sorted.
	Families() []string
}
