/*
Package dsl provides a Go DSL for declaring mode tables.

It lets the built-in microscope tables (and tests) describe modes with a fluent
builder instead of nested map literals.

Example usage:

	b := dsl.New(domain.FamilySPARC2)

	b.Mode("ar").
		Detector("ccd").
		Active("lens-switch", "x").
		Set("slit-in-big", "x", "on").
		Set("spectrograph", "grating", domain.GratingMirror)

	b.Mode("mirror-align").
		Detector("ccd").
		Align().
		Set("filter", "band", "pass-through")

	table, err := b.Build()
*/
package dsl
