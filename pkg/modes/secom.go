package modes

import (
	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/dsl"
)

// SECOM is the mode table of correlative light/electron systems.
var SECOM = secomTable()

func secomTable() domain.ModeTable {
	b := dsl.New(domain.FamilySECOM)

	b.Mode("optical").
		Detector("ccd")

	b.Mode("confocal").
		Detector("photo-detector.*")

	b.Mode(domain.ModeFineAlign).
		Detector("ccd").
		Align().
		Set("filter", "band", "pass-through")

	return b.MustBuild()
}
