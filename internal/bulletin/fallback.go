package bulletin

import "boletin-iglesia/internal/model"

// DefaultFallback returns the bulletin shown when no other source is usable.
// Each call returns a fresh value.
func DefaultFallback() model.Bulletin {
	return model.Bulletin{
		WeekOf: model.Str("2026-02-01"),
		Announcements: []model.Announcement{
			{
				Title: "Torneo Bíblico - Sociedad Cristiana de Jóvenes",
				Body:  "Sábado 18:30 - Iglesia World Wide Mission.",
			},
			{
				Title: "Oración de Madrugada",
				Body:  "Sábado 18:30 - Iglesia World Wide Mission.",
			},
			{
				Title: "Taller de Pedagogía para Maestros de Escuela Dominical",
				Body:  "Sábado 18 de abril - Iglesia World Wide Mission.",
			},
		},
		SermonLeader:  model.Str("Pastor Gregorio Gironda"),
		WorshipLeader: model.Str("Hno. Audon Suxo"),
		ServiceTime:   model.Str("Domingo 9:00 - Culto Principal"),
		SundaySchool: &model.SundaySchool{
			Adults:   model.Str("Hno. Alvaro Flores"),
			Youth:    model.Str("Hna. Karen Arcani"),
			Pre:      model.Str("Hna. Viky Lizbeth Suxo"),
			Children: model.Str("Hna. Hortencia Peña"),
		},
	}
}
