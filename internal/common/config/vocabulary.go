// internal/common/config/vocabulary.go
package config

// Default vocabulary tables for the French national healthcare directory.
// Profession codes follow the TRE-G15-ProfessionSante nomenclature. Deployments
// can replace any table from config.yaml; what is listed here is the canonical
// baseline so the engine works out of the box.

func defaultSpecialties() map[string]string {
	return map[string]string{
		// Médecine générale
		"médecin":              "60",
		"medecin":              "60",
		"docteur":              "60",
		"doctor":               "60",
		"généraliste":          "60",
		"generaliste":          "60",
		"général practitioner": "60",
		"general practitioner": "60",
		"gp":                   "60",

		// Professions réglementées avec code dédié
		"kinésithérapeute": "40",
		"kinesitherapeute": "40",
		"physiotherapist":  "40",
		"physiothérapeute": "40",
		"ostéopathe":       "50",
		"osteopathe":       "50",
		"osteopath":        "50",
		"chiropracteur":    "54",
		"chiropractor":     "54",
		"dentiste":         "86",
		"dentist":          "86",
		"sage-femme":       "31",
		"sage femme":       "31",
		"midwife":          "31",
		"pharmacien":       "96",
		"pharmacist":       "96",
		"infirmier":        "23",
		"infirmière":       "23",
		"infirmiere":       "23",
		"nurse":            "23",

		// Spécialités médicales regroupées sous le code spécialiste
		"spécialiste":     "95",
		"specialiste":     "95",
		"specialist":      "95",
		"cardiologue":     "95",
		"cardiologist":    "95",
		"dermatologue":    "95",
		"dermatologist":   "95",
		"pédiatre":        "95",
		"pediatre":        "95",
		"pediatrician":    "95",
		"gynécologue":     "95",
		"gynecologue":     "95",
		"gynecologist":    "95",
		"ophtalmologue":   "95",
		"ophtalmologiste": "95",
		"ophthalmologist": "95",
		"radiologue":      "95",
		"radiologist":     "95",
		"psychiatre":      "95",
		"psychiatrist":    "95",
	}
}

func defaultVariants() map[string]string {
	return map[string]string{
		"kiné":                "kinésithérapeute",
		"kine":                "kinésithérapeute",
		"kinesiterapeute":     "kinésithérapeute",
		"physio":              "kinésithérapeute",
		"dermato":             "dermatologue",
		"cardio":              "cardiologue",
		"gynéco":              "gynécologue",
		"gyneco":              "gynécologue",
		"ophtalmo":            "ophtalmologue",
		"chiro":               "chiropracteur",
		"osteo":               "ostéopathe",
		"ostéo":               "ostéopathe",
		"chirurgien dentiste": "dentiste",
		"chirurgien-dentiste": "dentiste",
		"sages-femmes":        "sage-femme",
		"sage-femmes":         "sage-femme",
		"médecin traitant":    "médecin",
		"family doctor":       "médecin",
	}
}

func defaultCities() []string {
	return []string{
		"paris", "lyon", "marseille", "toulouse", "nice", "nantes",
		"montpellier", "strasbourg", "bordeaux", "lille", "rennes",
		"reims", "toulon", "grenoble", "dijon", "angers", "nîmes",
	}
}

func applySearchDefaults(s *SearchConfig) {
	if s.FuzzyCutoff == 0 {
		s.FuzzyCutoff = 0.6
	}
	if s.DefaultCount == 0 {
		s.DefaultCount = 10
	}
	if s.MaxCount == 0 {
		s.MaxCount = 50
	}
	if len(s.Specialties) == 0 {
		s.Specialties = defaultSpecialties()
	}
	if len(s.Variants) == 0 {
		s.Variants = defaultVariants()
	}
	if len(s.Cities) == 0 {
		s.Cities = defaultCities()
	}
	if s.Metropolis.Name == "" {
		s.Metropolis = MetropolisConfig{
			Name:         "paris",
			PostalPrefix: "750",
			MinDistrict:  1,
			MaxDistrict:  20,
		}
	}
}
