package taxonomy

// DefaultSpecs returns the built-in taxonomy of the farm-management
// application whose navigation logs chordmap was written for.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Name:       "Bienvenue",
			Color:      "#FF9E9E",
			Categories: []string{"bienvenue", "mes-fermes", "Mon Compte", "account-confirm", "auth", "ma-ferme"},
		},
		{
			Name:       "Paramètrer",
			Color:      "#FFD580",
			Categories: []string{"Dessiner mes parcelles", "Paramétrer ma ferme", "Mes intrants", "Semences et plants", "Mes tâches"},
		},
		{
			Name:       "Planifier",
			Color:      "#A2D5A2",
			Categories: []string{"Mes itinéraires de culture", "Mes planifications"},
		},
		{
			Name:       "Cultiver",
			Color:      "#90CAF9",
			Categories: []string{"Plan de Culture", "Fiches de culture", "Mes implantations", "Mon semainier", "Mon prévisionnel de récoltes", "mes-observations"},
		},
		{
			Name:       "Diffuser",
			Color:      "#C1A4D9",
			Categories: []string{"Mes semences et plants", "Ma traçabilité", "Gestion de stock", "Consommations intrants", "Analyse des ventes"},
		},
		{
			Name:       "Tutorial",
			Color:      "#FF0000",
			Categories: []string{"tutorial"},
		},
	}
}

// Default builds the built-in table. It panics only if DefaultSpecs is
// itself invalid.
func Default() *Table {
	t, err := New(DefaultSpecs(), Spec{})
	if err != nil {
		panic("taxonomy: invalid built-in table: " + err.Error())
	}
	return t
}
