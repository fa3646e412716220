package preprocess

// Lexicons are ordered: rules that stop at the first match report the
// earliest entry, not the earliest position in the text.

// sensationalistPhrases returns clickbait phrases (Portuguese, English, Spanish)
func sensationalistPhrases() []string {
	return []string{
		"chocante", "urgente", "exclusivo", "bomba", "escândalo",
		"revelação", "descoberta incrível", "você não vai acreditar",
		"médicos odeiam", "governo esconde", "mídia não mostra",
		"shocking", "urgent", "exclusive", "bombshell", "scandal",
		"you won't believe", "doctors hate", "government hides", "media won't show",
		"impactante", "escándalo", "no vas a creer", "los médicos odian",
	}
}

// sourceCues returns words that indicate the text attributes its claims
func sourceCues() []string {
	return []string{
		"segundo", "de acordo com", "conforme", "fonte", "estudo",
		"pesquisa", "dados", "relatório", "publicado",
		"according to", "source", "study", "research", "data", "report", "published",
		"según", "de acuerdo con", "fuente", "estudio", "investigación", "datos", "informe",
	}
}

// numberContextWords returns units and qualifiers that give bare numbers context
func numberContextWords() []string {
	return []string{
		"%", "por cento", "milhão", "mil", "bilhão", "estudo", "pesquisa",
		"percent", "million", "billion", "thousand", "study", "research",
		"por ciento", "millón", "millones", "estudio",
	}
}

// emotionalWords returns fear and panic vocabulary. Entries must be distinct.
func emotionalWords() []string {
	return []string{
		"medo", "terror", "pânico", "desespero", "tragédia",
		"catástrofe", "apocalipse", "fim do mundo",
		"fear", "panic", "despair", "tragedy", "catastrophe", "apocalypse", "end of the world",
		"miedo", "pánico", "desesperación", "tragedia", "apocalipsis", "fin del mundo",
	}
}

// conspiracyIndicators returns keywords typical of conspiracy narratives
func conspiracyIndicators() []string {
	return []string{
		"conspiração", "illuminati", "nova ordem mundial",
		"governo secreto", "controle mental", "chip",
		"conspiracy", "new world order", "secret government", "mind control", "deep state",
		"conspiración", "nuevo orden mundial", "gobierno secreto", "control mental",
	}
}
