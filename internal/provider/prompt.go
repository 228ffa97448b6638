package provider

import (
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
)

const submitToolName = "submit_questions"

const systemPrompt = "Je bent een ervaren docent Nederlands die oefenmateriaal maakt voor werkwoordspelling. " +
	"Lever de vragen altijd aan via de tool submit_questions."

// questionSchema describes one batch of questions. The array sits under "questions"
// because tool parameters must be an object.
var questionSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"questions": {
			Type:        jsonschema.Array,
			Description: "De lijst met oefenvragen.",
			Items: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"incompleteSentence": {
						Type: jsonschema.String,
						Description: "Een zin met een placeholder '[___]' waar het werkwoord ingevuld moet worden, " +
							"gevolgd door het infinitief en de tijd tussen haakjes. " +
							"Bijvoorbeeld: 'De monteur [___] de banden. (verwisselen, tegenwoordige tijd)'",
					},
					"infinitive": {
						Type:        jsonschema.String,
						Description: "Het infinitief van het werkwoord. Bijvoorbeeld: 'verwisselen'",
					},
					"correctForm": {
						Type:        jsonschema.String,
						Description: "De correcte vervoeging van het werkwoord. Bijvoorbeeld: 'verwisselt'",
					},
					"tense": {
						Type: jsonschema.String,
						Description: "De tijd waarin het werkwoord vervoegd moet worden " +
							"(bijv. 'tegenwoordige tijd', 'verleden tijd', 'voltooid deelwoord').",
					},
					"explanation": {
						Type: jsonschema.String,
						Description: "Een korte, duidelijke uitleg van de spellingsregel die van toepassing is. " +
							"Bijvoorbeeld: 'Stam + t, omdat \\'de monteur\\' de derde persoon enkelvoud is.'",
					},
				},
				Required: []string{"incompleteSentence", "infinitive", "correctForm", "tense", "explanation"},
			},
		},
	},
	Required: []string{"questions"},
}

func buildPrompt(count int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Genereer een lijst van %d JSON-objecten voor een werkwoordspellingsoefening ", count))
	sb.WriteString("voor Nederlandse mbo-studenten (niveau 3/4). Elk object moet de opgegeven JSON-structuur hebben.\n\n")
	sb.WriteString("Eisen:\n")
	sb.WriteString("- Zorg voor een mix van verschillende werkwoordstijden (tegenwoordige tijd, verleden tijd, voltooid deelwoord)\n")
	sb.WriteString("- Wissel moeilijkheidsgraden af, met sterke en zwakke werkwoorden en regels zoals 't kofschip\n")
	sb.WriteString("- Elke zin bevat precies één keer de placeholder " + "'[___]'" + "\n")
	sb.WriteString("- De zinnen sluiten aan bij de belevingswereld van mbo-studenten: stage, werk, school of vrije tijd\n")
	sb.WriteString("- Vermijd te kinderachtige of te academische taal\n")
	sb.WriteString("- Gebruik de tool " + submitToolName + " om de vragen terug te geven\n")

	return sb.String()
}
