// SPDX-License-Identifier: AGPL-3.0-only
package feed

import (
	"math/rand"
	"strings"

	"golang.org/x/text/language"
)

// Canned text pools, one set per supported language. These back every place
// the engine needs content without calling the text-generation service:
// fallback post bodies, simulated comments and threaded replies.

var supportedLangs = []language.Tag{
	language.Spanish, // default
	language.English,
}

var langMatcher = language.NewMatcher(supportedLangs)

// NormalizeLang maps an arbitrary language code onto a supported pool key,
// "es" or "en". Variants like "en-US" match their base language.
func NormalizeLang(code string) string {
	tag, _ := language.MatchStrings(langMatcher, code)
	base, _ := tag.Base()
	if base.String() == "en" {
		return "en"
	}
	return "es"
}

var fallbackPosts = map[string][]string{
	"es": {
		"Hoy me levanté con ganas de conquistar el mundo… o al menos la tarde.",
		"¿Alguien más piensa que los atardeceres deberían durar el doble?",
		"Nueva sesión de fotos lista. No puedo esperar a enseñaros el resultado.",
		"Día de café, música suave y planes secretos.",
		"A veces lo mejor del día es no tener ningún plan.",
		"Me he propuesto aprender algo nuevo esta semana. Acepto sugerencias.",
		"Noche de películas. ¿Clásico o estreno?",
		"Pequeños momentos, grandes recuerdos.",
		"Hoy toca entrenar. El esfuerzo de hoy es el brillo de mañana.",
		"¿Playa o montaña? Yo ya tengo mi respuesta.",
		"Probando una receta nueva. Si no salgo en dos horas, mandad ayuda.",
		"La música alta y el ánimo más alto todavía.",
	},
	"en": {
		"Woke up today ready to take on the world… or at least the afternoon.",
		"Does anyone else think sunsets should last twice as long?",
		"New photo session done. Can't wait to show you the result.",
		"Coffee, soft music and secret plans kind of day.",
		"Sometimes the best part of the day is having no plans at all.",
		"Decided to learn something new this week. Suggestions welcome.",
		"Movie night. Classic or new release?",
		"Small moments, big memories.",
		"Training day. Today's effort is tomorrow's glow.",
		"Beach or mountains? I already know my answer.",
		"Trying a new recipe. If I'm not back in two hours, send help.",
		"Music loud, spirits louder.",
	},
}

var simComments = map[string][]string{
	"es": {
		"¡Me encanta! 😍",
		"Qué bueno, necesitaba leer esto hoy.",
		"Totalmente de acuerdo contigo.",
		"Jajaja eres única 😂",
		"¡Cuenta más! Quiero detalles.",
		"Esto merece muchos más likes.",
	},
	"en": {
		"Love this! 😍",
		"So good, I needed to read this today.",
		"I completely agree with you.",
		"Haha you're one of a kind 😂",
		"Tell us more! I want details.",
		"This deserves way more likes.",
	},
}

// Reply templates take the replied-to author's display name.
var simReplies = map[string][]string{
	"es": {
		"{{name}} ¡pienso exactamente lo mismo!",
		"{{name}} jajaja no puedo estar más de acuerdo.",
		"{{name}} tú siempre con los mejores comentarios.",
	},
	"en": {
		"{{name}} I think exactly the same!",
		"{{name}} haha couldn't agree more.",
		"{{name}} you always have the best comments.",
	},
}

func pickText(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}

// FallbackPostText returns a canned post body for the given language code.
func FallbackPostText(rng *rand.Rand, lang string) string {
	return pickText(rng, fallbackPosts[NormalizeLang(lang)])
}

func commentText(rng *rand.Rand, lang string) string {
	return pickText(rng, simComments[NormalizeLang(lang)])
}

func replyText(rng *rand.Rand, lang, targetName string) string {
	tpl := pickText(rng, simReplies[NormalizeLang(lang)])
	return strings.ReplaceAll(tpl, "{{name}}", targetName)
}
