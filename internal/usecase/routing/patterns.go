package routing

import "regexp"

// Pattern groups for the intent classifiers. Strong patterns trigger on
// their own; weak patterns only count towards a co-occurrence threshold
// so that a lone "menu" or "restaurant" does not hijack the query.
// Vocabulary is bilingual (French + English) to match the student body.

var (
	// Campus restaurant names and explicit eating phrases.
	foodStrongPattern = regexp.MustCompile(`(?i)\b(alpine|arcadie|esplanade|espla|native|ornithorynque|orni|piano|qu'est-ce qu'on mange|il y a quoi à manger|ya quoi|y'a quoi|où manger|quoi manger|on mange quoi|what'?s\s+for\s+(lunch|dinner|breakfast)|what\s+can\s+i\s+eat|where\s+to\s+eat|food\s+today|menus?\s+today|what'?s\s+on\s+the\s+menu|cafeteria|canteen)\b`)

	// "y'a quoi de veggie ..." style diet queries.
	foodDietQueryPattern = regexp.MustCompile(`(?i)\b(y'?\s*a\s+quoi|ya\s+quoi|qu'est-ce qu'on|on\s+mange\s+quoi|quoi\s+(de|d')|what'?s|is\s+there|are\s+there|any)\b[^.]{0,50}\b(végétarien|végé|veggie|vegan|vegetarian|plant[- ]based)\b`)

	// Diet words only count with an eating-context word nearby.
	foodDietWordPattern    = regexp.MustCompile(`(?i)\b(végétarien|végé|veggie|vegan|vegetarian|plant[- ]based)\b`)
	foodPriceWordPattern   = regexp.MustCompile(`(?i)\b(moins cher|cheapest|pas cher|prix|cheap|under|less\s+than|affordable|budget)\b`)
	foodContextWordPattern = regexp.MustCompile(`(?i)\b(manger|plat|resto|restaurant|menu|repas|cantine|midi|soir|déjeuner|dîner|eat|lunch|dinner|meal|food|cafeteria|canteen)\b`)

	// Weak food-adjacent vocabulary, counted for co-occurrence.
	foodWeakWordPattern = regexp.MustCompile(`(?i)\b(manger|menu|plat|repas|resto|restaurant|nourriture|déjeuner|dîner|cantine|cafétéria|midi|soir|aujourd'hui|demain|eat|eating|lunch|dinner|breakfast|meal|meals|food|cafeteria|canteen|dish|dishes|today|tomorrow)\b`)

	// Timetable, room and temporal vocabulary.
	schedulePattern = regexp.MustCompile(`(?i)\b(horaire|schedule|timetable|cours|class|lecture|planning|agenda|calendrier|calendar|demain|tomorrow|aujourd'hui|today|cette semaine|this week|prochaine|next|quand|when|heure|time|salle|room|où|where|leçon|lesson|what'?s\s+on|my\s+classes|my\s+lectures|my\s+schedule)\b`)

	// Explicit "post this on the board" phrasing.
	boardPattern = regexp.MustCompile(`(?i)\b(post|publie|publier|poste|poster|ask|demande)\b[^.]{0,60}\b(ed|forum|discussion\s*board|board)\b`)

	// Short conversational openers and pleasantries.
	smallTalkPattern = regexp.MustCompile(`(?i)^\s*(salut|bonjour|bonsoir|coucou|hello|hi|hey|yo|merci|thanks|thank you|ça va|ca va|how are you|good (morning|evening|night)|bye|au revoir|ok|okay|cool|super|👍|🙂)\b`)
)

// smallTalkMaxLen caps small-talk detection so short factual questions
// are never suppressed.
const smallTalkMaxLen = 30

// foodWeakThreshold is the minimum number of co-occurring weak food
// words needed to classify as a food question.
const foodWeakThreshold = 2
