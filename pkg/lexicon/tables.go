package lexicon

// Version identifies the lexicon tables below. Bump it whenever a table
// changes so cached classifications can be invalidated.
const Version = "2024.06"

var foodTerms = []string{
	"restaurant", "cafe", "café", "coffee", "bakery", "breakfast", "brunch", "diner",
	"bistro", "eatery", "food", "pizza", "pizzeria", "taco", "sushi", "ramen", "noodle",
	"steakhouse", "seafood", "dessert", "ice cream", "takeaway", "deli", "bbq",
	"barbecue", "grill", "tea room", "patisserie", "pastry", "creperie", "trattoria",
	"brasserie", "tapas", "dining", "meal", "kitchen", "buffet", "gelato", "dim sum",
}

// overrideTerms mark food venues that are destinations in their own right.
var overrideTerms = []string{
	"food hall", "market", "tourist attraction", "landmark", "historic", "castle",
	"museum", "scenic lookout", "vineyard", "winery", "cooking class",
}

var nightlifeTerms = []string{
	"bar", "pub", "night club", "nightclub", "club", "cocktail", "wine bar", "brewery",
	"lounge", "karaoke", "live music", "jazz", "speakeasy", "nightlife", "taproom",
}

var activityTerms = []string{
	"museum", "gallery", "park", "garden", "beach", "trail", "lookout", "lake", "theater",
	"theatre", "castle", "monument", "landmark", "historic", "attraction", "zoo",
	"aquarium", "amusement", "spa", "hot spring", "stadium", "climbing", "market",
	"shopping", "mall", "boutique", "bookstore", "temple", "church", "shrine", "mosque",
	"cathedral", "palace", "tower", "viewpoint", "square", "bridge",
}

// traitKeywords maps profile traits to category keywords. Matching is a
// case-insensitive substring test against category names.
var traitKeywords = map[string][]string{
	"nature":    {"park", "garden", "beach", "trail", "lake", "botanical", "hiking", "scenic", "lookout", "nature", "forest", "mountain"},
	"urban":     {"plaza", "square", "shopping", "mall", "market", "street", "landmark", "tower", "boutique", "skyline"},
	"food":      {"restaurant", "cafe", "bakery", "food", "market", "dessert", "bistro", "coffee", "street food"},
	"nightlife": {"bar", "pub", "club", "cocktail", "brewery", "live music", "karaoke", "lounge"},
	"luxury":    {"fine dining", "spa", "boutique", "rooftop", "steakhouse", "wine bar", "luxury", "resort"},
	"culture":   {"museum", "gallery", "theater", "art", "cultural", "opera", "temple", "shrine", "church"},
	"history":   {"historic", "castle", "monument", "memorial", "history", "palace", "ruins", "heritage", "cathedral"},
	"adventure": {"hiking", "climbing", "amusement", "zoo", "kayak", "adventure", "trail", "theme park"},
	"relaxing":  {"spa", "hot spring", "garden", "tea room", "beach", "park", "cafe", "lake"},
	"social":    {"bar", "pub", "market", "food hall", "brewery", "karaoke", "night club", "stadium"},
	"art":       {"art", "gallery", "theater", "street art"},
	"shopping":  {"shopping", "mall", "market", "boutique", "bookstore"},
	"family":    {"zoo", "aquarium", "amusement", "park", "science museum"},
}

// foodTraits are the traits that make a profile a "foodie".
var foodTraits = []string{"food", "foodie", "culinary", "gastronomy", "dining"}

// baselineFoodTags are always searched so meal anchors are never starved.
var baselineFoodTags = []string{"restaurant", "cafe", "bakery", "breakfast"}

var slotKeywords = map[string][]string{
	"breakfast": {"breakfast", "brunch", "cafe", "café", "coffee", "bakery", "pastry", "patisserie", "diner", "tea room"},
	"dinner": {
		"restaurant", "dinner", "bistro", "steakhouse", "trattoria", "brasserie", "fine dining",
		"seafood", "sushi", "ramen", "pizzeria", "tavern", "grill", "tapas",
	},
}

// durations is ordered most specific first; the first match wins.
var durations = []struct {
	term    string
	minutes int
}{
	{"amusement park", 180},
	{"national park", 180},
	{"hiking", 180},
	{"stadium", 180},
	{"zoo", 150},
	{"theater", 150},
	{"theatre", 150},
	{"aquarium", 120},
	{"museum", 120},
	{"spa", 120},
	{"hot spring", 120},
	{"beach", 120},
	{"climbing", 120},
	{"night club", 120},
	{"live music", 120},
	{"botanical garden", 90},
	{"art gallery", 90},
	{"gallery", 90},
	{"castle", 90},
	{"shopping mall", 90},
	{"park", 90},
	{"bar", 90},
	{"pub", 90},
	{"brewery", 90},
	{"karaoke", 90},
	{"market", 75},
	{"food hall", 60},
	{"historic", 60},
	{"tourist attraction", 60},
	{"landmark", 45},
	{"bookstore", 45},
	{"church", 45},
	{"temple", 45},
	{"shrine", 45},
	{"mosque", 45},
	{"monument", 30},
	{"scenic lookout", 30},
}

// DefaultDuration applies when no category matches the duration table.
const DefaultDuration = 60

// Archetypes are the swipeable traveler personas. Liking one contributes its
// tags to discovery.
var Archetypes = map[string][]string{
	"beach-bum":        {"beach", "lake", "seafood"},
	"culture-vulture":  {"museum", "art gallery", "theater"},
	"history-buff":     {"historic site", "castle", "monument", "history museum"},
	"night-owl":        {"bar", "night club", "live music"},
	"foodie":           {"restaurant", "street food", "market", "food hall"},
	"outdoor-explorer": {"park", "hiking trail", "scenic lookout"},
	"shopaholic":       {"shopping mall", "market", "boutique"},
	"wellness-seeker":  {"spa", "hot spring", "botanical garden"},
	"family-fun":       {"zoo", "aquarium", "amusement park"},
}
