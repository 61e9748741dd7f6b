package taxonomy

import "sync"

// Node ids double as Google Places type names where one exists, so source
// results can be mapped back without a translation table.
var defaultNodes = []Node{
	{ID: "food", Name: "Dining and Drinking"},
	{ID: "restaurant", Name: "Restaurant", Parent: "food"},
	{ID: "taco_place", Name: "Taco Place", Parent: "restaurant"},
	{ID: "pizza_place", Name: "Pizzeria", Parent: "restaurant"},
	{ID: "sushi_restaurant", Name: "Sushi Restaurant", Parent: "restaurant"},
	{ID: "ramen_restaurant", Name: "Ramen Restaurant", Parent: "restaurant"},
	{ID: "steakhouse", Name: "Steakhouse", Parent: "restaurant"},
	{ID: "seafood_restaurant", Name: "Seafood Restaurant", Parent: "restaurant"},
	{ID: "vegetarian_restaurant", Name: "Vegetarian Restaurant", Parent: "restaurant"},
	{ID: "fine_dining", Name: "Fine Dining Restaurant", Parent: "restaurant"},
	{ID: "bistro", Name: "Bistro", Parent: "restaurant"},
	{ID: "meal_takeaway", Name: "Takeaway", Parent: "restaurant"},
	{ID: "cafe", Name: "Cafe", Parent: "food"},
	{ID: "coffee_shop", Name: "Coffee Shop", Parent: "cafe"},
	{ID: "tea_room", Name: "Tea Room", Parent: "cafe"},
	{ID: "bakery", Name: "Bakery", Parent: "food"},
	{ID: "breakfast_spot", Name: "Breakfast Spot", Parent: "food"},
	{ID: "brunch_spot", Name: "Brunch Spot", Parent: "breakfast_spot"},
	{ID: "dessert_shop", Name: "Dessert Shop", Parent: "food"},
	{ID: "ice_cream_shop", Name: "Ice Cream Shop", Parent: "dessert_shop"},
	{ID: "food_court", Name: "Food Hall", Parent: "food"},
	{ID: "street_food", Name: "Street Food", Parent: "food"},

	{ID: "nightlife", Name: "Nightlife"},
	{ID: "bar", Name: "Bar", Parent: "nightlife"},
	{ID: "cocktail_bar", Name: "Cocktail Bar", Parent: "bar"},
	{ID: "wine_bar", Name: "Wine Bar", Parent: "bar"},
	{ID: "pub", Name: "Pub", Parent: "bar"},
	{ID: "brewery", Name: "Brewery", Parent: "bar"},
	{ID: "night_club", Name: "Night Club", Parent: "nightlife"},
	{ID: "live_music_venue", Name: "Live Music Venue", Parent: "nightlife"},
	{ID: "karaoke", Name: "Karaoke Box", Parent: "nightlife"},

	{ID: "arts_entertainment", Name: "Arts and Entertainment"},
	{ID: "museum", Name: "Museum", Parent: "arts_entertainment"},
	{ID: "art_museum", Name: "Art Museum", Parent: "museum"},
	{ID: "history_museum", Name: "History Museum", Parent: "museum"},
	{ID: "science_museum", Name: "Science Museum", Parent: "museum"},
	{ID: "art_gallery", Name: "Art Gallery", Parent: "arts_entertainment"},
	{ID: "theater", Name: "Theater", Parent: "arts_entertainment"},
	{ID: "tourist_attraction", Name: "Tourist Attraction", Parent: "arts_entertainment"},
	{ID: "historic_site", Name: "Historic Site", Parent: "tourist_attraction"},
	{ID: "castle", Name: "Castle", Parent: "historic_site"},
	{ID: "monument", Name: "Monument", Parent: "historic_site"},
	{ID: "landmark", Name: "Landmark", Parent: "tourist_attraction"},
	{ID: "amusement_park", Name: "Amusement Park", Parent: "arts_entertainment"},
	{ID: "zoo", Name: "Zoo", Parent: "arts_entertainment"},
	{ID: "aquarium", Name: "Aquarium", Parent: "arts_entertainment"},

	{ID: "outdoors", Name: "Landmarks and Outdoors"},
	{ID: "park", Name: "Park", Parent: "outdoors"},
	{ID: "national_park", Name: "National Park", Parent: "park"},
	{ID: "botanical_garden", Name: "Botanical Garden", Parent: "park"},
	{ID: "beach", Name: "Beach", Parent: "outdoors"},
	{ID: "hiking_trail", Name: "Hiking Trail", Parent: "outdoors"},
	{ID: "scenic_lookout", Name: "Scenic Lookout", Parent: "outdoors"},
	{ID: "lake", Name: "Lake", Parent: "outdoors"},

	{ID: "shopping", Name: "Retail"},
	{ID: "shopping_mall", Name: "Shopping Mall", Parent: "shopping"},
	{ID: "market", Name: "Market", Parent: "shopping"},
	{ID: "book_store", Name: "Bookstore", Parent: "shopping"},
	{ID: "boutique", Name: "Boutique", Parent: "shopping"},

	{ID: "wellness", Name: "Health and Wellness"},
	{ID: "spa", Name: "Spa", Parent: "wellness"},
	{ID: "hot_spring", Name: "Hot Spring", Parent: "wellness"},

	{ID: "sports", Name: "Sports and Recreation"},
	{ID: "stadium", Name: "Stadium", Parent: "sports"},
	{ID: "climbing_gym", Name: "Climbing Gym", Parent: "sports"},

	{ID: "place_of_worship", Name: "Spiritual Center"},
	{ID: "church", Name: "Church", Parent: "place_of_worship"},
	{ID: "temple", Name: "Temple", Parent: "place_of_worship"},
	{ID: "mosque", Name: "Mosque", Parent: "place_of_worship"},
	{ID: "shrine", Name: "Shrine", Parent: "place_of_worship"},
}

var (
	defaultOnce sync.Once
	defaultTax  *Taxonomy
)

// Default returns the built-in category forest.
func Default() *Taxonomy {
	defaultOnce.Do(func() {
		defaultTax = MustNew(defaultNodes)
	})
	return defaultTax
}
