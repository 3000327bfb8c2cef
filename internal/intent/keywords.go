package intent

var (
	travelCodes = []string{"travel"}

	resetWords   = []string{"reset", "restart"}
	resetPhrases = []string{"start over", "start fresh", "fresh start", "new conversation", "clear history", "clear memory", "forget everything", "begin again"}

	menuPhrases = []string{"main menu", "show menu", "help menu", "what can you do", "what can i ask", "what do you know", "show options", "list options", "what are my options"}
	menuExact   = []string{"menu", "help", "options", "commands", "?"}

	emergencyKeywords = []string{"emergency", "gas leak", "smell gas", "smells like gas", "carbon monoxide", "flood", "flooding", "ambulance", "911", "police", "break in", "broken into", "injured", "on fire", "smoke everywhere"}
	lockoutKeywords   = []string{"locked out", "lock out", "locked myself out", "can't get in", "cant get in", "cannot get in", "can't open the door", "cant open the door", "won't unlock", "wont unlock"}

	// Problem phrases that always indicate troubleshooting.
	problemStrong = []string{
		"not working", "isn't working", "isnt working", "is not working", "aren't working", "arent working",
		"doesn't work", "doesnt work", "does not work", "don't work", "dont work", "won't work", "wont work",
		"stopped working", "quit working", "broken", "won't turn on", "wont turn on", "not turning on",
		"won't connect", "wont connect", "can't connect", "cant connect", "cannot connect", "not connecting",
		"keeps disconnecting", "keeps dropping", "no signal", "no power", "not cooling", "not heating",
		"no hot water", "leaking", "clogged", "tripped", "beeping", "chirping", "error message", "not loading", "won't load",
	}
	// Problem words that only count when the message is not a plain information request.
	problemWeak = []string{"issue", "trouble", "problem", "fix", "glitch"}
	infoRequest = []string{"how to", "where is", "where are", "do you have", "is there", "are there", "what is", "what's"}

	troubleTV    = []string{"tv", "television", "remote", "roku", "netflix", "hulu", "cable", "channel", "streaming", "apple tv", "firestick", "fire stick", "smart tv", "hdmi"}
	troubleWifi  = []string{"wifi", "wi-fi", "wi fi", "internet", "network", "router", "modem", "connection", "wireless"}
	troubleEquip = []string{
		"ac", "a c", "air conditioning", "air conditioner", "heater", "heat", "thermostat", "washer", "dryer",
		"dishwasher", "fridge", "refrigerator", "freezer", "stove", "oven", "microwave", "coffee maker",
		"keurig", "hot tub", "jacuzzi", "pool heater", "toilet", "shower", "faucet", "sink", "disposal",
		"lock", "door", "garage door", "light", "lights", "fan", "ice maker", "grill", "water heater", "smoke detector",
	}

	servicesKeywords = []string{
		"additional services", "extra services", "concierge services", "housekeeping", "extra cleaning",
		"mid stay cleaning", "cleaning service", "private chef", "chef", "massage", "grocery delivery",
		"grocery stocking", "crib", "pack n play", "pack and play", "high chair", "stroller", "bike rental",
		"airport pickup", "photographer",
	}
	resortKeywords = []string{
		"resort amenities", "resort pool", "resort fee", "resort shuttle", "resort gym", "at the resort",
		"water park", "waterpark", "lazy river", "clubhouse", "golf", "golf course",
	}
	weatherKeywords   = []string{"weather", "forecast", "rain", "raining", "sunny", "hurricane", "storm", "humid", "temperature outside", "how hot", "how cold", "cold outside", "hot outside"}
	packingKeywords   = []string{"pack", "packing", "what to bring", "what should i bring", "what should we bring", "need to bring", "should i bring", "should we bring"}
	bestTimeKeywords  = []string{"best time to visit", "best time to go", "best time of year", "best day to go", "best time for", "least crowded time", "when should we go", "when is it least busy"}
	transportKeywords = []string{"uber", "lyft", "taxi", "cab", "bus", "rental car", "rent a car", "car rental", "get around", "train", "airport", "transportation", "public transit", "rideshare", "ride share"}
	eventsKeywords    = []string{"event", "festival", "concert", "happening", "this weekend", "fireworks", "live music", "shows tonight", "parade"}

	coffeeKeywords = []string{"coffee", "espresso", "latte", "cappuccino", "starbucks", "dunkin", "coffee shop", "cafe", "café"}
	coffeeExclude  = []string{"coffee maker", "coffee machine", "coffee pods", "coffee filters", "keurig", "nespresso", "k cups"}

	distanceStrong = []string{"how far", "directions to", "directions", "distance", "how long does it take to get", "how long to get", "how do i get to", "how do we get to", "drive to", "miles from", "from there", "from here"}
	distanceWeak   = []string{"near", "nearby", "close to", "closest", "nearest", "around here", "walking distance"}

	attractionKeywords = []string{
		"disney", "disney world", "universal", "epcot", "magic kingdom", "animal kingdom", "hollywood studios",
		"seaworld", "sea world", "theme park", "legoland", "attraction", "museum", "zoo", "aquarium",
		"sightseeing", "landmark", "national park", "state park", "kennedy space center", "gatorland",
	}

	foodKeywords = []string{
		"restaurant", "food", "eat", "eating", "dinner", "lunch", "breakfast", "brunch", "dining", "hungry",
		"pizza", "sushi", "bbq", "barbecue", "seafood", "steak", "steakhouse", "taco", "burger", "mexican",
		"italian", "chinese", "thai", "indian", "takeout", "take out", "places to eat", "where to eat",
		"cuisine", "diner", "bite to eat", "vegan", "vegetarian", "gluten free", "dessert", "ice cream", "grab a bite",
	}

	amenityKeywords = []string{
		"pool", "hot tub", "hottub", "jacuzzi", "spa", "gym", "fitness center", "fitness", "shuttle", "grill",
		"game room", "washer", "dryer", "coffee maker", "coffee machine", "keurig", "beach towels", "towels",
		"beach chairs", "hair dryer", "iron", "balcony", "fireplace", "fire pit", "tennis", "playground",
		"sauna", "elevator", "bikes", "kayak", "paddle board", "ping pong", "pool table", "amenities", "amenity",
	}

	vibeKeywords      = []string{"romantic", "casual", "upscale", "fancy", "quiet", "lively", "chill", "trendy", "cozy", "kid friendly", "family friendly", "date night", "laid back", "dressy", "local favorite", "hidden gem"}
	busynessKeywords  = []string{"busy", "crowded", "crowds", "wait time", "packed", "long lines", "how long is the wait", "reservation needed", "need a reservation"}
	propertyKeywords  = []string{"this property", "the property", "the house", "the home", "the condo", "the villa", "the unit", "the rental", "the cabin", "the apartment", "our place", "bedroom", "bathroom", "kitchen", "hot water", "breaker", "blinds", "linens", "sheets", "pillows", "blankets"}
	conjunctionWords  = []string{"and", "also", "plus"}
	questionWords     = []string{"what", "where", "when", "how", "which", "who", "is", "are", "can", "do", "does"}
	kidsKeywords      = []string{"kid", "kids", "children", "child", "toddler", "baby", "family", "families", "family friendly", "kid friendly", "teens", "little ones"}
	checkoutSoonWords = []string{"checking out tomorrow", "check out tomorrow", "checkout tomorrow", "leaving tomorrow", "leaving today", "our last night", "last night here", "last day", "checkout today", "check out today", "heading home"}
	urgentKeywords    = []string{"urgent", "asap", "emergency", "immediately", "right now", "right away"}
)

// singleIntentTable is the exhaustive fallback table; order matters.
var singleIntentTable = []struct {
	intent     Intent
	confidence float64
	keywords   []string
}{
	{Wifi, 0.95, []string{"wifi", "wi-fi", "wi fi", "internet", "network", "wireless", "password"}},
	{Checkout, 0.93, []string{"checkout", "check out", "check-out", "checking out", "leave by", "departure", "what time do we leave", "what time do i leave"}},
	{Checkin, 0.93, []string{"checkin", "check in", "check-in", "checking in", "arrival", "arrive", "early check"}},
	{Parking, 0.92, []string{"parking", "park", "garage", "driveway", "where do i park", "where to park", "car"}},
	{Access, 0.92, []string{"door code", "lockbox", "lock box", "key", "keypad", "entry code", "gate code", "access code", "get in", "how do i enter", "entrance", "smart lock"}},
	{Pets, 0.9, []string{"pet", "dog", "cat", "pet friendly", "puppy"}},
	{HouseRules, 0.9, []string{"house rules", "rules", "quiet hours", "smoking", "smoke", "party", "parties", "noise", "allowed", "visitors", "max occupancy"}},
	{Trash, 0.9, []string{"trash", "garbage", "recycling", "recycle", "bin", "rubbish", "dumpster"}},
	{Laundry, 0.9, []string{"laundry", "laundromat", "detergent", "wash clothes"}},
	{Grocery, 0.9, []string{"grocery", "groceries", "supermarket", "publix", "walmart", "target", "costco", "whole foods", "market"}},
	{Activities, 0.9, []string{"activities", "things to do", "something to do", "fun", "entertainment", "bored", "adventure", "tour", "hiking", "hike", "fishing", "boat", "mini golf"}},
	{Shopping, 0.9, []string{"shopping", "shop", "mall", "outlet", "boutique", "souvenir"}},
	{Nightlife, 0.9, []string{"bar", "nightlife", "club", "drinks", "cocktail", "brewery", "happy hour", "pub", "wine"}},
	{Beach, 0.9, []string{"beach", "ocean", "shore"}},
	{Location, 0.88, []string{"address", "where is the property", "where are we", "location", "what's the address"}},
	{Emergency, 0.9, []string{"emergency contact", "contact the host", "host", "manager", "property manager", "call someone", "phone number"}},
	{Thanks, 0.9, []string{"thanks", "thank you", "thx", "ty", "appreciate"}},
	{Goodbye, 0.9, []string{"bye", "goodbye", "see you", "have a good one", "good night"}},
	{Rejection, 0.85, []string{"something else", "something different", "another option", "other option", "not that", "don't like", "dont like", "not interested", "somewhere else", "different place", "been there", "already been"}},
}

var greetingWords = []string{"hi", "hello", "hey", "howdy", "yo", "good morning", "good afternoon", "good evening", "hiya"}
