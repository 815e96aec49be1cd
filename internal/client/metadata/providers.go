package metadata

// Provider is an entry in the built-in watch-provider catalog.
type Provider struct {
	ID    string
	Name  string
	Emoji string
}

// ProviderKind labels how a title is available on a provider.
type ProviderKind struct {
	ID    string
	Label string
}

// Providers is the built-in catalog shown when tagging media items.
var Providers = []Provider{
	{ID: "netflix", Name: "Netflix", Emoji: "🅽"},
	{ID: "prime", Name: "Prime Video", Emoji: "🅿️"},
	{ID: "disney", Name: "Disney+", Emoji: "🅳"},
	{ID: "hulu", Name: "Hulu", Emoji: "🅗"},
	{ID: "max", Name: "Max", Emoji: "🅜"},
	{ID: "apple", Name: "Apple TV+", Emoji: "🅐"},
	{ID: "paramount", Name: "Paramount+", Emoji: "🅟"},
	{ID: "youtube", Name: "YouTube", Emoji: "▶️"},
	{ID: "google", Name: "Google Play", Emoji: "🅖"},
	{ID: "itunes", Name: "iTunes", Emoji: "🅘"},
}

// ProviderKinds lists the supported availability kinds.
var ProviderKinds = []ProviderKind{
	{ID: "sub", Label: "Subscription"},
	{ID: "rent", Label: "Rent"},
	{ID: "buy", Label: "Buy"},
}

// ProviderByID looks a provider up in the catalog.
func ProviderByID(id string) (Provider, bool) {
	for _, p := range Providers {
		if p.ID == id {
			return p, true
		}
	}
	return Provider{}, false
}
