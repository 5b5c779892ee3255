package schema

// AtlasFavoriteTable represents the 'atlas.favorites' table
type AtlasFavoriteTable struct {
	Table  string
	UserID string
	CardID string
}

// AtlasFavorite is the schema definition for atlas.favorites
var AtlasFavorite = AtlasFavoriteTable{
	Table:  "atlas.favorites",
	UserID: "userid",
	CardID: "cardid",
}
