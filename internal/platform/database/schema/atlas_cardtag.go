package schema

// AtlasCardTagTable represents the 'atlas.cardtags' table
type AtlasCardTagTable struct {
	Table  string
	CardID string
	TagID  string
}

// AtlasCardTag is the schema definition for atlas.cardtags
var AtlasCardTag = AtlasCardTagTable{
	Table:  "atlas.cardtags",
	CardID: "cardid",
	TagID:  "tagid",
}
